// Package watch reports regular files that change inside a single directory.
//
// A [Notifier] delivers raw paths from the platform's change notification
// API. The [Watcher] filters them (directories, vanished paths and ignored
// names are dropped) and emits the survivors as [ChangeEvent] values on a
// buffered channel, without ever blocking the notifier.
package watch
