// Package classify connects tag extraction, rule matching and relocation.
//
// A [Pipeline] classifies one file at a time with [Pipeline.Classify]:
// tags are read, the rule set is loaded fresh, the first matching rule is
// picked, and the file is moved to the rule's destination.
// [Pipeline.Run] drives it from a stream of change events with a bounded
// worker pool, and [Pipeline.Scan] classifies a directory once.
package classify
