// Package relocate moves a file into a destination directory without ever
// overwriting an existing file.
package relocate
