// Package execs runs the external helper tools declared in configuration,
// such as the property-list converter and the metadata query tool used
// during tag extraction.
package execs
