// Package catalog owns the subject catalog, the attribute enumeration, and the
// candidate selector that pairs them.
//
// A Candidate encodes to a stable key ("fox|curious") which is what the history
// store records. Selector.SelectUnique draws random pairs until it finds a key
// that is not yet used; it never records the choice itself.
package catalog
