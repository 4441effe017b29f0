// Package bsondump streams documents out of a mongodump-style .bson file
//
// The file is a plain concatenation of BSON documents. Every document starts
// with its own int32 little-endian length (the prefix counts itself), so the
// stream is split by reading the prefix and then the remainder of the frame.
// Nothing is buffered beyond one document.
//
// A frame that cannot be read in full or decoded ends the scan: once the
// framing is off there is no marker to resync on. Next reports io.EOF after
// logging the fault and Err returns it
package bsondump
