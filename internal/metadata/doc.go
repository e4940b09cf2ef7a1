// Package metadata normalizes heterogeneous IP metadata into the single
// model all document synthesizers consume.
//
// Extraction is the fail-fast boundary of a build: identifiers required by
// the preservation system must be derivable here, while optional sections
// (rights, source metadata, significant properties) are carried with
// explicit absent markers so synthesizers can omit rather than emit empty
// elements.
package metadata
