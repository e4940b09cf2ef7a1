// Package sipfile assembles the on-disk SIP layout: payload streams, the
// generated documents, and the checksum manifest, under a uniquely allocated
// output directory.
package sipfile
