// Package ip loads bag-style information packages from storage.
//
// An IP carries bag-info.txt metadata, one checksum manifest per algorithm,
// the payload file listing per representation category, and the optional XML
// metadata documents under meta/. Loading is fail-fast for required sources
// and tolerant for defects that do not block synthesis (malformed manifest
// lines become warnings). The returned IP is read-only.
package ip
