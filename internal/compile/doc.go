// Package compile synthesizes the SIP documents from normalized package
// metadata. One compiler exists per document kind; each is a deterministic
// transform from the metadata model to serialized XML, with omission policies
// applied per kind. Validation outcomes are attached later by the validator.
package compile
