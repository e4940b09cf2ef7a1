// Package xmlbuild provides a small element-tree model for constructing,
// serializing, and inspecting namespaced XML documents.
//
// The document synthesizers assemble their output as Element trees and
// Marshal renders them with stable indentation, root-level prefix
// declarations, and in-place default-namespace declarations for embedded
// foreign subtrees. Parse reads metadata documents shipped inside an IP back
// into the same shape so their elements can be carried into generated output.
package xmlbuild
