package compile

import "sipbuilder/internal/xmlbuild"

// XML namespaces used by the generated documents.
var (
	nsOAI     = xmlbuild.Namespace{Prefix: "oai", URI: "http://www.openarchives.org/OAI/2.0/"}
	nsMETS    = xmlbuild.Namespace{Prefix: "mets", URI: "http://www.exlibrisgroup.com/xsd/dps/rosettaMets"}
	nsDC      = xmlbuild.Namespace{Prefix: "dc", URI: "http://purl.org/dc/elements/1.1/"}
	nsDCTerms = xmlbuild.Namespace{Prefix: "dcterms", URI: "http://purl.org/dc/terms/"}
	nsRosetta = xmlbuild.Namespace{Prefix: "rosetta", URI: "http://www.exlibrisgroup.com/dps"}
	nsXLink   = xmlbuild.Namespace{Prefix: "xlink", URI: "http://www.w3.org/1999/xlink"}
	nsPremis  = xmlbuild.Namespace{Prefix: "premis", URI: "http://www.loc.gov/premis/v3"}
)

// nsDNX has no prefix registration: dnx subtrees declare it as their default
// namespace in place, matching the preservation system's METS profile.
const dnxURI = "http://www.exlibrisgroup.com/dps/dnx"
