// Command sipbuilder builds submission information packages from validated
// information packages and inspects recorded builds.
package main
