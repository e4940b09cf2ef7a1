// Package validate checks generated documents against configured XML
// schemas. Compiled schemas are shared across builds through a deduplicating
// cache; schema locations may be remote URLs, embedded builtins, or local
// files.
package validate
