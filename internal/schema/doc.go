// Package schema resolves document kinds to configured schema references and
// embeds a builtin schema set used as offline fallbacks.
package schema
