package config

import "strings"

// LookupFunc matches os.LookupEnv and allows tests to inject environments.
type LookupFunc func(key string) (string, bool)

// applyEnvOverrides layers documented environment keys over file values.
// Unrecognized or absent keys leave the configured defaults untouched.
func (c *Config) applyEnvOverrides(lookup LookupFunc) {
	if lookup == nil {
		return
	}

	setString := func(key string, dst *string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*dst = strings.TrimSpace(value)
		}
	}
	setBool := func(key string, dst *bool) {
		if value, ok := lookup(key); ok {
			switch strings.TrimSpace(value) {
			case "1", "true", "yes":
				*dst = true
			case "0", "false", "no":
				*dst = false
			}
		}
	}

	setString("SIP_OUTPUT", &c.Paths.OutputDir)

	setBool("VALIDATION_ROSETTA_METS_ACTIVE", &c.Validation.METS.Active)
	setString("VALIDATION_ROSETTA_METS_XSD", &c.Validation.METS.XSD)
	setString("VALIDATION_ROSETTA_METS_XML_SCHEMA_VERSION", &c.Validation.METS.XMLSchemaVersion)
	setString("VALIDATION_ROSETTA_XSD_NAME", &c.Validation.METS.Name)
	setString("VALIDATION_ROSETTA_METS_XSD_FALLBACK", &c.Validation.METS.FallbackXSD)
	setString("VALIDATION_ROSETTA_METS_XML_SCHEMA_VERSION_FALLBACK", &c.Validation.METS.FallbackXMLSchemaVersion)
	setString("VALIDATION_ROSETTA_XSD_NAME_FALLBACK", &c.Validation.METS.FallbackName)

	setBool("VALIDATION_DCXML_ACTIVE", &c.Validation.DCXML.Active)
	setString("VALIDATION_DCXML_XSD", &c.Validation.DCXML.XSD)
	setString("VALIDATION_DCXML_XML_SCHEMA_VERSION", &c.Validation.DCXML.XMLSchemaVersion)
	setString("VALIDATION_DCXML_NAME", &c.Validation.DCXML.Name)

	setBool("VALIDATION_SIGPROP_ACTIVE", &c.Validation.SigProp.Active)
	setString("VALIDATION_SIGPROP_XSD", &c.Validation.SigProp.XSD)
	setString("VALIDATION_SIGPROP_XML_SCHEMA_VERSION", &c.Validation.SigProp.XMLSchemaVersion)
	setString("VALIDATION_SIGPROP_NAME", &c.Validation.SigProp.Name)
}
