package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.MountDir) == "" {
		return errors.New("paths.mount_dir must be set")
	}
	if strings.Contains(c.Paths.OutputDir, "..") {
		return errors.New("paths.output_dir must not traverse outside the mount")
	}
	return nil
}

func (c *Config) validateValidation() error {
	for _, check := range []struct {
		name   string
		schema Schema
	}{
		{"validation.mets", c.Validation.METS.Schema},
		{"validation.dcxml", c.Validation.DCXML},
		{"validation.sigprop", c.Validation.SigProp},
	} {
		if !check.schema.Active {
			continue
		}
		if check.schema.XSD == "" {
			return fmt.Errorf("%s.xsd must be set while %s.active is true", check.name, check.name)
		}
		if err := validateSchemaLocation(check.name, check.schema.XSD); err != nil {
			return err
		}
		switch check.schema.XMLSchemaVersion {
		case "1.0", "1.1":
		default:
			return fmt.Errorf("%s.xml_schema_version must be 1.0 or 1.1", check.name)
		}
	}
	if fallback := c.Validation.METS.FallbackXSD; fallback != "" {
		if err := validateSchemaLocation("validation.mets.fallback", fallback); err != nil {
			return err
		}
	}
	return nil
}

func validateSchemaLocation(key, location string) error {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return nil
	case strings.HasPrefix(location, "builtin:"):
		if strings.TrimPrefix(location, "builtin:") == "" {
			return fmt.Errorf("%s: builtin schema location is empty", key)
		}
		return nil
	default:
		if !filepath.IsAbs(location) {
			return fmt.Errorf("%s: local schema path %q must be absolute", key, location)
		}
		return nil
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
