package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeValidation()
	c.normalizeBuild()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.MountDir) == "" {
		c.Paths.MountDir = defaultMountDir
	}
	if c.Paths.MountDir, err = expandPath(c.Paths.MountDir); err != nil {
		return fmt.Errorf("paths.mount_dir: %w", err)
	}
	c.Paths.OutputDir = strings.TrimSpace(c.Paths.OutputDir)
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeValidation() {
	normalizeSchema(&c.Validation.METS.Schema, defaultMETSXSD, defaultMETSSchemaName)
	c.Validation.METS.FallbackXSD = strings.TrimSpace(c.Validation.METS.FallbackXSD)
	c.Validation.METS.FallbackName = strings.TrimSpace(c.Validation.METS.FallbackName)
	if c.Validation.METS.FallbackXSD != "" {
		if c.Validation.METS.FallbackXMLSchemaVersion == "" {
			c.Validation.METS.FallbackXMLSchemaVersion = defaultXMLSchemaVersion
		}
		if c.Validation.METS.FallbackName == "" {
			c.Validation.METS.FallbackName = defaultMETSFallbackName
		}
	}
	normalizeSchema(&c.Validation.DCXML, defaultDCXMLXSD, defaultDCXMLSchemaName)
	normalizeSchema(&c.Validation.SigProp, defaultSigPropXSD, defaultSigPropSchemaName)
	if c.Validation.SchemaFetchTimeout <= 0 {
		c.Validation.SchemaFetchTimeout = defaultSchemaFetchTimeout
	}
}

func normalizeSchema(s *Schema, defaultXSD, defaultName string) {
	s.XSD = strings.TrimSpace(s.XSD)
	if s.XSD == "" {
		s.XSD = defaultXSD
	}
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		s.Name = defaultName
	}
	s.XMLSchemaVersion = strings.TrimSpace(s.XMLSchemaVersion)
	if s.XMLSchemaVersion == "" {
		s.XMLSchemaVersion = defaultXMLSchemaVersion
	}
}

func (c *Config) normalizeBuild() {
	if c.Build.OutputRetries <= 0 {
		c.Build.OutputRetries = defaultOutputRetries
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
