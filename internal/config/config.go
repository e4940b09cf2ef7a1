package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	MountDir  string `toml:"mount_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Schema configures one schema reference used to validate a document kind.
type Schema struct {
	Active           bool   `toml:"active"`
	XSD              string `toml:"xsd"`
	XMLSchemaVersion string `toml:"xml_schema_version"`
	Name             string `toml:"name"`
	Mandatory        bool   `toml:"mandatory"`
}

// METSSchema extends Schema with a fallback reference used when the primary
// schema cannot be loaded.
type METSSchema struct {
	Schema
	FallbackXSD              string `toml:"fallback_xsd"`
	FallbackXMLSchemaVersion string `toml:"fallback_xml_schema_version"`
	FallbackName             string `toml:"fallback_name"`
}

// Validation contains per-document-kind schema validation configuration.
type Validation struct {
	METS    METSSchema `toml:"mets"`
	DCXML   Schema     `toml:"dcxml"`
	SigProp Schema     `toml:"sigprop"`

	// StrictStartup fails process startup when an active kind has no
	// loadable schema reference instead of degrading to "unvalidated".
	StrictStartup bool `toml:"strict_startup"`
	// SchemaFetchTimeout bounds remote XSD fetches, in seconds.
	SchemaFetchTimeout int `toml:"schema_fetch_timeout"`
}

// Build contains SIP assembly settings.
type Build struct {
	// OutputRetries caps attempts to allocate a fresh output directory.
	OutputRetries int `toml:"output_retries"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the SIP builder.
//
// Configuration sections by subsystem:
//   - Paths: storage mount, SIP output root, and log directory
//   - Validation: schema references per generated document kind
//   - Build: output allocation behaviour
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Validation Validation `toml:"validation"`
	Build      Build      `toml:"build"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sipbuilder/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after file values; the returned config has all path
// fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides(os.LookupEnv)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sipbuilder.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for build operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.MountDir, c.OutputRoot(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OutputRoot returns the absolute SIP output root directory.
func (c *Config) OutputRoot() string {
	if filepath.IsAbs(c.Paths.OutputDir) {
		return c.Paths.OutputDir
	}
	return filepath.Join(c.Paths.MountDir, c.Paths.OutputDir)
}

// ResolveIPPath resolves an IP path against the storage mount.
func (c *Config) ResolveIPPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.Paths.MountDir, path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
