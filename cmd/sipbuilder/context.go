package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"sipbuilder/internal/builder"
	"sipbuilder/internal/config"
	"sipbuilder/internal/logging"
	"sipbuilder/internal/schema"
	"sipbuilder/internal/store"
	"sipbuilder/internal/validate"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg)
}

// newValidator assembles the schema resolution and validation stack.
func (c *commandContext) newValidator(logger *slog.Logger) (*validate.Validator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	loader := validate.NewLocationLoader(time.Duration(cfg.Validation.SchemaFetchTimeout) * time.Second)
	cache := validate.NewCache(loader)
	registry := schema.NewRegistry(cfg.Validation)
	return validate.New(registry, cache, logger), nil
}

func (c *commandContext) newBuilder(st *store.Store, logger *slog.Logger) (*builder.Builder, *validate.Validator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	validator, err := c.newValidator(logger)
	if err != nil {
		return nil, nil, err
	}
	return builder.New(cfg, st, validator, logger), validator, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
