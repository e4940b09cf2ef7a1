package validate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jacoelho/xsd"

	"sipbuilder/internal/schema"
	"sipbuilder/internal/services"
)

// maxSchemaBytes bounds remote schema downloads.
const maxSchemaBytes = 16 << 20

// Loader resolves a schema reference location into a compiled engine.
type Loader interface {
	Load(ctx context.Context, ref schema.Reference) (*xsd.Engine, error)
}

// LocationLoader loads schemas from http(s) URLs, the embedded builtin set,
// and absolute filesystem paths.
type LocationLoader struct {
	client *http.Client
}

// NewLocationLoader returns a loader whose remote fetches are bounded by
// timeout.
func NewLocationLoader(timeout time.Duration) *LocationLoader {
	return &LocationLoader{client: &http.Client{Timeout: timeout}}
}

func (l *LocationLoader) Load(ctx context.Context, ref schema.Reference) (*xsd.Engine, error) {
	location := ref.Location
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return l.loadRemote(ctx, location)
	case schema.IsBuiltin(location):
		return l.loadBuiltin(location)
	case filepath.IsAbs(location):
		engine, err := xsd.Compile(xsd.File(location))
		if err != nil {
			return nil, services.Wrap(services.ErrExternalSource, "validate", "load schema",
				fmt.Sprintf("compiling schema file %s", location), err)
		}
		return engine, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "validate", "load schema",
			fmt.Sprintf("unsupported schema location %q", location), nil)
	}
}

func (l *LocationLoader) loadBuiltin(location string) (*xsd.Engine, error) {
	data, err := schema.Builtin(location)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "validate", "load schema",
			"reading builtin schema", err)
	}
	name := strings.TrimPrefix(location, schema.BuiltinPrefix)
	engine, err := xsd.Compile(xsd.Bytes(name, data))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "validate", "load schema",
			fmt.Sprintf("compiling builtin schema %s", name), err)
	}
	return engine, nil
}

func (l *LocationLoader) loadRemote(ctx context.Context, location string) (*xsd.Engine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "validate", "load schema",
			fmt.Sprintf("building request for %s", location), err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalSource, "validate", "load schema",
			fmt.Sprintf("fetching %s", location), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalSource, "validate", "load schema",
			fmt.Sprintf("fetching %s: status %s", location, resp.Status), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalSource, "validate", "load schema",
			fmt.Sprintf("reading %s", location), err)
	}

	engine, err := xsd.Compile(xsd.Bytes(location, data))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalSource, "validate", "load schema",
			fmt.Sprintf("compiling schema from %s", location), err)
	}
	return engine, nil
}
