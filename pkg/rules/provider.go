package rules

import (
	"fmt"
	"path/filepath"
)

// Provider defines the interface for rule data sources
type Provider interface {
	// LoadSource reads the unparsed rule set
	LoadSource() (*Source, error)

	// LoadRules reads, parses and validates the rule set
	LoadRules() (*RuleConfig, error)

	IsReadOnly() bool
	Close() error
}

const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// NewProvider opens the rule source at path using the named backend.
func NewProvider(backend, path string) (Provider, error) {
	filename, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error resolving rules path %s: %w", path, err)
	}

	switch backend {
	case BackendYAML, "":
		return NewYAMLProvider(filename), nil
	case BackendSQLite:
		p, err := NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported rules backend: %s. Use 'yaml' or 'sqlite'", backend)
	}
}

// Load opens path with the named backend, loads the rule set and closes the
// provider.
func Load(backend, path string) (*RuleConfig, error) {
	p, err := NewProvider(backend, path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.LoadRules()
}
