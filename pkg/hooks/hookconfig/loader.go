package hookconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hooksecurity"
	"github.com/hookguard/hookguard/pkg/logger"
)

// Loader reads hook definitions from JSON/YAML files and validates them
// against the static security rules before handing them back to the
// caller (typically for hookregistry.Register).
type Loader struct {
	validator *hooksecurity.Validator
	log       logger.Logger
}

// NewLoader constructs a Loader using validator for the post-parse
// security check.
func NewLoader(validator *hooksecurity.Validator) *Loader {
	return &Loader{validator: validator, log: logger.NewDefaultLogger()}
}

// LoadFromFile parses one hook configuration file, supporting .json,
// .yaml, and .yml extensions, and validates the resulting Hook.
func (l *Loader) LoadFromFile(path string) (*hookmodel.Hook, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hook configuration: %w", err)
	}

	// Security fields absent from the file keep the default policy's values.
	fc := FileConfig{Security: hookmodel.DefaultSecurityPolicy()}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(contents, &fc); err != nil {
			return nil, fmt.Errorf("parsing json hook configuration: %w", err)
		}
	case ".yaml", ".yml":
		var generic interface{}
		if err := yaml.Unmarshal(contents, &generic); err != nil {
			return nil, fmt.Errorf("parsing yaml hook configuration: %w", err)
		}
		asJSON, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("normalizing yaml hook configuration: %w", err)
		}
		if err := json.Unmarshal(asJSON, &fc); err != nil {
			return nil, fmt.Errorf("parsing yaml hook configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported file format %q; use .json, .yaml, or .yml", ext)
	}

	hook, err := fc.ToHook(path)
	if err != nil {
		return nil, err
	}

	if l.validator != nil {
		if err := l.validator.ValidateHook(hook); err != nil {
			return nil, fmt.Errorf("validating hook %q: %w", hook.Name, err)
		}
	}

	return hook, nil
}

// LoadFromDirectory parses every .json/.yaml/.yml file in dir, skipping
// (and logging) any file that fails to load rather than aborting the
// whole batch.
func (l *Loader) LoadFromDirectory(dir string) ([]*hookmodel.Hook, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading hook config directory: %w", err)
	}

	var hooks []*hookmodel.Hook
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		hook, err := l.LoadFromFile(path)
		if err != nil {
			l.log.Warn("failed to load hook configuration", map[string]interface{}{"path": path, "error": err.Error()})
			continue
		}
		hooks = append(hooks, hook)
	}

	return hooks, nil
}
