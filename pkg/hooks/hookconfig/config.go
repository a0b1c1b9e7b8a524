// Package hookconfig loads and validates hook definitions from JSON/YAML
// configuration files into the runtime's hookmodel.Hook representation.
package hookconfig

import (
	"encoding/json"
	"fmt"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hookregistry"
)

// FileConfig is the on-disk shape of a hook configuration file, before its
// conditions/actions/events strings are resolved into hookmodel types.
type FileConfig struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Events      []string          `json:"events"`
	Conditions  json.RawMessage   `json:"conditions,omitempty"`
	Actions     []json.RawMessage `json:"actions"`
	Priority    string            `json:"priority,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	Security    hookmodel.SecurityPolicy `json:"security,omitempty"`
	Metadata    FileMetadata      `json:"metadata,omitempty"`
}

// FileMetadata is the metadata block of a hook configuration file.
type FileMetadata struct {
	Author  string   `json:"author,omitempty"`
	Version string   `json:"version,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Source  string   `json:"source,omitempty"`
}

func parseEventType(s string) (hookmodel.EventType, error) {
	et := hookmodel.EventType(s)
	if !hookmodel.IsValidEventType(et) {
		return "", fmt.Errorf("unknown event type: %s", s)
	}
	return et, nil
}

// ToHook converts a parsed FileConfig into a hookmodel.Hook, assigning a
// fresh id and timestamps the way config_to_hook does in the original.
func (fc FileConfig) ToHook(sourcePath string) (*hookmodel.Hook, error) {
	events := make([]hookmodel.EventType, 0, len(fc.Events))
	for _, e := range fc.Events {
		et, err := parseEventType(e)
		if err != nil {
			return nil, err
		}
		events = append(events, et)
	}

	conditions, err := decodeConditions(fc.Conditions)
	if err != nil {
		return nil, fmt.Errorf("decoding conditions: %w", err)
	}

	actions, err := hookmodel.DecodeActionList(fc.Actions)
	if err != nil {
		return nil, fmt.Errorf("decoding actions: %w", err)
	}

	priority := hookmodel.PriorityNormal
	if fc.Priority != "" {
		p, ok := hookmodel.ParsePriority(fc.Priority)
		if !ok {
			return nil, fmt.Errorf("unknown priority: %s", fc.Priority)
		}
		priority = p
	}

	enabled := true
	if fc.Enabled != nil {
		enabled = *fc.Enabled
	}

	version := fc.Metadata.Version
	if version == "" {
		version = "1.0.0"
	}

	metadata := hookmodel.DefaultHookMetadata()
	metadata.Author = fc.Metadata.Author
	metadata.Version = version
	metadata.Tags = fc.Metadata.Tags
	metadata.Source = sourcePath

	return &hookmodel.Hook{
		ID:          hookregistry.HookIDFromName(fc.Name),
		Name:        fc.Name,
		Description: fc.Description,
		Events:      events,
		Conditions:  conditions,
		Actions:     actions,
		Priority:    priority,
		Enabled:     enabled,
		Security:    fc.Security,
		Metadata:    metadata,
	}, nil
}

// decodeConditions accepts either a single condition object or a JSON array
// of conditions, matching the original's acceptance of both shapes.
func decodeConditions(raw json.RawMessage) ([]hookmodel.HookCondition, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return hookmodel.DecodeConditionList(arr)
	}

	cond, err := hookmodel.DecodeCondition(raw)
	if err != nil {
		return nil, err
	}
	return []hookmodel.HookCondition{cond}, nil
}
