package hookmodel

import (
	"encoding/json"
	"fmt"
)

// ConditionKind tags a HookCondition variant; used as the "type"
// discriminant in the hook configuration file format.
type ConditionKind string

const (
	ConditionFilePattern        ConditionKind = "file_pattern"
	ConditionFileSize           ConditionKind = "file_size"
	ConditionEnvironmentVar     ConditionKind = "environment_variable"
	ConditionContextVar         ConditionKind = "context_variable"
	ConditionTimeWindow         ConditionKind = "time_window"
	ConditionRepository         ConditionKind = "repository"
	ConditionCostThreshold      ConditionKind = "cost_threshold"
	ConditionExpression         ConditionKind = "expression"
	ConditionAnd                ConditionKind = "and"
	ConditionOr                 ConditionKind = "or"
	ConditionNot                ConditionKind = "not"
)

// HookCondition is a recursive boolean predicate over an ExecutionContext.
// It is a closed sum type: every implementation lives in this file.
type HookCondition interface {
	Kind() ConditionKind
}

// ContextOperator is the comparison operator for ContextVariableCondition.
type ContextOperator string

const (
	OpEq         ContextOperator = "eq"
	OpNe         ContextOperator = "ne"
	OpContains   ContextOperator = "contains"
	OpStartsWith ContextOperator = "starts_with"
	OpEndsWith   ContextOperator = "ends_with"
	OpGt         ContextOperator = "gt"
	OpLt         ContextOperator = "lt"
	OpGe         ContextOperator = "ge"
	OpLe         ContextOperator = "le"
	OpMatches    ContextOperator = "matches"
)

// SizeOperator is the comparison operator for FileSizeCondition.
type SizeOperator string

const (
	SizeLessThan    SizeOperator = "lt"
	SizeGreaterThan SizeOperator = "gt"
	SizeBetween     SizeOperator = "between"
)

type FilePatternCondition struct {
	Pattern string `json:"pattern"`
	Negate  bool   `json:"negate,omitempty"`
}

func (FilePatternCondition) Kind() ConditionKind { return ConditionFilePattern }

type FileSizeCondition struct {
	Operator SizeOperator `json:"operator"`
	Value    string       `json:"value,omitempty"`
	Min      string       `json:"min,omitempty"`
	Max      string       `json:"max,omitempty"`
}

func (FileSizeCondition) Kind() ConditionKind { return ConditionFileSize }

type EnvironmentVariableCondition struct {
	Name   string  `json:"name"`
	Value  *string `json:"value,omitempty"`
	Exists *bool   `json:"exists,omitempty"`
}

func (EnvironmentVariableCondition) Kind() ConditionKind { return ConditionEnvironmentVar }

type ContextVariableCondition struct {
	Key      string          `json:"key"`
	Operator ContextOperator `json:"operator"`
	Value    interface{}     `json:"value"`
}

func (ContextVariableCondition) Kind() ConditionKind { return ConditionContextVar }

type TimeWindowCondition struct {
	Start    string   `json:"start"` // HH:MM
	End      string   `json:"end"`   // HH:MM
	Weekdays []string `json:"weekdays,omitempty"`
	Timezone string   `json:"timezone,omitempty"`
}

func (TimeWindowCondition) Kind() ConditionKind { return ConditionTimeWindow }

type RepositoryCondition struct {
	HasFile       string `json:"has_file,omitempty"`
	BranchPattern string `json:"branch_pattern,omitempty"`
	IsClean       *bool  `json:"is_clean,omitempty"`
}

func (RepositoryCondition) Kind() ConditionKind { return ConditionRepository }

type CostThresholdCondition struct {
	Max      float64 `json:"max"`
	Currency string  `json:"currency,omitempty"`
}

func (CostThresholdCondition) Kind() ConditionKind { return ConditionCostThreshold }

// ExpressionCondition evaluates a narrowly scoped predicate string of the
// form `${variable} == "literal"`; any other form evaluates true. This is
// deliberately not a general expression language (see SPEC_FULL.md section 9).
type ExpressionCondition struct {
	Expression string `json:"expression"`
}

func (ExpressionCondition) Kind() ConditionKind { return ConditionExpression }

type AndCondition struct {
	Conditions []HookCondition `json:"conditions"`
}

func (AndCondition) Kind() ConditionKind { return ConditionAnd }

type OrCondition struct {
	Conditions []HookCondition `json:"conditions"`
}

func (OrCondition) Kind() ConditionKind { return ConditionOr }

type NotCondition struct {
	Condition HookCondition `json:"condition"`
}

func (NotCondition) Kind() ConditionKind { return ConditionNot }

// DecodeCondition parses one tagged condition object. It is used both
// by the hook config loader and recursively for And/Or/Not children.
func DecodeCondition(data []byte) (HookCondition, error) {
	var head struct {
		Type ConditionKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode condition: %w", err)
	}

	switch head.Type {
	case ConditionFilePattern:
		var c FilePatternCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case ConditionFileSize:
		var c FileSizeCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case ConditionEnvironmentVar:
		var c EnvironmentVariableCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case ConditionContextVar:
		var c ContextVariableCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case ConditionTimeWindow:
		var c TimeWindowCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case ConditionRepository:
		var c RepositoryCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case ConditionCostThreshold:
		var c CostThresholdCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case ConditionExpression:
		var c ExpressionCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case ConditionAnd, ConditionOr:
		var raw struct {
			Conditions []json.RawMessage `json:"conditions"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		children, err := DecodeConditionList(raw.Conditions)
		if err != nil {
			return nil, err
		}
		if head.Type == ConditionAnd {
			return AndCondition{Conditions: children}, nil
		}
		return OrCondition{Conditions: children}, nil
	case ConditionNot:
		var raw struct {
			Condition json.RawMessage `json:"condition"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		child, err := DecodeCondition(raw.Condition)
		if err != nil {
			return nil, err
		}
		return NotCondition{Condition: child}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", head.Type)
	}
}

// DecodeConditionList decodes a list of raw tagged condition objects.
func DecodeConditionList(raw []json.RawMessage) ([]HookCondition, error) {
	out := make([]HookCondition, 0, len(raw))
	for _, r := range raw {
		c, err := DecodeCondition(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// EncodeCondition serializes a condition back to its tagged JSON form,
// adding the "type" discriminant the variant structs omit from their own
// json tags (Kind() supplies it).
func EncodeCondition(c HookCondition) ([]byte, error) {
	switch v := c.(type) {
	case AndCondition:
		children := make([]json.RawMessage, 0, len(v.Conditions))
		for _, child := range v.Conditions {
			b, err := EncodeCondition(child)
			if err != nil {
				return nil, err
			}
			children = append(children, b)
		}
		return json.Marshal(struct {
			Type       ConditionKind     `json:"type"`
			Conditions []json.RawMessage `json:"conditions"`
		}{v.Kind(), children})
	case OrCondition:
		children := make([]json.RawMessage, 0, len(v.Conditions))
		for _, child := range v.Conditions {
			b, err := EncodeCondition(child)
			if err != nil {
				return nil, err
			}
			children = append(children, b)
		}
		return json.Marshal(struct {
			Type       ConditionKind     `json:"type"`
			Conditions []json.RawMessage `json:"conditions"`
		}{v.Kind(), children})
	case NotCondition:
		child, err := EncodeCondition(v.Condition)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Type      ConditionKind   `json:"type"`
			Condition json.RawMessage `json:"condition"`
		}{v.Kind(), child})
	default:
		return encodeTagged(c.Kind(), c)
	}
}

func encodeTagged(kind interface{}, v interface{}) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	for k, val := range fields {
		out[k] = val
	}
	typeJSON, _ := json.Marshal(kind)
	out["type"] = typeJSON
	return json.Marshal(out)
}
