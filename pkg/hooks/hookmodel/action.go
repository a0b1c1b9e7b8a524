package hookmodel

import (
	"encoding/json"
	"fmt"
)

// ActionKind tags a HookAction variant.
type ActionKind string

const (
	ActionCommand         ActionKind = "command"
	ActionScript          ActionKind = "script"
	ActionHTTPRequest     ActionKind = "http_request"
	ActionNotification    ActionKind = "notification"
	ActionApprovalRequest ActionKind = "approval_request"
	ActionModifyContext   ActionKind = "modify_context"
)

// HookAction is one unit of external work a firing hook performs.
type HookAction interface {
	Kind() ActionKind
}

// NotificationChannel is the sink a Notification action routes to.
// It is a 7-member superset of the original 4-variant registry enum
// (Email/Slack/Webhook/Terminal), restoring the channels spec.md's
// executor section actually requires (console, log, email, webhook,
// slack, teams, discord); "terminal" is renamed "console" to match.
type NotificationChannel string

const (
	ChannelConsole NotificationChannel = "console"
	ChannelLog     NotificationChannel = "log"
	ChannelEmail   NotificationChannel = "email"
	ChannelWebhook NotificationChannel = "webhook"
	ChannelSlack   NotificationChannel = "slack"
	ChannelTeams   NotificationChannel = "teams"
	ChannelDiscord NotificationChannel = "discord"
)

// ContextOperation is the mutation ModifyContext applies.
type ContextOperation string

const (
	OpSet    ContextOperation = "set"
	OpAppend ContextOperation = "append"
	OpRemove ContextOperation = "remove"
	OpMerge  ContextOperation = "merge"
)

type CommandAction struct {
	Command     string            `json:"command"`
	Args        []string          `json:"args,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
}

func (CommandAction) Kind() ActionKind { return ActionCommand }

type ScriptAction struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

func (ScriptAction) Kind() ActionKind { return ActionScript }

type HTTPRequestAction struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    *string           `json:"body,omitempty"`
}

func (HTTPRequestAction) Kind() ActionKind { return ActionHTTPRequest }

type NotificationAction struct {
	Channel  NotificationChannel `json:"channel"`
	Message  string              `json:"message"`
	Template *string             `json:"template,omitempty"`
}

func (NotificationAction) Kind() ActionKind { return ActionNotification }

type ApprovalRequestAction struct {
	Approvers      []string `json:"approvers"`
	Message        string   `json:"message"`
	TimeoutMinutes int      `json:"timeout_minutes"`
}

func (ApprovalRequestAction) Kind() ActionKind { return ActionApprovalRequest }

type ModifyContextAction struct {
	Operation ContextOperation `json:"operation"`
	Key       string           `json:"key"`
	Value     interface{}      `json:"value"`
}

func (ModifyContextAction) Kind() ActionKind { return ActionModifyContext }

// DecodeAction parses one tagged action object from the hook config file.
func DecodeAction(data []byte) (HookAction, error) {
	var head struct {
		Type ActionKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	switch head.Type {
	case ActionCommand:
		var a CommandAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionScript:
		var a ScriptAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionHTTPRequest:
		var a HTTPRequestAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionNotification:
		var a NotificationAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionApprovalRequest:
		var a ApprovalRequestAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionModifyContext:
		var a ModifyContextAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", head.Type)
	}
}

// DecodeActionList decodes a list of raw tagged action objects.
func DecodeActionList(raw []json.RawMessage) ([]HookAction, error) {
	out := make([]HookAction, 0, len(raw))
	for _, r := range raw {
		a, err := DecodeAction(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// EncodeAction serializes an action back to its tagged JSON form.
func EncodeAction(a HookAction) ([]byte, error) {
	return encodeTagged(a.Kind(), a)
}
