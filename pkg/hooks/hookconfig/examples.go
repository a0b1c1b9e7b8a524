package hookconfig

import (
	"fmt"
	"os"
	"path/filepath"
)

// NamedExample pairs a suggested filename with its JSON content, for
// seeding a fresh hooks directory or for documentation.
type NamedExample struct {
	Filename string
	JSON     string
}

// ExampleConfigs returns the runtime's bundled sample hook definitions,
// covering the common shapes: a command hook gated on a file pattern, a
// cost-triggered approval request, an AND-combined quality gate, a
// security scan requiring approval, and a hook security validation is
// expected to reject.
func ExampleConfigs() []NamedExample {
	return []NamedExample{
		{Filename: "auto-format.json", JSON: autoFormatExample},
		{Filename: "cost-control.json", JSON: costControlExample},
		{Filename: "quality-gate.json", JSON: qualityGateExample},
		{Filename: "security-hook.json", JSON: securityHookExample},
		{Filename: "dangerous-hook.json", JSON: dangerousHookExample},
	}
}

// GenerateExamples writes every bundled example into outputDir, creating
// it if necessary.
func GenerateExamples(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating example output directory: %w", err)
	}

	for _, ex := range ExampleConfigs() {
		path := filepath.Join(outputDir, ex.Filename)
		if err := os.WriteFile(path, []byte(ex.JSON), 0o644); err != nil {
			return fmt.Errorf("writing example %s: %w", ex.Filename, err)
		}
	}

	return nil
}

const autoFormatExample = `{
  "name": "auto-format",
  "description": "Automatically format code before modifications",
  "events": ["before_code_modification"],
  "conditions": {
    "type": "file_pattern",
    "pattern": "*.go"
  },
  "actions": [
    {
      "type": "command",
      "command": "gofmt",
      "args": ["-w", "${file_path}"]
    }
  ],
  "priority": "high",
  "security": {
    "require_approval": false,
    "allowed_commands": ["gofmt"],
    "stop_on_error": true
  }
}`

const costControlExample = `{
  "name": "cost-control",
  "description": "Require approval for expensive operations",
  "events": ["cost_threshold_reached"],
  "conditions": {
    "type": "context_variable",
    "key": "estimated_cost",
    "operator": "gt",
    "value": 0.10
  },
  "actions": [
    {
      "type": "approval_request",
      "approvers": ["finance-team", "project-lead"],
      "message": "Operation will cost $${estimated_cost}. Approval required.",
      "timeout_minutes": 30
    }
  ],
  "metadata": {
    "tags": ["cost", "approval", "finance"]
  }
}`

const qualityGateExample = `{
  "name": "quality-gate",
  "description": "Enforce code quality standards",
  "events": ["quality_gate_check"],
  "conditions": {
    "type": "and",
    "conditions": [
      {
        "type": "context_variable",
        "key": "complexity",
        "operator": "lt",
        "value": 10
      },
      {
        "type": "context_variable",
        "key": "test_coverage",
        "operator": "ge",
        "value": 80
      }
    ]
  },
  "actions": [
    {
      "type": "modify_context",
      "operation": "set",
      "key": "quality_passed",
      "value": true
    },
    {
      "type": "notification",
      "channel": "console",
      "message": "quality gate passed: complexity=${complexity}, coverage=${test_coverage}%"
    }
  ]
}`

const securityHookExample = `{
  "name": "security-scan",
  "description": "Run security checks on code changes",
  "events": ["before_code_modification"],
  "conditions": {
    "type": "file_pattern",
    "pattern": "*.go"
  },
  "actions": [
    {
      "type": "script",
      "language": "bash",
      "content": "echo 'running security scan'; exit 0"
    }
  ],
  "security": {
    "require_approval": true,
    "approval_message": "Security scan will analyze file",
    "allowed_commands": ["go", "npm", "pip"],
    "max_execution_time": 300
  }
}`

// dangerousHookExample is deliberately destructive: hooksecurity.Validator
// is expected to reject it, and LoadFromFile/LoadFromDirectory callers
// should treat a validation failure here as proof the guard rails work.
const dangerousHookExample = `{
  "name": "dangerous-example",
  "description": "Example of a hook that should be rejected",
  "events": ["before_consensus"],
  "actions": [
    {
      "type": "command",
      "command": "rm",
      "args": ["-rf", "/"]
    }
  ],
  "security": {
    "require_approval": false
  }
}`
