package hookcost

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hookguard/hookguard/pkg/logger"
)

// AlertType classifies why a cost Alert fired.
type AlertType string

const (
	AlertBudgetThreshold      AlertType = "budget_threshold"
	AlertCostThreshold        AlertType = "cost_threshold"
	AlertCostSpike            AlertType = "cost_spike"
	AlertBudgetExhausted      AlertType = "budget_exhausted"
	AlertEfficiencyDegraded   AlertType = "efficiency_degradation"
	AlertModelCostAnomaly     AlertType = "model_cost_anomaly"
	AlertApprovalRequired     AlertType = "approval_required"
)

// Severity ranks an Alert for escalation and filtering.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Alert is a single cost or budget notification.
type Alert struct {
	ID               string
	Type             AlertType
	Severity         Severity
	Message          string
	CostAmount       float64
	ThresholdAmount  *float64
	BudgetID         string
	Scope            string
	Timestamp        time.Time
	Acknowledged     bool
	AcknowledgedBy   string
	AcknowledgedAt   *time.Time
	EscalationLevel  int
}

func newAlert(alertType AlertType, severity Severity, message string, cost float64, threshold *float64, budgetID, scope string) Alert {
	return Alert{
		ID:              uuid.NewString(),
		Type:            alertType,
		Severity:        severity,
		Message:         message,
		CostAmount:      cost,
		ThresholdAmount: threshold,
		BudgetID:        budgetID,
		Scope:           scope,
		Timestamp:       time.Now().UTC(),
	}
}

// AlertChannel is a sink an Alert can be delivered to.
type AlertChannel interface {
	Send(alert Alert) error
	Name() string
}

// ConsoleChannel prints alerts to stdout, matching the original's console
// sink.
type ConsoleChannel struct{}

func (ConsoleChannel) Name() string { return "console" }

func (ConsoleChannel) Send(alert Alert) error {
	fmt.Printf("COST ALERT [%s]: %s\n", alert.Severity, alert.Message)
	fmt.Printf("  Cost: $%.4f\n", alert.CostAmount)
	if alert.ThresholdAmount != nil {
		fmt.Printf("  Threshold: $%.4f\n", *alert.ThresholdAmount)
	}
	fmt.Printf("  Time: %s\n", alert.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	return nil
}

// LogChannel routes alerts through the structured logger.
type LogChannel struct {
	Logger logger.Logger
}

func (LogChannel) Name() string { return "log" }

func (c LogChannel) Send(alert Alert) error {
	fields := map[string]interface{}{
		"alert_id":  alert.ID,
		"type":      alert.Type,
		"severity":  alert.Severity.String(),
		"cost":      alert.CostAmount,
		"budget_id": alert.BudgetID,
	}
	if alert.ThresholdAmount != nil {
		fields["threshold"] = *alert.ThresholdAmount
	}
	c.Logger.Warn("cost alert triggered: "+alert.Message, fields)
	return nil
}

// WebhookChannel POSTs an alert as JSON to an external URL.
type WebhookChannel struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

func (WebhookChannel) Name() string { return "webhook" }

func (c WebhookChannel) Send(alert Alert) error {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
