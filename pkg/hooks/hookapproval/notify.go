package hookapproval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/hookguard/hookguard/pkg/logger"
)

// ChannelKind tags a NotificationChannel variant.
type ChannelKind string

const (
	KindConsole ChannelKind = "console"
	KindLog     ChannelKind = "log"
	KindEmail   ChannelKind = "email"
	KindSlack   ChannelKind = "slack"
	KindTeams   ChannelKind = "teams"
	KindDiscord ChannelKind = "discord"
)

// NotificationChannel is a workflow-level notification sink, distinct
// from hookmodel.NotificationChannel (which only configures a single
// hook action's target, not the approval workflow's reminder fanout).
type NotificationChannel interface {
	Kind() ChannelKind
}

// ConsoleChannel prints reminders to stdout.
type ConsoleChannel struct{}

func (ConsoleChannel) Kind() ChannelKind { return KindConsole }

// LogChannel routes reminders through the structured logger.
type LogChannel struct{}

func (LogChannel) Kind() ChannelKind { return KindLog }

// EmailChannel notifies a fixed recipient list. Sending is delegated to
// an injected EmailSender since the runtime carries no SMTP client of
// its own.
type EmailChannel struct {
	Recipients []string
}

func (EmailChannel) Kind() ChannelKind { return KindEmail }

// EmailSender delivers an approval reminder by email. Callers supply a
// concrete implementation (SMTP, SES, SendGrid, ...); none ships by
// default since no mail dependency is grounded anywhere in the pack.
type EmailSender interface {
	SendEmail(recipients []string, subject, body string) error
}

// SlackChannel posts to a Slack incoming webhook.
type SlackChannel struct {
	WebhookURL string
	Channel    string
}

func (SlackChannel) Kind() ChannelKind { return KindSlack }

// TeamsChannel posts to a Microsoft Teams incoming webhook.
type TeamsChannel struct {
	WebhookURL string
}

func (TeamsChannel) Kind() ChannelKind { return KindTeams }

// DiscordChannel posts to a Discord channel webhook.
type DiscordChannel struct {
	WebhookURL string
	ChannelID  string
}

func (DiscordChannel) Kind() ChannelKind { return KindDiscord }

// notifier fans a reminder message out across a Request's configured
// channels, logging (rather than failing) individual sink errors —
// matching the original's "warn and continue" notification loop.
type notifier struct {
	log        logger.Logger
	httpClient *http.Client
	emailer    EmailSender
}

func newNotifier(log logger.Logger, emailer EmailSender) *notifier {
	return &notifier{log: log, httpClient: http.DefaultClient, emailer: emailer}
}

func (n *notifier) send(channels []NotificationChannel, request *Request, message string) {
	for _, ch := range channels {
		if err := n.sendOne(ch, request, message); err != nil {
			n.log.Warn("failed to send approval notification", map[string]interface{}{
				"channel": string(ch.Kind()),
				"request": request.ID,
				"error":   err.Error(),
			})
		}
	}
}

func (n *notifier) sendOne(ch NotificationChannel, request *Request, message string) error {
	switch c := ch.(type) {
	case ConsoleChannel:
		fmt.Println("APPROVAL REQUIRED")
		fmt.Printf("ID: %s\n", request.ID)
		fmt.Printf("Type: %s\n", request.RequestType)
		fmt.Printf("Description: %s\n", request.Description)
		fmt.Printf("Priority: %s\n", request.Priority)
		fmt.Printf("Message: %s\n", message)
		if request.ExpiresAt != nil {
			fmt.Printf("Expires: %s\n", request.ExpiresAt.Format("2006-01-02 15:04:05 UTC"))
		}
		fmt.Println("---")
		return nil

	case LogChannel:
		n.log.Info("approval notification", map[string]interface{}{
			"approval_id":  request.ID,
			"request_type": request.RequestType,
			"priority":     request.Priority.String(),
			"message":      message,
		})
		return nil

	case EmailChannel:
		if n.emailer == nil {
			return fmt.Errorf("no EmailSender configured")
		}
		return n.emailer.SendEmail(c.Recipients, "Approval required: "+request.RequestType, message)

	case SlackChannel:
		return slack.PostWebhook(c.WebhookURL, &slack.WebhookMessage{
			Channel: c.Channel,
			Text:    fmt.Sprintf("*Approval required*: %s\n%s", request.RequestType, message),
		})

	case TeamsChannel:
		return n.postWebhookJSON(c.WebhookURL, map[string]interface{}{"text": message})

	case DiscordChannel:
		return n.postWebhookJSON(c.WebhookURL, map[string]interface{}{"content": message})

	default:
		return fmt.Errorf("unknown notification channel kind %q", ch.Kind())
	}
}

func (n *notifier) postWebhookJSON(url string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
