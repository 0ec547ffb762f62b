// Package slack delivers plan summaries to Slack incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/PlanForge/internal/port/notifier"
)

const (
	providerName = "slack"

	// Block Kit limits.
	maxHeaderLen  = 150
	maxSectionLen = 3000
	maxFields     = 10
)

// Notifier sends notifications to Slack via incoming webhook.
type Notifier struct {
	webhookURL string
	channel    string
	httpClient *http.Client
}

// NewNotifier creates a Slack notifier. channel overrides the webhook's
// default channel when set.
func NewNotifier(webhookURL, channel string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		channel:    channel,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Name() string { return providerName }

func (n *Notifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{RichFormatting: true, Fields: true}
}

// slackMessage is the Slack Block Kit message payload.
type slackMessage struct {
	Channel string       `json:"channel,omitempty"`
	Text    string       `json:"text"`
	Blocks  []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildMessage(channel string, nt notifier.Notification) slackMessage {
	header := truncate(fmt.Sprintf("%s %s", levelEmoji(nt.Level), nt.Title), maxHeaderLen)
	msg := slackMessage{
		Channel: channel,
		Text:    nt.Title,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: header}},
		},
	}
	if nt.Message != "" {
		msg.Blocks = append(msg.Blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: truncate(nt.Message, maxSectionLen)},
		})
	}

	if len(nt.Fields) > 0 {
		block := slackBlock{Type: "section"}
		for i, f := range nt.Fields {
			if i == maxFields {
				break
			}
			block.Fields = append(block.Fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s", f.Name, f.Value)})
		}
		msg.Blocks = append(msg.Blocks, block)
	}

	if nt.Source != "" {
		msg.Blocks = append(msg.Blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("_Source: %s_", nt.Source)}},
		})
	}
	return msg
}

func (n *Notifier) Send(ctx context.Context, nt notifier.Notification) error {
	if n.webhookURL == "" {
		return notifier.ErrNotConfigured
	}

	body, err := json.Marshal(buildMessage(n.channel, nt))
	if err != nil {
		return fmt.Errorf("slack marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req) //nolint:gosec // webhook URL validated by the integration catalog
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("slack API %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func levelEmoji(level string) string {
	switch level {
	case "success":
		return ":white_check_mark:"
	case "error":
		return ":x:"
	case "warning":
		return ":warning:"
	default:
		return ":clipboard:"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
