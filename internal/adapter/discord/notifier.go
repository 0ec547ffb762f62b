// Package discord delivers plan summaries to Discord webhooks as embeds.
package discord

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
	providerName = "discord"

	// Embed limits.
	maxTitleLen       = 256
	maxDescriptionLen = 4096
	maxFields         = 25
	maxFieldValueLen  = 1024
)

// Notifier sends notifications to Discord via incoming webhook.
type Notifier struct {
	webhookURL string
	username   string
	httpClient *http.Client
}

// NewNotifier creates a Discord notifier. username overrides the webhook's
// display name when set.
func NewNotifier(webhookURL, username string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		username:   username,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Name() string { return providerName }

func (n *Notifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{RichFormatting: true, Fields: true}
}

type discordWebhook struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

func buildWebhook(username string, nt notifier.Notification) discordWebhook {
	embed := discordEmbed{
		Title:       truncate(nt.Title, maxTitleLen),
		Description: truncate(nt.Message, maxDescriptionLen),
		Color:       levelColor(nt.Level),
	}
	for i, f := range nt.Fields {
		if i == maxFields {
			break
		}
		embed.Fields = append(embed.Fields, discordField{
			Name:  truncate(f.Name, maxTitleLen),
			Value: truncate(f.Value, maxFieldValueLen),
		})
	}
	if nt.Source != "" {
		embed.Footer = &discordFooter{Text: "Source: " + nt.Source}
	}
	return discordWebhook{Username: username, Embeds: []discordEmbed{embed}}
}

func (n *Notifier) Send(ctx context.Context, nt notifier.Notification) error {
	if n.webhookURL == "" {
		return notifier.ErrNotConfigured
	}

	body, err := json.Marshal(buildWebhook(n.username, nt))
	if err != nil {
		return fmt.Errorf("discord marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req) //nolint:gosec // webhook URL validated by the integration catalog
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Discord returns 204 on success
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord API %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func levelColor(level string) int {
	switch level {
	case "success":
		return 0x2ECC71
	case "error":
		return 0xE74C3C
	case "warning":
		return 0xF39C12
	default:
		return 0x3498DB
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
