package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Strob0t/PlanForge/internal/port/notifier"
)

// Compile-time interface check.
var _ notifier.Notifier = (*Notifier)(nil)

func TestNotifierName(t *testing.T) {
	n := NewNotifier("", "")
	if n.Name() != "slack" {
		t.Fatalf("expected 'slack', got %q", n.Name())
	}
	if !n.Capabilities().Fields {
		t.Fatal("expected field support")
	}
}

func TestSendNotConfigured(t *testing.T) {
	n := NewNotifier("", "")
	err := n.Send(context.Background(), notifier.Notification{Title: "test"})
	if !errors.Is(err, notifier.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendBlockKitPayload(t *testing.T) {
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "#plans")
	err := n.Send(context.Background(), notifier.Notification{
		Title:   "Todo App",
		Message: "1. MVP (4 weeks)",
		Level:   "info",
		Source:  "plan.exported",
		Fields:  []notifier.Field{{Name: "Phases", Value: "2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Channel != "#plans" || got.Text != "Todo App" {
		t.Errorf("unexpected envelope %+v", got)
	}
	if len(got.Blocks) != 4 {
		t.Fatalf("expected header, section, fields and context blocks, got %d", len(got.Blocks))
	}
	if got.Blocks[0].Type != "header" || !strings.HasSuffix(got.Blocks[0].Text.Text, "Todo App") {
		t.Errorf("unexpected header %+v", got.Blocks[0])
	}
	if got.Blocks[2].Fields[0].Text != "*Phases*\n2" {
		t.Errorf("unexpected fields %+v", got.Blocks[2].Fields)
	}
	if got.Blocks[3].Type != "context" || len(got.Blocks[3].Elements) != 1 {
		t.Errorf("unexpected context block %+v", got.Blocks[3])
	}
}

func TestBuildMessageTruncates(t *testing.T) {
	msg := buildMessage("", notifier.Notification{
		Title:   strings.Repeat("t", 400),
		Message: strings.Repeat("m", 5000),
	})
	if n := len([]rune(msg.Blocks[0].Text.Text)); n > maxHeaderLen {
		t.Errorf("header too long: %d", n)
	}
	if n := len([]rune(msg.Blocks[1].Text.Text)); n > maxSectionLen {
		t.Errorf("section too long: %d", n)
	}
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no_service"))
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL, "").Send(context.Background(), notifier.Notification{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "no_service") {
		t.Fatalf("expected API error with body, got %v", err)
	}
}

func TestRegistered(t *testing.T) {
	if !notifier.Has("slack") {
		t.Fatal("expected slack to be registered")
	}
	if _, err := notifier.New("slack", map[string]string{}); !errors.Is(err, notifier.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without webhook, got %v", err)
	}
	n, err := notifier.New("slack", map[string]string{"webhookUrl": "https://hooks.slack.test/x", "channel": "#c"})
	if err != nil || n.Name() != "slack" {
		t.Fatalf("unexpected factory result %v %v", n, err)
	}
}
