package secrets_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/Strob0t/PlanForge/internal/secrets"
)

// staticLoader returns a Loader serving *vals, failing when *fail is set.
func staticLoader(vals *map[string]string, fail *bool) secrets.Loader {
	return func() (map[string]string, error) {
		if fail != nil && *fail {
			return nil, errors.New("source unavailable")
		}
		out := make(map[string]string, len(*vals))
		for k, v := range *vals {
			out[k] = v
		}
		return out, nil
	}
}

func TestNewVault(t *testing.T) {
	vals := map[string]string{"GEMINI_API_KEY": "AIzaSyExample", "SLACK_WEBHOOK_URL": "https://hooks.slack.test/T1"}
	v, err := secrets.NewVault(staticLoader(&vals, nil))
	if err != nil {
		t.Fatal(err)
	}
	if v.Get("GEMINI_API_KEY") != "AIzaSyExample" {
		t.Errorf("unexpected key %q", v.Get("GEMINI_API_KEY"))
	}
	if v.Get("DISCORD_WEBHOOK_URL") != "" {
		t.Error("unknown key should be empty")
	}
	if got := v.Keys(); !slices.Equal(got, []string{"GEMINI_API_KEY", "SLACK_WEBHOOK_URL"}) {
		t.Errorf("unexpected keys %v", got)
	}

	fail := true
	if _, err := secrets.NewVault(staticLoader(&vals, &fail)); err == nil || !strings.Contains(err.Error(), "initial secret load") {
		t.Fatalf("expected initial load error, got %v", err)
	}
}

func TestVaultReload(t *testing.T) {
	vals := map[string]string{"GEMINI_API_KEY": "old-key-value"}
	fail := false
	v, _ := secrets.NewVault(staticLoader(&vals, &fail))

	vals = map[string]string{"GEMINI_API_KEY": "new-key-value"}
	if err := v.Reload(); err != nil {
		t.Fatal(err)
	}
	if v.Get("GEMINI_API_KEY") != "new-key-value" {
		t.Fatalf("reload not applied: %q", v.Get("GEMINI_API_KEY"))
	}

	fail = true
	if err := v.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if v.Get("GEMINI_API_KEY") != "new-key-value" {
		t.Fatal("failed reload must keep previous values")
	}
}

func TestVaultConcurrentReadsDuringReload(t *testing.T) {
	vals := map[string]string{"GEMINI_API_KEY": "value-a"}
	v, _ := secrets.NewVault(staticLoader(&vals, nil))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = v.Get("GEMINI_API_KEY")
			_ = v.RedactString("contains value-a")
		}()
		go func() {
			defer wg.Done()
			_ = v.Reload()
		}()
	}
	wg.Wait()
}

func TestVaultRedaction(t *testing.T) {
	vals := map[string]string{
		"GEMINI_API_KEY":        "AIzaSyExample",
		"SLACK_WEBHOOK_URL":     "https://hooks.slack.test/T1",
		"PLANFORGE_MCP_API_KEY": "abc",
	}
	v, _ := secrets.NewVault(staticLoader(&vals, nil))

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"long secret", v.Redacted("GEMINI_API_KEY"), "AI****"},
		{"short secret", v.Redacted("PLANFORGE_MCP_API_KEY"), "****"},
		{"missing secret", v.Redacted("NOPE"), ""},
		{
			"string with secrets",
			v.RedactString("POST https://hooks.slack.test/T1 failed with key=AIzaSyExample"),
			"POST ht**** failed with key=AI****",
		},
		{"short secrets are not replaced", v.RedactString("abc is a common word"), "abc is a common word"},
		{"nothing to redact", v.RedactString("plain message"), "plain message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestVault_Source(t *testing.T) {
	val := "first"
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"GEMINI_API_KEY": val}, nil
	})
	get := v.Source("GEMINI_API_KEY")
	if get() != "first" {
		t.Fatalf("expected first, got %q", get())
	}

	val = "second"
	if err := v.Reload(); err != nil {
		t.Fatal(err)
	}
	if get() != "second" {
		t.Fatalf("expected source to see reloaded value, got %q", get())
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("PF_TEST_SECRET", "mysecret")
	loader := secrets.EnvLoader("PF_TEST_SECRET", "PF_MISSING_SECRET")

	vals, err := loader()
	if err != nil {
		t.Fatalf("EnvLoader failed: %v", err)
	}
	if vals["PF_TEST_SECRET"] != "mysecret" {
		t.Fatalf("expected 'mysecret', got %q", vals["PF_TEST_SECRET"])
	}
	if _, ok := vals["PF_MISSING_SECRET"]; ok {
		t.Fatal("expected missing env var to be omitted")
	}
}

func TestDotenvLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "GEMINI_API_KEY=from-file\nSLACK_WEBHOOK_URL=https://hooks.slack.test/x\nOTHER=ignored\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/env")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.test/env")

	vals, err := secrets.DotenvLoader(path, "GEMINI_API_KEY", "SLACK_WEBHOOK_URL", "DISCORD_WEBHOOK_URL")()
	if err != nil {
		t.Fatalf("DotenvLoader: %v", err)
	}
	if vals["GEMINI_API_KEY"] != "from-file" {
		t.Errorf("expected file value, got %q", vals["GEMINI_API_KEY"])
	}
	if vals["SLACK_WEBHOOK_URL"] != "https://hooks.slack.test/x" {
		t.Errorf("expected file to win over env, got %q", vals["SLACK_WEBHOOK_URL"])
	}
	if vals["DISCORD_WEBHOOK_URL"] != "https://discord.test/env" {
		t.Errorf("expected env fallback, got %q", vals["DISCORD_WEBHOOK_URL"])
	}
	if _, ok := vals["OTHER"]; ok {
		t.Error("unrequested keys must be skipped")
	}
}

func TestDotenvLoaderMissingFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	vals, err := secrets.DotenvLoader(filepath.Join(t.TempDir(), "missing.env"), "GEMINI_API_KEY")()
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if vals["GEMINI_API_KEY"] != "from-env" {
		t.Errorf("unexpected value %q", vals["GEMINI_API_KEY"])
	}
}
