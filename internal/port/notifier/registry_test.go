package notifier

import (
	"context"
	"slices"
	"testing"
)

type fakeNotifier struct{ target string }

func (f *fakeNotifier) Name() string { return "fake" }
func (f *fakeNotifier) Capabilities() Capabilities { return Capabilities{} }
func (f *fakeNotifier) Send(context.Context, Notification) error { return nil }

func TestRegistry(t *testing.T) {
	Register("registry-test", func(cfg map[string]string) (Notifier, error) {
		if cfg["target"] == "" {
			return nil, ErrNotConfigured
		}
		return &fakeNotifier{target: cfg["target"]}, nil
	})

	if !Has("registry-test") {
		t.Fatal("expected registered notifier")
	}
	if !slices.Contains(Available(), "registry-test") {
		t.Fatalf("expected registry-test in %v", Available())
	}

	n, err := New("registry-test", map[string]string{"target": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if n.(*fakeNotifier).target != "x" {
		t.Fatal("config not passed to factory")
	}
	if _, err := New("registry-test", nil); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := New("no-such-notifier", nil); err == nil {
		t.Fatal("expected unknown provider error")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("registry-dup", func(map[string]string) (Notifier, error) { return nil, nil })
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("registry-dup", func(map[string]string) (Notifier, error) { return nil, nil })
}

func TestRegistryZeroValue(t *testing.T) {
	var r Registry
	if len(r.Names()) != 0 {
		t.Fatalf("expected empty registry, got %v", r.Names())
	}
	if _, err := r.Build("fake", nil); err == nil {
		t.Fatal("expected unknown provider error")
	}
	r.Register("fake", func(map[string]string) (Notifier, error) { return &fakeNotifier{}, nil })
	n, err := r.Build("fake", nil)
	if err != nil || n.Name() != "fake" {
		t.Fatalf("Build: %v %v", n, err)
	}
	if Has("fake") {
		t.Fatal("local registry must not leak into the process-wide one")
	}
}
