package config

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolver_String_Precedence(t *testing.T) {
	resolver := NewResolver(zap.NewNop())
	envKey := "VINFO_TEST_TOOL"

	if got := resolver.String("tool", envKey, "", false, "composer"); got != "composer" {
		t.Errorf("expected default 'composer', got %q", got)
	}
	if got := resolver.String("tool", envKey, "composer2", true, "composer"); got != "composer2" {
		t.Errorf("expected cli value 'composer2', got %q", got)
	}

	t.Setenv(envKey, "  /opt/bin/composer ")
	if got := resolver.String("tool", envKey, "composer2", true, "composer"); got != "/opt/bin/composer" {
		t.Errorf("expected trimmed env value, got %q", got)
	}
}

func TestResolver_String_LogsConflict(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	resolver := NewResolver(zap.New(core))

	envKey := "VINFO_TEST_DEPENDENCY"
	t.Setenv(envKey, "env-value")

	val := resolver.String("dependency", envKey, "cli-value", true, "default")

	if val != "env-value" {
		t.Errorf("expected env value 'env-value', got %q", val)
	}

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}

	entry := logs.All()[0]
	if entry.Message != "config: conflict for dependency" {
		t.Errorf("unexpected log message: %q", entry.Message)
	}

	fields := entry.ContextMap()
	if fields["env"] != "env-value" {
		t.Errorf("expected env field to be 'env-value', got %q", fields["env"])
	}
	if fields["cli"] != "cli-value" {
		t.Errorf("expected cli field to be 'cli-value', got %q", fields["cli"])
	}
}

func TestResolver_String_NoConflictWhenEqual(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	resolver := NewResolver(zap.New(core))

	envKey := "VINFO_TEST_PROFILE"
	t.Setenv(envKey, "minimal")

	if got := resolver.String("profile", envKey, "minimal", true, "full"); got != "minimal" {
		t.Errorf("expected 'minimal', got %q", got)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no log entries, got %d", logs.Len())
	}
}

func TestResolver_Bool(t *testing.T) {
	resolver := NewResolver(nil)
	envKey := "VINFO_TEST_UTC"

	got, err := resolver.Bool("utc", envKey, true, true, false)
	if err != nil || !got {
		t.Fatalf("expected cli value true, got %v (err %v)", got, err)
	}

	t.Setenv(envKey, "false")
	got, err = resolver.Bool("utc", envKey, true, true, false)
	if err != nil || got {
		t.Fatalf("expected env value false, got %v (err %v)", got, err)
	}

	t.Setenv(envKey, "sometimes")
	if _, err := resolver.Bool("utc", envKey, false, false, false); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

func TestResolver_Duration(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	resolver := NewResolver(zap.New(core))
	envKey := "VINFO_TEST_TIMEOUT"

	got, err := resolver.Duration("timeout", envKey, 0, false, 10*time.Second)
	if err != nil || got != 10*time.Second {
		t.Fatalf("expected default 10s, got %v (err %v)", got, err)
	}

	t.Setenv(envKey, "1m30s")
	got, err = resolver.Duration("timeout", envKey, 5*time.Second, true, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 90*time.Second {
		t.Errorf("expected env value 1m30s, got %v", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 conflict log entry, got %d", logs.Len())
	}
	if cli := logs.All()[0].ContextMap()["cli"]; cli != "5s" {
		t.Errorf("expected cli field '5s', got %q", cli)
	}

	t.Setenv(envKey, "soon")
	if _, err := resolver.Duration("timeout", envKey, 0, false, 0); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestResolver_StringSlice(t *testing.T) {
	resolver := NewResolver(nil)
	envKey := "VINFO_TEST_FIELDS"

	got := resolver.StringSlice("fields", envKey, []string{" name ", ""}, true, nil)
	if len(got) != 1 || got[0] != "name" {
		t.Fatalf("expected sanitized cli value, got %v", got)
	}

	t.Setenv(envKey, "version, date,,")
	got = resolver.StringSlice("fields", envKey, nil, false, nil)
	if len(got) != 2 || got[0] != "version" || got[1] != "date" {
		t.Fatalf("expected env values, got %v", got)
	}
}
