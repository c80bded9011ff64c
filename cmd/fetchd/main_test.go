package main

import "testing"

func TestRunUnknownCommand(t *testing.T) {
	if code := run([]string{"frobnicate"}); code != ExitInvalidArgs {
		t.Errorf("exit code = %d, want %d", code, ExitInvalidArgs)
	}
}

func TestRunNoArgs(t *testing.T) {
	if code := run(nil); code != ExitInvalidArgs {
		t.Errorf("exit code = %d, want %d", code, ExitInvalidArgs)
	}
}

func TestHeaderFlags(t *testing.T) {
	h := headerFlags{}
	if err := h.Set("Authorization: Bearer abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if h["Authorization"] != "Bearer abc" {
		t.Errorf("parsed value = %q", h["Authorization"])
	}
	if err := h.Set("no-colon-here"); err == nil {
		t.Error("expected error for malformed header")
	}
}
