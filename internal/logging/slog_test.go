package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{
			name:     "empty token",
			token:    "",
			expected: "<empty>",
		},
		{
			name:     "short token",
			token:    "abc",
			expected: "[token:3 chars]",
		},
		{
			name:     "long token",
			token:    strings.Repeat("x", 64),
			expected: "[token:64 chars]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeToken(tt.token)
			if result != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, result, tt.expected)
			}
			if tt.token != "" && strings.Contains(result, tt.token) {
				t.Errorf("SanitizeToken leaked token content: %q", result)
			}
		})
	}
}

func TestErr(t *testing.T) {
	// nil error must not produce an "error" attribute
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("test message", Err(nil))
	if strings.Contains(buf.String(), "error=") {
		t.Errorf("Err(nil) produced an error attribute: %s", buf.String())
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	WithOperation(logger, "token.refresh").Info("refreshed")
	if !strings.Contains(buf.String(), "operation=token.refresh") {
		t.Errorf("expected operation attribute in output, got %s", buf.String())
	}
}

func TestSetupDebugLevel(t *testing.T) {
	logger := Setup(Options{Debug: true})
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if !logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("expected debug level to be enabled")
	}
}
