package utils

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestLoadMutedTerms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muted.txt")
	content := "# spoilers and leaks\nLeaked\n\n  spoiler  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	muted, err := LoadMutedTerms(path)
	if err != nil {
		t.Fatalf("LoadMutedTerms failed: %v", err)
	}
	if muted.Len() != 2 {
		t.Fatalf("Expected 2 terms, got %d", muted.Len())
	}

	matched, term := muted.Match("Climax SPOILER inside")
	if !matched || term != "spoiler" {
		t.Errorf("Expected match on 'spoiler', got %v %q", matched, term)
	}
	if matched, _ := muted.Match("Official trailer"); matched {
		t.Error("Unexpected match on clean text")
	}
}

func TestLoadMutedTermsMissingFile(t *testing.T) {
	muted, err := LoadMutedTerms(filepath.Join(t.TempDir(), "absent.txt"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if matched, _ := muted.Match("anything"); matched {
		t.Error("Empty list should match nothing")
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn", "json")

	logger.Info().Msg("hidden")
	logger.Warn().Str("platform", "twitter").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info message should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"platform":"twitter"`) {
		t.Errorf("Expected structured field in output: %s", out)
	}
}

func TestTracerProviderLogsSpans(t *testing.T) {
	var buf bytes.Buffer
	provider := NewTracerProvider(NewLoggerTo(&buf, "debug", "json"))
	defer provider.Shutdown(context.Background())

	_, span := provider.Tracer("test").Start(context.Background(), "ingest")
	span.SetAttributes(attribute.String("platform", "youtube"))
	span.End()

	out := buf.String()
	if !strings.Contains(out, `"span":"ingest"`) || !strings.Contains(out, `"platform":"youtube"`) {
		t.Errorf("Expected span to be logged, got %s", out)
	}
}
