package agentui

import (
	"strings"
	"testing"
	"time"
)

func TestParseLogLineEvent(t *testing.T) {
	line := `[StepStarted] {"created_at":1700000000,"step_id":"s1","step_name":"fetch","step_index":0}`

	parsed := ParseLogLine(line)
	if parsed == nil {
		t.Fatal("ParseLogLine returned nil")
	}
	if parsed.Event == nil {
		t.Fatal("Expected a decoded event")
	}
	if parsed.Event.Kind != EventStepStarted {
		t.Errorf("Expected kind %q, got %q", EventStepStarted, parsed.Event.Kind)
	}
	if parsed.Event.StepID != "s1" || parsed.Event.StepName != "fetch" {
		t.Errorf("Event fields not decoded: %+v", parsed.Event)
	}
	// created_at is authoritative for display time.
	if parsed.Timestamp.Unix() != 1700000000 {
		t.Errorf("Expected timestamp from created_at, got %v", parsed.Timestamp)
	}
}

func TestParseLogLineMalformedEventDegrades(t *testing.T) {
	line := `[StepStarted] {"created_at": not json`

	parsed := ParseLogLine(line)
	if parsed == nil {
		t.Fatal("ParseLogLine returned nil")
	}
	if parsed.Event != nil {
		t.Errorf("Expected no event for malformed JSON, got %+v", parsed.Event)
	}
	if !strings.Contains(parsed.Message, "[StepStarted]") {
		t.Errorf("Expected degraded line to keep raw text, got %q", parsed.Message)
	}
	if parsed.Timestamp.IsZero() {
		t.Error("Expected a synthesized timestamp")
	}
}

func TestParseLogLineTimestamped(t *testing.T) {
	parsed := ParseLogLine("[2024-01-02 15:04:05]   connecting to run   ")
	if parsed == nil {
		t.Fatal("ParseLogLine returned nil")
	}
	if parsed.Event != nil {
		t.Errorf("Expected plain line, got event %+v", parsed.Event)
	}
	if parsed.Message != "connecting to run" {
		t.Errorf("Expected trimmed message, got %q", parsed.Message)
	}
	want := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	if !parsed.Timestamp.Equal(want) {
		t.Errorf("Expected %v, got %v", want, parsed.Timestamp)
	}
}

func TestParseLogLineTimeOnly(t *testing.T) {
	parsed := ParseLogLine("[15:04:05] heartbeat")
	if parsed == nil {
		t.Fatal("ParseLogLine returned nil")
	}
	if parsed.Message != "heartbeat" {
		t.Errorf("Expected message 'heartbeat', got %q", parsed.Message)
	}
	h, m, s := parsed.Timestamp.Clock()
	if h != 15 || m != 4 || s != 5 {
		t.Errorf("Expected 15:04:05, got %02d:%02d:%02d", h, m, s)
	}
	if parsed.Timestamp.Year() != time.Now().Year() {
		t.Errorf("Expected current date for time-only timestamps, got %v", parsed.Timestamp)
	}
}

func TestParseLogLineBare(t *testing.T) {
	before := time.Now().Add(-time.Second)
	parsed := ParseLogLine("plain progress note")
	if parsed == nil {
		t.Fatal("ParseLogLine returned nil")
	}
	if parsed.Message != "plain progress note" {
		t.Errorf("Unexpected message %q", parsed.Message)
	}
	if parsed.Timestamp.Before(before) {
		t.Errorf("Expected current-time stamp, got %v", parsed.Timestamp)
	}
}

func TestParseLogLineBlank(t *testing.T) {
	if parsed := ParseLogLine(""); parsed != nil {
		t.Errorf("Expected nil for blank line, got %+v", parsed)
	}
	if parsed := ParseLogLine("   \t "); parsed != nil {
		t.Errorf("Expected nil for whitespace line, got %+v", parsed)
	}
}

func TestParseLogLineUnknownBracketToken(t *testing.T) {
	parsed := ParseLogLine(`[SomethingElse] {"created_at":1}`)
	if parsed == nil {
		t.Fatal("ParseLogLine returned nil")
	}
	if parsed.Event != nil {
		t.Errorf("Unknown kinds must not decode, got %+v", parsed.Event)
	}
}

func TestParseLogLines(t *testing.T) {
	text := "first\n\n[WorkflowStarted] {\"created_at\":1,\"workflow_id\":\"w\",\"run_id\":\"r\"}\n\nlast\n"

	lines := ParseLogLines(text)
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines (blanks dropped), got %d", len(lines))
	}
	if lines[0].Message != "first" || lines[2].Message != "last" {
		t.Errorf("Line order broken: %q ... %q", lines[0].Message, lines[2].Message)
	}
	if lines[1].Event == nil || lines[1].Event.Kind != EventWorkflowStarted {
		t.Errorf("Expected event line in the middle, got %+v", lines[1])
	}
}

func TestParseLogLinesPrefixStable(t *testing.T) {
	full := "alpha\nbeta\ngamma"
	prefix := "alpha\nbeta"

	fullLines := ParseLogLines(full)
	prefixLines := ParseLogLines(prefix)
	if len(prefixLines) != 2 || len(fullLines) != 3 {
		t.Fatalf("Unexpected line counts: %d / %d", len(prefixLines), len(fullLines))
	}
	for i := range prefixLines {
		if prefixLines[i].Message != fullLines[i].Message {
			t.Errorf("Prefix parse diverged at %d: %q vs %q", i, prefixLines[i].Message, fullLines[i].Message)
		}
	}
}
