package agentui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// chunkReader delivers its input in fixed-size chunks so tests can split
// lines at arbitrary byte boundaries.
type chunkReader struct {
	data []byte
	size int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(r.data) || n > len(p) {
		n = min(len(r.data), len(p))
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestLineStreamSplitsAcrossChunks(t *testing.T) {
	text := "alpha line\nbeta line\ngamma line\n"
	stream := NewLineStream(&chunkReader{data: []byte(text), size: 7})

	lines, err := stream.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	want := []string{"alpha line", "beta line", "gamma line"}
	for i, w := range want {
		if lines[i].Message != w {
			t.Errorf("Line %d: expected %q, got %q", i, lines[i].Message, w)
		}
	}
	if stream.Text() != text {
		t.Errorf("Text() must accumulate raw bytes, got %q", stream.Text())
	}
}

func TestLineStreamFlushesTrailingPartial(t *testing.T) {
	stream := NewLineStream(strings.NewReader("complete\nunterminated tail"))

	lines, err := stream.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected trailing line flushed at EOF, got %d lines", len(lines))
	}
	if lines[1].Message != "unterminated tail" {
		t.Errorf("Unexpected tail %q", lines[1].Message)
	}
}

func TestLineStreamEventLines(t *testing.T) {
	text := `[WorkflowStarted] {"created_at":1,"workflow_id":"w","run_id":"r","workflow_name":"demo"}` + "\n" +
		`[StepStarted] {"created_at":2,"workflow_id":"w","run_id":"r","step_id":"s1","step_name":"fetch","step_index":0}` + "\n"
	stream := NewLineStream(strings.NewReader(text))

	first, err := stream.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Event == nil || first.Event.Kind != EventWorkflowStarted {
		t.Errorf("Expected WorkflowStarted, got %+v", first)
	}

	second, err := stream.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second.Event == nil || second.Event.StepID != "s1" {
		t.Errorf("Expected step event, got %+v", second)
	}

	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
	// Next keeps returning EOF once finished.
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF on repeated call, got %v", err)
	}
}

func TestLineStreamExecutionGrowsMonotonically(t *testing.T) {
	lines := []string{
		`[WorkflowStarted] {"created_at":10,"workflow_id":"w","run_id":"r","workflow_name":"demo"}`,
		`[StepStarted] {"created_at":11,"workflow_id":"w","run_id":"r","step_id":"s1","step_name":"fetch","step_index":0}`,
		`[StepCompleted] {"created_at":12,"workflow_id":"w","run_id":"r","step_id":"s1","step_response":"done"}`,
		`[WorkflowCompleted] {"created_at":13,"workflow_id":"w","run_id":"r"}`,
	}
	stream := NewLineStream(strings.NewReader(strings.Join(lines, "\n")))

	var prevSteps int
	for {
		_, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		exec := stream.Execution()
		if exec == nil {
			t.Fatal("Expected an execution once the start event is consumed")
		}
		if len(exec.Steps) < prevSteps {
			t.Errorf("Step count regressed: %d -> %d", prevSteps, len(exec.Steps))
		}
		prevSteps = len(exec.Steps)
	}

	final := stream.Execution()
	if final.Status != RunCompleted {
		t.Errorf("Expected completed run, got %q", final.Status)
	}
	if step := final.Step("s1"); step == nil || step.Status != StepCompleted {
		t.Errorf("Expected completed step, got %+v", step)
	}
}

func TestClientStream(t *testing.T) {
	lines := []string{
		`[WorkflowStarted] {"created_at":1,"workflow_id":"w","run_id":"r","workflow_name":"live"}`,
		`[StepStarted] {"created_at":2,"workflow_id":"w","run_id":"r","step_id":"s1","step_name":"go","step_index":0}`,
		`[StepCompleted] {"created_at":3,"workflow_id":"w","run_id":"r","step_id":"s1"}`,
		`[WorkflowCompleted] {"created_at":4,"workflow_id":"w","run_id":"r"}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("Response writer must support flushing")
			return
		}
		for _, line := range lines {
			io.WriteString(w, line+"\n")
			flusher.Flush()
			time.Sleep(5 * time.Millisecond)
		}
	}))
	defer server.Close()

	client := newTestClient()
	stream, err := client.Stream(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	got, err := stream.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(got) != len(lines) {
		t.Fatalf("Expected %d lines, got %d", len(lines), len(got))
	}
	if exec := stream.Execution(); exec == nil || exec.Status != RunCompleted {
		t.Errorf("Expected completed execution, got %+v", exec)
	}
}

func TestClientStreamTerminalStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"unknown run"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient()
	_, err := client.Stream(context.Background(), server.URL, nil)
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected terminal HTTP error, got %v", err)
	}
	if clientErr.Message != "unknown run" {
		t.Errorf("Expected decoded error detail, got %q", clientErr.Message)
	}
}

func TestClientStreamClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		io.WriteString(w, "first\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient()
	stream, err := client.Stream(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	line, err := stream.Next()
	if err != nil || line.Message != "first" {
		t.Fatalf("Expected first line, got %v %v", line, err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := stream.Next(); err == nil {
		t.Error("Expected error reading a closed stream")
	}
}
