package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })
	return &buf
}

func TestNew_LambdaDimension(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "neuroscan-lambda")

	r := New(Namespace)
	if r.dimensions["FunctionName"] != "neuroscan-lambda" {
		t.Errorf("FunctionName dimension = %q", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	buf := captureOutput(t)

	New(Namespace).
		Dimension("EditResult", "success").
		Duration("EditLatencyMs", 1500*time.Millisecond).
		Count("EditCount").
		Property("model", "gemini-2.5-flash-image").
		Flush()

	line := strings.TrimSpace(buf.String())
	if strings.Count(line, "\n") != 0 {
		t.Fatalf("expected a single line, got %q", line)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(line), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, line)
	}

	if doc["EditResult"] != "success" {
		t.Errorf("EditResult = %v", doc["EditResult"])
	}
	if doc["EditLatencyMs"] != float64(1500) {
		t.Errorf("EditLatencyMs = %v", doc["EditLatencyMs"])
	}
	if doc["model"] != "gemini-2.5-flash-image" {
		t.Errorf("model property = %v", doc["model"])
	}

	aws, ok := doc["_aws"].(map[string]any)
	if !ok {
		t.Fatal("missing _aws directive")
	}
	cw := aws["CloudWatchMetrics"].([]any)[0].(map[string]any)
	if cw["Namespace"] != Namespace {
		t.Errorf("Namespace = %v", cw["Namespace"])
	}
	if n := len(cw["Metrics"].([]any)); n != 2 {
		t.Errorf("expected 2 metric definitions, got %d", n)
	}
}

func TestRecorder_EmptyFlushWritesNothing(t *testing.T) {
	buf := captureOutput(t)

	New(Namespace).Dimension("EditResult", "noop").Flush()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSetOutputNilDisables(t *testing.T) {
	SetOutput(nil)
	// Must not panic or write anywhere.
	New(Namespace).Count("EditCount").Flush()
}

func TestDisableUnlessLambda(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	buf := captureOutput(t)
	DisableUnlessLambda()
	New(Namespace).Count("EditCount").Flush()
	if buf.Len() != 0 {
		t.Errorf("local process emitted EMF: %s", buf.String())
	}

	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "neuroscan-lambda")
	SetOutput(buf)
	DisableUnlessLambda()
	New(Namespace).Count("EditCount").Flush()
	if buf.Len() == 0 {
		t.Error("Lambda process emitted nothing")
	}
}
