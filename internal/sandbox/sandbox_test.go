package sandbox

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"squad/internal/parser"
)

func newTestSandbox(t *testing.T, approve ApproveFunc) *Sandbox {
	t.Helper()
	s, err := New(t.TempDir(), 10*time.Second, approve)
	if err != nil {
		t.Fatalf("could not create sandbox: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExecuteNoBlocks(t *testing.T) {
	s := newTestSandbox(t, nil)
	out, err := s.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No code blocks") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestExecuteShellBlock(t *testing.T) {
	s := newTestSandbox(t, nil)
	out, err := s.Execute(context.Background(), []parser.CodeBlock{
		{Language: "bash", Code: "echo hello"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected command output, got %q", out)
	}
}

func TestExecuteStopsAfterFirstFailure(t *testing.T) {
	s := newTestSandbox(t, nil)
	out, err := s.Execute(context.Background(), []parser.CodeBlock{
		{Language: "sh", Code: "exit 3"},
		{Language: "sh", Code: "echo never-reached"},
	})
	if err != nil {
		t.Fatalf("execution failures must not be errors: %v", err)
	}
	if !strings.Contains(out, "command failed") {
		t.Errorf("failure not reported in output: %q", out)
	}
	if strings.Contains(out, "never-reached") {
		t.Errorf("second block ran after a failure: %q", out)
	}
}

func TestExecuteSkipsUnknownLanguage(t *testing.T) {
	s := newTestSandbox(t, nil)
	out, err := s.Execute(context.Background(), []parser.CodeBlock{
		{Language: "rust", Code: "fn main() {}"},
		{Language: "sh", Code: "echo still-runs"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "no runner for language") {
		t.Errorf("skip note missing: %q", out)
	}
	if !strings.Contains(out, "still-runs") {
		t.Errorf("later blocks should still run: %q", out)
	}
}

func TestExecuteRejection(t *testing.T) {
	asked := false
	s := newTestSandbox(t, func(code string) bool {
		asked = true
		if !strings.Contains(code, "echo hi") {
			t.Errorf("approval prompt missing the code: %q", code)
		}
		return false
	})
	out, err := s.Execute(context.Background(), []parser.CodeBlock{
		{Language: "sh", Code: "echo hi"},
	})
	if err != nil {
		t.Fatalf("rejection must not be an error: %v", err)
	}
	if !asked {
		t.Error("approve func was never consulted")
	}
	if out != RejectionResult {
		t.Errorf("output = %q, want the rejection result", out)
	}
}

func TestExecuteRunsInWorkDir(t *testing.T) {
	s := newTestSandbox(t, nil)
	out, err := s.Execute(context.Background(), []parser.CodeBlock{
		{Language: "sh", Code: "pwd"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, s.WorkDir()) {
		t.Errorf("block did not run in the sandbox workdir: %q", out)
	}
}

func TestCloseRemovesWorkDir(t *testing.T) {
	s, err := New(t.TempDir(), time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	dir := s.WorkDir()
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workdir %s still exists after Close", dir)
	}
}
