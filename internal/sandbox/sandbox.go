// Package sandbox runs fenced code blocks in a cycle-scoped working
// directory. The directory is created fresh for every cycle and removed on
// Close, so no filesystem state leaks across supervisor restarts.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"squad/internal/logger"
	"squad/internal/parser"
)

const DefaultTimeout = 60 * time.Second

// RejectionResult is appended as the executor's turn output when the
// operator declines to run the code. Not a failure.
const RejectionResult = "Execution was not approved by the operator. Revise the code or take a different approach."

// ApproveFunc is consulted with the full code text before anything runs.
type ApproveFunc func(code string) bool

type Sandbox struct {
	workDir string
	timeout time.Duration
	approve ApproveFunc
}

// New creates a fresh working directory under baseDir. A nil approve runs
// everything without asking.
func New(baseDir string, timeout time.Duration, approve ApproveFunc) (*Sandbox, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create sandbox base dir: %w", err)
	}
	dir, err := os.MkdirTemp(baseDir, "cycle-")
	if err != nil {
		return nil, fmt.Errorf("could not create sandbox workdir: %w", err)
	}
	return &Sandbox{workDir: dir, timeout: timeout, approve: approve}, nil
}

func (s *Sandbox) WorkDir() string { return s.workDir }

// Execute runs the blocks serially, stopping after the first failing one.
// Execution problems (bad code, timeouts, rejection) are conversational:
// they come back as output text, never as an error.
func (s *Sandbox) Execute(ctx context.Context, blocks []parser.CodeBlock) (string, error) {
	if len(blocks) == 0 {
		return "No code blocks found in the last message.", nil
	}

	if s.approve != nil && !s.approve(joinCode(blocks)) {
		logger.Printf("[Sandbox] execution rejected by operator (%d blocks)", len(blocks))
		return RejectionResult, nil
	}

	var sb strings.Builder
	for i, b := range blocks {
		output, failed := s.runBlock(ctx, b)
		lang := b.Language
		if lang == "" {
			lang = "sh"
		}
		fmt.Fprintf(&sb, "[block %d, %s]\n%s\n", i+1, lang, output)
		if failed {
			break
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (s *Sandbox) runBlock(ctx context.Context, b parser.CodeBlock) (string, bool) {
	var name string
	var args []string
	switch b.Language {
	case "", "sh", "shell", "bash":
		name, args = "bash", []string{"-c", b.Code}
	case "python", "python3", "py":
		name, args = "python3", []string{"-c", b.Code}
	default:
		return fmt.Sprintf("(skipped: no runner for language %q)", b.Language), false
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	cmd.Dir = s.workDir
	out, err := cmd.CombinedOutput()

	output := strings.TrimSpace(string(out))
	if cctx.Err() == context.DeadlineExceeded {
		return output + fmt.Sprintf("\n(execution timed out after %s)", s.timeout), true
	}
	if err != nil {
		return output + fmt.Sprintf("\n(command failed: %v)", err), true
	}
	if output == "" {
		output = "(no output)"
	}
	return output, false
}

// Close removes the working directory. Called at the end of every cycle.
func (s *Sandbox) Close() error {
	return os.RemoveAll(s.workDir)
}

func joinCode(blocks []parser.CodeBlock) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Code)
		if !strings.HasSuffix(b.Code, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
