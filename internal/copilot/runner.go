package copilot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds a single command execution.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxPromptBytes caps the UTF-8 byte length of the composed prompt.
	// A non-positive configured cap means no limit.
	DefaultMaxPromptBytes = 24000

	// stderrSnippetMax is how many trailing characters of stderr are kept in
	// result metadata.
	stderrSnippetMax = 500
)

// startProcess is replaceable in tests to count spawn attempts.
var startProcess = (*exec.Cmd).Start

// Request describes a single Copilot CLI invocation. It is not retained
// beyond one Execute call.
type Request struct {
	Prompt         string
	Context        string
	Model          string
	AllowAllTools  *bool
	SessionID      string
	AdditionalArgs []string
}

// Outcome classifies a non-error Execute result.
type Outcome string

const (
	// OutcomeCompleted means the CLI exited before the timeout.
	OutcomeCompleted Outcome = "completed"

	// OutcomePartial means the timeout fired but stdout already held output,
	// which was salvaged instead of failing.
	OutcomePartial Outcome = "partial"
)

// Result holds the response text and execution metadata for one command.
type Result struct {
	Text          string        `json:"text"`
	Outcome       Outcome       `json:"outcome"`
	Model         string        `json:"model,omitempty"`
	Duration      time.Duration `json:"-"`
	DurationMS    int64         `json:"duration_ms"`
	ExitCode      int           `json:"exit_code"`
	Signal        string        `json:"signal,omitempty"`
	StderrSnippet string        `json:"stderr_snippet,omitempty"`
	TimedOut      bool          `json:"timed_out"`
}

// Recorder receives prompt/response pairs for completed commands.
// Append reports whether the session id was known.
type Recorder interface {
	Append(id, prompt, response string) bool
}

// Runner spawns the Copilot CLI once per Execute call.
type Runner struct {
	Binary          string
	DefaultModel    string
	DefaultAllowAll bool
	Timeout         time.Duration
	MaxPromptBytes  int

	Log      *slog.Logger
	Recorder Recorder
}

// NewRunner creates a Runner with the given binary and defaults.
func NewRunner(binary string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		Binary:         binary,
		Timeout:        DefaultTimeout,
		MaxPromptBytes: DefaultMaxPromptBytes,
		Log:            log,
	}
}

// Execute runs one prompt through the Copilot CLI and returns the response.
// The prompt travels over stdin, never the argument vector. On timeout,
// already-received stdout is salvaged as an OutcomePartial result; with
// nothing to salvage the call fails with ErrTimeout.
func (r *Runner) Execute(ctx context.Context, req Request) (*Result, error) {
	fullPrompt := req.Prompt
	if req.Context != "" {
		fullPrompt = req.Prompt + "\n\nContext:\n" + req.Context
	}

	if r.MaxPromptBytes > 0 && len(fullPrompt) > r.MaxPromptBytes {
		return nil, fmt.Errorf("%w: prompt is %d bytes, limit is %d", ErrPromptTooLarge, len(fullPrompt), r.MaxPromptBytes)
	}

	model := req.Model
	if model == "" {
		model = r.DefaultModel
	}
	allowAll := r.DefaultAllowAll
	if req.AllowAllTools != nil {
		allowAll = *req.AllowAllTools
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	args := buildArgs(model, allowAll, req.SessionID, req.AdditionalArgs)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, r.Binary, args...)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr collector
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailure, err)
	}

	r.Log.Debug("executing copilot command",
		"args", strings.Join(args, " "),
		"prompt_bytes", len(fullPrompt),
		"session_id", req.SessionID,
	)

	start := time.Now()
	if err := startProcess(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailure, err)
	}

	go func() {
		if _, werr := io.WriteString(stdin, fullPrompt); werr != nil {
			r.Log.Warn("failed to write prompt to stdin", "error", werr)
		}
		_ = stdin.Close()
	}()

	_ = cmd.Wait()
	elapsed := time.Since(start)

	if cctx.Err() == context.DeadlineExceeded {
		return r.finishTimedOut(req, fullPrompt, model, elapsed, &stdout, &stderr, timeout)
	}

	return r.finishExited(cmd, req, fullPrompt, model, elapsed, &stdout, &stderr)
}

// finishExited classifies a process that exited before the timeout.
func (r *Runner) finishExited(cmd *exec.Cmd, req Request, fullPrompt, model string, elapsed time.Duration, stdout, stderr *collector) (*Result, error) {
	outText := strings.TrimSpace(stdout.String())
	errText := strings.TrimSpace(stderr.String())

	if !stdout.Received() {
		low := strings.ToLower(errText)
		if strings.Contains(low, "login") || strings.Contains(low, "authenticate") {
			return nil, fmt.Errorf("%w: run 'copilot /login' and retry", ErrAuthRequired)
		}
	}

	text := outText
	if text == "" {
		text = errText
	}
	if text == "" {
		text = "No response from Copilot CLI"
	}

	exitCode := -1
	signal := ""
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
		signal = exitSignal(cmd.ProcessState)
	}

	res := &Result{
		Text:          text,
		Outcome:       OutcomeCompleted,
		Model:         model,
		Duration:      elapsed,
		DurationMS:    elapsed.Milliseconds(),
		ExitCode:      exitCode,
		Signal:        signal,
		StderrSnippet: tail(errText, stderrSnippetMax),
	}

	r.record(req.SessionID, fullPrompt, res.Text)
	r.Log.Info("copilot command completed",
		"duration_ms", res.DurationMS,
		"exit_code", exitCode,
		"response_bytes", len(res.Text),
	)
	return res, nil
}

// finishTimedOut handles the timer winning the race against process exit.
// The process has already been killed by the expired context.
func (r *Runner) finishTimedOut(req Request, fullPrompt, model string, elapsed time.Duration, stdout, stderr *collector, timeout time.Duration) (*Result, error) {
	if !stdout.Received() {
		return nil, fmt.Errorf("%w after %s with no output", ErrTimeout, timeout)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		text = "Copilot CLI timed out, but partial response received"
	}

	res := &Result{
		Text:          text,
		Outcome:       OutcomePartial,
		Model:         model,
		Duration:      elapsed,
		DurationMS:    elapsed.Milliseconds(),
		ExitCode:      -1,
		Signal:        "SIGKILL",
		StderrSnippet: tail(strings.TrimSpace(stderr.String()), stderrSnippetMax),
		TimedOut:      true,
	}

	r.record(req.SessionID, fullPrompt, res.Text)
	r.Log.Warn("copilot command timed out, returning partial output",
		"timeout", timeout,
		"response_bytes", len(res.Text),
	)
	return res, nil
}

// buildArgs assembles the CLI argument vector. The prompt is deliberately
// absent: it is delivered over stdin so it never shows up in process listings.
func buildArgs(model string, allowAll bool, sessionID string, extra []string) []string {
	args := []string{"--silent"}
	if model != "" {
		args = append(args, "--model", model)
	}
	if allowAll {
		args = append(args, "--allow-all-tools")
	}
	if sessionID != "" {
		args = append(args, "--resume", sessionID)
	}
	return append(args, extra...)
}

func (r *Runner) record(sessionID, prompt, response string) {
	if sessionID == "" || r.Recorder == nil {
		return
	}
	if !r.Recorder.Append(sessionID, prompt, response) {
		r.Log.Debug("session unknown, history entry dropped", "session_id", sessionID)
	}
}

// tail returns the trailing n bytes of s: the most recent output, not the head.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// collector is a concurrency-safe output accumulator that remembers whether
// anything arrived at all. One per stream per execution; never shared.
type collector struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	received bool
}

func (c *collector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(p) > 0 {
		c.received = true
	}
	return c.buf.Write(p)
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *collector) Received() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received
}
