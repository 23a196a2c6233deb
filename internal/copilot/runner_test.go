package copilot

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copilotmcp/internal/session"
)

// writeScript creates an executable shell script acting as the simulated CLI.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "copilot")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)
	require.NoError(t, err)
	return path
}

func newTestRunner(binary string) *Runner {
	r := NewRunner(binary, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	return r
}

func TestExecute_Success(t *testing.T) {
	bin := writeScript(t, `cat >/dev/null; printf '4'`)
	r := newTestRunner(bin)

	res, err := r.Execute(context.Background(), Request{Prompt: "2+2="})
	require.NoError(t, err)

	assert.Equal(t, "4", res.Text)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestExecute_PromptDeliveredViaStdin(t *testing.T) {
	// The simulated tool echoes stdin back; the prompt must never be in argv.
	bin := writeScript(t, `for a in "$@"; do case "$a" in *hello*) echo "LEAKED"; exit 1;; esac; done; cat`)
	r := newTestRunner(bin)

	res, err := r.Execute(context.Background(), Request{Prompt: "hello stdin"})
	require.NoError(t, err)
	assert.Equal(t, "hello stdin", res.Text)
}

func TestExecute_ContextAppended(t *testing.T) {
	bin := writeScript(t, `cat`)
	r := newTestRunner(bin)

	res, err := r.Execute(context.Background(), Request{Prompt: "question", Context: "background"})
	require.NoError(t, err)
	assert.Equal(t, "question\n\nContext:\nbackground", res.Text)
}

func TestExecute_PartialOutputSalvagedOnTimeout(t *testing.T) {
	bin := writeScript(t, `printf 'partial'; exec sleep 30`)
	r := newTestRunner(bin)
	r.Timeout = 500 * time.Millisecond

	start := time.Now()
	res, err := r.Execute(context.Background(), Request{Prompt: "anything"})
	require.NoError(t, err)

	assert.Equal(t, "partial", res.Text)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 10*time.Second, "process must be killed at the timeout, not waited out")
}

func TestExecute_TimeoutWithNoOutput(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)
	r := newTestRunner(bin)
	r.Timeout = 300 * time.Millisecond

	res, err := r.Execute(context.Background(), Request{Prompt: "anything"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Nil(t, res)
}

func TestExecute_AuthRequired(t *testing.T) {
	bin := writeScript(t, `cat >/dev/null; echo 'please authenticate' >&2; exit 1`)
	r := newTestRunner(bin)

	res, err := r.Execute(context.Background(), Request{Prompt: "anything"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthRequired))
	assert.Contains(t, err.Error(), "/login")
	assert.Nil(t, res)
}

func TestExecute_StderrWithStdoutIsNotAuthFailure(t *testing.T) {
	// Once stdout produced anything, login-looking stderr noise is benign.
	bin := writeScript(t, `cat >/dev/null; echo 'tip: login expires soon' >&2; printf 'answer'`)
	r := newTestRunner(bin)

	res, err := r.Execute(context.Background(), Request{Prompt: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Text)
}

func TestExecute_StderrFallbackAndPlaceholder(t *testing.T) {
	t.Run("stderr used when stdout empty", func(t *testing.T) {
		bin := writeScript(t, `cat >/dev/null; echo 'some warning' >&2; exit 1`)
		r := newTestRunner(bin)

		res, err := r.Execute(context.Background(), Request{Prompt: "anything"})
		require.NoError(t, err)
		assert.Equal(t, "some warning", res.Text)
		assert.Equal(t, 1, res.ExitCode)
		assert.Equal(t, "some warning", res.StderrSnippet)
	})

	t.Run("placeholder when both streams empty", func(t *testing.T) {
		bin := writeScript(t, `cat >/dev/null; exit 0`)
		r := newTestRunner(bin)

		res, err := r.Execute(context.Background(), Request{Prompt: "anything"})
		require.NoError(t, err)
		assert.Equal(t, "No response from Copilot CLI", res.Text)
	})
}

func TestExecute_PromptTooLarge(t *testing.T) {
	spawns := 0
	orig := startProcess
	startProcess = func(c *exec.Cmd) error {
		spawns++
		return orig(c)
	}
	t.Cleanup(func() { startProcess = orig })

	bin := writeScript(t, `cat`)
	r := newTestRunner(bin)
	r.MaxPromptBytes = 10

	_, err := r.Execute(context.Background(), Request{Prompt: strings.Repeat("x", 11)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPromptTooLarge))
	assert.Equal(t, 0, spawns, "no process may be spawned for an oversized prompt")

	// Multi-byte runes count by UTF-8 bytes, not rune count.
	_, err = r.Execute(context.Background(), Request{Prompt: strings.Repeat("é", 6)})
	assert.True(t, errors.Is(err, ErrPromptTooLarge))
}

func TestExecute_ZeroCapMeansUnlimited(t *testing.T) {
	bin := writeScript(t, `cat >/dev/null; printf 'ok'`)
	r := newTestRunner(bin)
	r.MaxPromptBytes = 0

	res, err := r.Execute(context.Background(), Request{Prompt: strings.Repeat("x", 100000)})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
}

func TestExecute_SpawnFailure(t *testing.T) {
	r := newTestRunner(filepath.Join(t.TempDir(), "no-such-binary"))

	_, err := r.Execute(context.Background(), Request{Prompt: "anything"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawnFailure))
}

func TestExecute_AppendsHistory(t *testing.T) {
	bin := writeScript(t, `cat >/dev/null; printf 'the answer'`)

	store := session.NewStore()
	id := store.Create()

	r := newTestRunner(bin)
	r.Recorder = store

	res, err := r.Execute(context.Background(), Request{Prompt: "q", Context: "c", SessionID: id})
	require.NoError(t, err)

	sess, ok := store.Get(id)
	require.True(t, ok)
	require.Len(t, sess.History, 1)
	assert.Equal(t, "q\n\nContext:\nc", sess.History[0].Prompt)
	assert.Equal(t, res.Text, sess.History[0].Response)
}

func TestExecute_NoAppendOnFailure(t *testing.T) {
	bin := writeScript(t, `cat >/dev/null; echo 'please login' >&2; exit 1`)

	store := session.NewStore()
	id := store.Create()

	r := newTestRunner(bin)
	r.Recorder = store

	_, err := r.Execute(context.Background(), Request{Prompt: "q", SessionID: id})
	require.Error(t, err)

	sess, _ := store.Get(id)
	assert.Empty(t, sess.History)
}

func TestExecute_UnknownSessionIsNoop(t *testing.T) {
	bin := writeScript(t, `cat >/dev/null; printf 'ok'`)

	store := session.NewStore()
	r := newTestRunner(bin)
	r.Recorder = store

	res, err := r.Execute(context.Background(), Request{Prompt: "q", SessionID: "missing"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Empty(t, store.List())
}

func TestBuildArgs(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		assert.Equal(t, []string{"--silent"}, buildArgs("", false, "", nil))
	})

	t.Run("everything", func(t *testing.T) {
		got := buildArgs("gpt-5.1", true, "sess-1", []string{"--foo", "bar"})
		assert.Equal(t, []string{
			"--silent",
			"--model", "gpt-5.1",
			"--allow-all-tools",
			"--resume", "sess-1",
			"--foo", "bar",
		}, got)
	})
}

func TestRequestDefaults(t *testing.T) {
	// The process-wide defaults apply only when the request leaves them unset.
	bin := writeScript(t, `echo "$@"; cat >/dev/null`)

	r := newTestRunner(bin)
	r.DefaultModel = "o4-mini"
	r.DefaultAllowAll = true

	res, err := r.Execute(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "--model o4-mini")
	assert.Contains(t, res.Text, "--allow-all-tools")

	off := false
	res, err = r.Execute(context.Background(), Request{Prompt: "x", Model: "gpt-5.1", AllowAllTools: &off})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "--model gpt-5.1")
	assert.NotContains(t, res.Text, "--allow-all-tools")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("abc", 10))
	assert.Equal(t, "cde", tail("abcde", 3))
	assert.Equal(t, "", tail("", 3))
}
