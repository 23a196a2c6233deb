package copilot

import "errors"

// Failure taxonomy for Execute. Callers match with errors.Is; every
// failure carries a single "copilot:" prefixed message.
var (
	// ErrPromptTooLarge is returned before any process is spawned when the
	// composed prompt exceeds the configured byte cap.
	ErrPromptTooLarge = errors.New("copilot: prompt too large")

	// ErrSpawnFailure is returned when the Copilot CLI process could not start.
	ErrSpawnFailure = errors.New("copilot: failed to start Copilot CLI")

	// ErrAuthRequired is returned when the CLI ran but produced no output and
	// its stderr indicates a missing login.
	ErrAuthRequired = errors.New("copilot: authentication required")

	// ErrTimeout is returned when the command exceeded its budget with no
	// stdout to salvage.
	ErrTimeout = errors.New("copilot: command timed out")
)
