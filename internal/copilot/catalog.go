package copilot

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Catalog sources for a discovery result.
const (
	SourceHelp     = "help"
	SourceFallback = "fallback"
)

// CatalogResult is an advisory list of model identifiers. Nothing checks
// that the CLI actually accepts any of them.
type CatalogResult struct {
	Models []string `json:"models"`
	Source string   `json:"source"`
}

// modelPattern matches known vendor-name prefixes followed by version-ish
// characters. Bare vendor words survive the regex but are filtered later
// for lacking a digit.
var modelPattern = regexp.MustCompile(`(?i)\b(?:gpt|claude|gemini|grok|llama|sonnet|opus|haiku|o[0-9])[a-z0-9.-]*`)

// fallbackModels is returned when help discovery yields nothing usable.
var fallbackModels = []string{
	"claude-sonnet-4.5",
	"gpt-5.1",
	"gpt-4.1",
	"o4-mini",
}

// ParseModels extracts candidate model identifiers from free-form help text.
// Matches are lower-cased, digit-less tokens dropped, duplicates removed
// preserving first-seen order.
func ParseModels(text string) []string {
	seen := make(map[string]bool)
	var models []string
	for _, m := range modelPattern.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if !strings.ContainsAny(m, "0123456789") {
			continue
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		models = append(models, m)
	}
	return models
}

// Catalog discovers model identifiers from the CLI's help output.
type Catalog struct {
	help func(ctx context.Context) (string, error)
	log  *slog.Logger
}

// NewCatalog creates a Catalog reading help text from the given runner.
func NewCatalog(r *Runner, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{help: r.HelpText, log: log}
}

// Discover runs help discovery under its short timeout and applies the
// parsing heuristic. Any failure or an empty parse falls back to the
// static list; Discover itself never fails.
func (c *Catalog) Discover(ctx context.Context) CatalogResult {
	text, err := c.help(ctx)
	if err != nil {
		c.log.Warn("help discovery failed, using fallback models", "error", err)
		return fallbackResult()
	}

	if models := ParseModels(text); len(models) > 0 {
		c.log.Debug("models discovered from help text", "count", len(models))
		return CatalogResult{Models: models, Source: SourceHelp}
	}

	c.log.Debug("no models found in help text, using fallback")
	return fallbackResult()
}

func fallbackResult() CatalogResult {
	return CatalogResult{
		Models: append([]string(nil), fallbackModels...),
		Source: SourceFallback,
	}
}
