// Package classify maps free-text transaction descriptions to merchant names
// and spending categories using ordered keyword dictionaries, with an
// optional external semantic classifier that may override the rule-based
// result but never replaces it as the source of truth.
package classify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ArionMiles/finsight/pkg/api"
)

// ErrClassifierUnavailable reports that the external classifier failed or
// timed out. Callers never see it escape the engine: Classify falls back to
// the deterministic rule-based result on any external failure.
var ErrClassifierUnavailable = errors.New("external classifier unavailable")

// DefaultTimeout bounds one external classifier call.
const DefaultTimeout = 10 * time.Second

// Entry maps one dictionary name to its lowercase trigger substrings.
type Entry struct {
	Name     string   `json:"name"`
	Triggers []string `json:"triggers"`
}

// Dictionary is an ordered mapping of names to trigger substrings. Order is
// part of the contract: when a description matches triggers from more than
// one entry, the entry declared first wins. Trigger substrings may overlap
// across entries; names must be unique.
type Dictionary []Entry

// Match returns the name of the first entry with a trigger contained in the
// lowercased text, or empty when none match.
func (d Dictionary) Match(text string) string {
	lower := strings.ToLower(text)
	for _, e := range d {
		for _, trigger := range e.Triggers {
			if trigger != "" && strings.Contains(lower, trigger) {
				return e.Name
			}
		}
	}
	return ""
}

// Suggestion is the external classifier's answer for one description.
// An empty field means the classifier had no opinion on that field.
type Suggestion struct {
	Merchant string
	Category string
}

// Classifier is the external semantic classification hook. Implementations
// are network-dependent and treated as unreliable: any error (timeout,
// transport failure, malformed response) makes the engine keep its
// deterministic rule-based result.
type Classifier interface {
	Classify(ctx context.Context, description, merchant string) (Suggestion, error)
}

// Resolution is the final classification outcome for one description.
type Resolution struct {
	Merchant string
	Category string
	// Source tells, after the fact, whether the rule-based or external path
	// produced the final values.
	Source api.ClassificationSource
}

// Config assembles an Engine. The external classifier is an explicit
// construction-time value, not process-wide state, so rule-only and
// external-enabled engines can coexist.
type Config struct {
	// Merchants maps merchant names to trigger substrings, in match order.
	Merchants Dictionary
	// Categories maps category names to trigger substrings, in match order.
	Categories Dictionary
	// External, when non-nil, is consulted after the rule-based result is
	// computed and may override it.
	External Classifier
	// Timeout bounds each external call. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Engine performs layered rule-based classification. Dictionaries are
// read-only after construction; the engine is safe for concurrent use.
type Engine struct {
	merchants  Dictionary
	categories Dictionary
	external   Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates a classification engine.
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		merchants:  cfg.Merchants,
		categories: cfg.Categories,
		external:   cfg.External,
		timeout:    timeout,
		logger:     logger,
	}
}

// ExtractMerchant returns the first merchant whose trigger set matches the
// description, scanning the merchant dictionary in its configured order.
// Returns empty when nothing matches; never fails.
func (e *Engine) ExtractMerchant(description string) string {
	return e.merchants.Match(description)
}

// Categorize resolves a category for the transaction. The merchant name is
// tried against the category triggers first (the merchant shortcut), then
// the raw description, both first-match-wins. Falls back to the
// Uncategorized sentinel.
func (e *Engine) Categorize(merchant, description string) string {
	if merchant != "" {
		if cat := e.categories.Match(merchant); cat != "" {
			return cat
		}
	}
	if cat := e.categories.Match(description); cat != "" {
		return cat
	}
	return api.UncategorizedSentinel
}

// Classify computes the deterministic rule-based resolution and, when an
// external classifier is configured, lets it override. The external call is
// bounded by the engine timeout; on any failure the rule-based result
// stands, so correctness never depends on the external collaborator.
func (e *Engine) Classify(ctx context.Context, description string) Resolution {
	merchant := e.ExtractMerchant(description)
	res := Resolution{
		Merchant: merchant,
		Category: e.Categorize(merchant, description),
		Source:   api.ClassifiedByRule,
	}

	if e.external == nil {
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	suggestion, err := e.external.Classify(ctx, description, merchant)
	if err != nil {
		e.logger.Warn("external classifier failed, keeping rule-based result",
			"error", err,
		)
		return res
	}

	if suggestion.Merchant != "" {
		res.Merchant = suggestion.Merchant
		res.Source = api.ClassifiedByExternal
	}
	if suggestion.Category != "" {
		res.Category = suggestion.Category
		res.Source = api.ClassifiedByExternal
	}
	return res
}
