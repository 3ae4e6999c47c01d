// Package gemini implements the external classification hook on the Gemini
// API. It is strictly best-effort: every failure surfaces as
// classify.ErrClassifierUnavailable and the engine keeps its rule-based
// result.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	retry "github.com/avast/retry-go"
	"google.golang.org/genai"

	"github.com/ArionMiles/finsight/pkg/classify"
)

// DefaultModel is fast and accurate enough for short description snippets.
const DefaultModel = "gemini-2.5-flash"

// Config holds the Gemini classifier configuration.
type Config struct {
	// Model overrides DefaultModel.
	Model string
	// Merchants and Categories constrain the model's answers to the
	// configured taxonomy so external results stay joinable with
	// rule-based ones.
	Merchants  []string
	Categories []string
}

// Classifier asks Gemini for a merchant name and category.
type Classifier struct {
	client     *genai.Client
	model      string
	merchants  []string
	categories []string
	logger     *slog.Logger
}

// New creates a Gemini-backed classifier. Credentials come from the
// environment (GOOGLE_API_KEY or Vertex project variables).
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Classifier{
		client:     client,
		model:      model,
		merchants:  cfg.Merchants,
		categories: cfg.Categories,
		logger:     logger,
	}, nil
}

// Classify sends the description to the model and parses its JSON answer.
// The call honors ctx for its deadline; transient failures are retried once
// before giving up.
func (c *Classifier) Classify(ctx context.Context, description, merchant string) (classify.Suggestion, error) {
	prompt := c.buildPrompt(description, merchant)

	var raw string
	err := retry.Do(
		func() error {
			resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
			if err != nil {
				return fmt.Errorf("generate content: %w", err)
			}
			raw = resp.Text()
			if raw == "" {
				return fmt.Errorf("empty model response")
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return classify.Suggestion{}, fmt.Errorf("%w: %v", classify.ErrClassifierUnavailable, err)
	}

	suggestion, err := parseSuggestion(raw)
	if err != nil {
		c.logger.Debug("discarding malformed model response", "response", raw)
		return classify.Suggestion{}, fmt.Errorf("%w: %v", classify.ErrClassifierUnavailable, err)
	}
	return suggestion, nil
}

func (c *Classifier) buildPrompt(description, merchant string) string {
	var b strings.Builder
	b.WriteString("You classify one personal-finance transaction.\n\n")
	b.WriteString("Transaction description:\n")
	b.WriteString(description)
	b.WriteString("\n\n")
	if merchant != "" {
		b.WriteString("A keyword scan suggests the merchant is: " + merchant + "\n\n")
	}
	if len(c.merchants) > 0 {
		b.WriteString("Known merchants (prefer one of these, or a short proper name):\n")
		b.WriteString(strings.Join(c.merchants, ", "))
		b.WriteString("\n\n")
	}
	if len(c.categories) > 0 {
		b.WriteString("Use ONLY one of these categories:\n")
		b.WriteString(strings.Join(c.categories, ", "))
		b.WriteString("\n\n")
	}
	b.WriteString("Return STRICT JSON only, no code fences, of the form:\n")
	b.WriteString(`{"merchant": "<name or empty string>", "category": "<category or empty string>"}`)
	return b.String()
}

// parseSuggestion decodes the model's JSON answer, tolerating Markdown code
// fences the model sometimes emits despite instructions.
func parseSuggestion(raw string) (classify.Suggestion, error) {
	clean := stripFences(raw)

	var payload struct {
		Merchant string `json:"merchant"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return classify.Suggestion{}, fmt.Errorf("malformed response: %w", err)
	}

	return classify.Suggestion{
		Merchant: strings.TrimSpace(payload.Merchant),
		Category: strings.TrimSpace(payload.Category),
	}, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	// Keep only the outermost JSON object if junk surrounds it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
