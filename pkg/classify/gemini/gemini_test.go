package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantMerchant string
		wantCategory string
	}{
		{
			name:         "plain json",
			raw:          `{"merchant": "Swiggy", "category": "Food and groceries"}`,
			wantMerchant: "Swiggy",
			wantCategory: "Food and groceries",
		},
		{
			name:         "fenced json",
			raw:          "```json\n{\"merchant\": \"Uber\", \"category\": \"Transport\"}\n```",
			wantMerchant: "Uber",
			wantCategory: "Transport",
		},
		{
			name:         "fenced without language tag",
			raw:          "```\n{\"merchant\": \"Amazon\", \"category\": \"Shopping\"}\n```",
			wantMerchant: "Amazon",
			wantCategory: "Shopping",
		},
		{
			name:         "surrounding prose",
			raw:          "Sure! Here is the classification: {\"merchant\": \"Zomato\", \"category\": \"Food and groceries\"} Hope that helps.",
			wantMerchant: "Zomato",
			wantCategory: "Food and groceries",
		},
		{
			name:         "empty fields",
			raw:          `{"merchant": "", "category": ""}`,
			wantMerchant: "",
			wantCategory: "",
		},
		{
			name:         "whitespace trimmed",
			raw:          `{"merchant": "  Netflix  ", "category": " Entertainment "}`,
			wantMerchant: "Netflix",
			wantCategory: "Entertainment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestion(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMerchant, got.Merchant)
			assert.Equal(t, tt.wantCategory, got.Category)
		})
	}
}

func TestParseSuggestion_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not json at all", "```\n```", `["array"]`} {
		_, err := parseSuggestion(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripFences("junk before {\"a\":1} junk after"))
}
