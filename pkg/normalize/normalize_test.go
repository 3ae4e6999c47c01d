package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "100", "100"},
		{"decimal", "31.59", "31.59"},
		{"grouping commas", "1,234.56", "1234.56"},
		{"multiple groups", "12,34,567.89", "1234567.89"},
		{"rupee symbol", "₹500", "500"},
		{"rs dot prefix", "Rs. 999.00", "999"},
		{"rs prefix", "Rs 250", "250"},
		{"inr prefix", "INR 75.50", "75.5"},
		{"dollar", "$42", "42"},
		{"credit marker spaced", "31.59 CR", "-31.59"},
		{"credit marker attached", "31.59CR", "-31.59"},
		{"credit marker lowercase", "100 cr", "-100"},
		{"debit marker spaced", "100 DR", "100"},
		{"debit marker attached", "100DR", "100"},
		{"signed credit stays negative", "-31.59 CR", "-31.59"},
		{"negative passthrough", "-500", "-500"},
		{"surrounding whitespace", "  77.00  ", "77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if err != nil {
				t.Fatalf("ParseAmount(%q) error: %v", tt.raw, err)
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.raw, got, want)
			}
		})
	}
}

func TestParseAmount_RoundTrip(t *testing.T) {
	inputs := []string{"1,234.56", "31.59 CR", "₹500", "Rs. 999.00"}
	for _, raw := range inputs {
		first, err := ParseAmount(raw)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", raw, err)
		}
		second, err := ParseAmount(first.String())
		if err != nil {
			t.Fatalf("re-parsing %q error: %v", first, err)
		}
		if !first.Equal(second) {
			t.Errorf("round trip of %q: %s != %s", raw, first, second)
		}
	}
}

func TestParseAmount_Malformed(t *testing.T) {
	inputs := []string{"", "   ", "abc", "₹", "CR", "12.34.56", "--5"}
	for _, raw := range inputs {
		if _, err := ParseAmount(raw); !errors.Is(err, ErrMalformedAmount) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrMalformedAmount", raw, err)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		hasTime  bool
		wantDate time.Time
		wantTime string
		wantOK   bool
	}{
		{"slash layout", "15/10/2025", false, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC), "", true},
		{"dash layout", "15-10-2025", false, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC), "", true},
		{"iso layout", "2025-10-15", false, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC), "", true},
		{"with clock", "15/10/2025|09:30:00", true, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC), "09:30:00", true},
		{"clock ignored without hasTime layout match", "15/10/2025", true, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC), "", true},
		{"impossible date", "2025-13-40", false, time.Time{}, "", false},
		{"empty", "", false, time.Time{}, "", false},
		{"prose", "Opening Balance", false, time.Time{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, clock, ok := ParseDateTime(tt.raw, tt.hasTime)
			if ok != tt.wantOK {
				t.Fatalf("ParseDateTime(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !date.Equal(tt.wantDate) {
				t.Errorf("ParseDateTime(%q) date = %v, want %v", tt.raw, date, tt.wantDate)
			}
			if clock != tt.wantTime {
				t.Errorf("ParseDateTime(%q) clock = %q, want %q", tt.raw, clock, tt.wantTime)
			}
		})
	}
}

func TestParseDateTime_BadClockKeepsDate(t *testing.T) {
	date, clock, ok := ParseDateTime("15/10/2025|not-a-time", true)
	if !ok {
		t.Fatal("expected date to parse despite bad clock")
	}
	if clock != "" {
		t.Errorf("clock = %q, want empty", clock)
	}
	if date.Day() != 15 {
		t.Errorf("date day = %d, want 15", date.Day())
	}
}
