package ratio

import (
	"errors"
	"testing"
)

func TestComputeCurrentRatio(t *testing.T) {
	tests := []struct {
		name        string
		items       []LineItem
		wantPrior   Ratio
		wantCurrent Ratio
		wantMissing []string
	}{
		{
			name: "both periods available",
			items: []LineItem{
				{"SHORT-TERM ASSETS", 300, 500},
				{"Short-term liabilities", 150, 200},
			},
			wantPrior:   Ratio{Value: 2, Available: true},
			wantCurrent: Ratio{Value: 2.5, Available: true},
		},
		{
			name: "zero current liabilities is unavailable",
			items: []LineItem{
				{"SHORT-TERM ASSETS", 300, 500},
				{"SHORT-TERM LIABILITIES", 100, 0},
			},
			wantPrior:   Ratio{Value: 3, Available: true},
			wantCurrent: Unavailable,
		},
		{
			name: "zero prior liabilities is unavailable",
			items: []LineItem{
				{"SHORT-TERM ASSETS", 300, 500},
				{"SHORT-TERM LIABILITIES", 0, 250},
			},
			wantPrior:   Unavailable,
			wantCurrent: Ratio{Value: 2, Available: true},
		},
		{
			name:        "liabilities missing",
			items:       []LineItem{{"SHORT-TERM ASSETS", 1, 1}},
			wantMissing: []string{"SHORT-TERM LIABILITIES"},
		},
		{
			name:        "both missing",
			items:       []LineItem{{"Cash", 1, 1}},
			wantMissing: []string{"SHORT-TERM ASSETS", "SHORT-TERM LIABILITIES"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeCurrentRatio(tt.items, DefaultLabels())
			if tt.wantMissing != nil {
				var missing *MissingLineItemError
				if !errors.As(err, &missing) {
					t.Fatalf("expected MissingLineItemError, got %v", err)
				}
				if len(missing.Missing) != len(tt.wantMissing) {
					t.Fatalf("missing = %v, want %v", missing.Missing, tt.wantMissing)
				}
				for i := range tt.wantMissing {
					if missing.Missing[i] != tt.wantMissing[i] {
						t.Errorf("missing[%d] = %q, want %q", i, missing.Missing[i], tt.wantMissing[i])
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Prior != tt.wantPrior {
				t.Errorf("prior = %+v, want %+v", got.Prior, tt.wantPrior)
			}
			if got.Current != tt.wantCurrent {
				t.Errorf("current = %+v, want %+v", got.Current, tt.wantCurrent)
			}
		})
	}
}

func TestCurrentRatioDelta(t *testing.T) {
	cr := CurrentRatio{Prior: Ratio{1.5, true}, Current: Ratio{2, true}}
	if d, ok := cr.Delta(); !ok || d != 0.5 {
		t.Errorf("delta = %v ok=%v, want 0.5 true", d, ok)
	}
	cr.Current = Unavailable
	if _, ok := cr.Delta(); ok {
		t.Error("delta must be undefined when a period is unavailable")
	}
}

func TestRatioString(t *testing.T) {
	if got := (Ratio{Value: 1.234, Available: true}).String(); got != "1.23 times" {
		t.Errorf("got %q", got)
	}
	if got := Unavailable.String(); got != "N/A" {
		t.Errorf("got %q", got)
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatAmount(1234567.4), "1,234,567"},
		{FormatAmount(-9876.5), "-9,877"},
		{FormatAmount(0), "0"},
		{FormatPercent(12.346), "12.35%"},
		{FormatPercent(-3), "-3.00%"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
