package tally_test

import (
	"testing"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/tally"
)

func TestParseParams_Defaults(t *testing.T) {
	for _, m := range []tally.Mechanism{tally.Plurality, tally.Approval, tally.Borda, tally.Runoff} {
		p, err := tally.ParseParams(m, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", m, err)
		}
		if p.Mechanism() != m {
			t.Errorf("expected mechanism %s, got %s", m, p.Mechanism())
		}
		base := p.Base()
		if !base.AllowAbstain || base.Weighting != tally.WeightingProportional {
			t.Errorf("%s: unexpected defaults %+v", m, base)
		}
	}
}

func TestParseParams_TypedVariants(t *testing.T) {
	p, err := tally.ParseParams(tally.DHondt, map[string]any{"seats": 5.0, "allow_abstain": false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, ok := p.(tally.DHondtParams)
	if !ok {
		t.Fatalf("expected DHondtParams, got %T", p)
	}
	if d.Seats != 5 || d.AllowAbstain {
		t.Errorf("unexpected params %+v", d)
	}

	p, err = tally.ParseParams(tally.Plurality, map[string]any{"winning_threshold_percentage": "50"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pp := p.(tally.PluralityParams)
	if pp.WinningThresholdPercentage == nil || *pp.WinningThresholdPercentage != 50 {
		t.Errorf("expected threshold 50, got %v", pp.WinningThresholdPercentage)
	}
}

func TestParseParams_Rejections(t *testing.T) {
	tests := []struct {
		name string
		m    tally.Mechanism
		raw  map[string]any
	}{
		{"unknown key", tally.Approval, map[string]any{"quorum": 3}},
		{"seats on plurality", tally.Plurality, map[string]any{"seats": 2}},
		{"threshold on borda", tally.Borda, map[string]any{"winning_threshold_percentage": 10}},
		{"missing seats", tally.DHondt, map[string]any{}},
		{"zero seats", tally.DHondt, map[string]any{"seats": 0}},
		{"fractional seats", tally.DHondt, map[string]any{"seats": 1.5}},
		{"seats above cap", tally.DHondt, map[string]any{"seats": tally.MaxSeats + 1}},
		{"seats beyond int64", tally.DHondt, map[string]any{"seats": 1e19}},
		{"threshold above 100", tally.Plurality, map[string]any{"winning_threshold_percentage": 120}},
		{"bad weighting", tally.Runoff, map[string]any{"weighting": "quadratic"}},
		{"non-bool abstain", tally.Runoff, map[string]any{"allow_abstain": 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tally.ParseParams(tt.m, tt.raw)
			if !errors.Is(err, errors.ErrUnknownMechanismHyperparameter) {
				t.Errorf("expected ErrUnknownMechanismHyperparameter, got %v", err)
			}
		})
	}
}

func TestParseParams_SeatsAtCap(t *testing.T) {
	p, err := tally.ParseParams(tally.DHondt, map[string]any{"seats": tally.MaxSeats})
	if err != nil {
		t.Fatalf("expected the cap itself to be accepted, got %v", err)
	}
	if got := p.(tally.DHondtParams).Seats; got != tally.MaxSeats {
		t.Errorf("expected %d seats, got %d", tally.MaxSeats, got)
	}
}

func TestEncodeDecodeParams(t *testing.T) {
	p, _ := tally.ParseParams(tally.DHondt, map[string]any{"seats": 3, "weighting": "equal"})

	data, err := tally.EncodeParams(p)
	if err != nil {
		t.Fatalf("EncodeParams failed: %v", err)
	}
	back, err := tally.DecodeParams(tally.DHondt, data)
	if err != nil {
		t.Fatalf("DecodeParams failed: %v", err)
	}
	if back != p {
		t.Errorf("expected %+v after decode, got %+v", p, back)
	}
}

func TestParseMechanism(t *testing.T) {
	tests := map[string]tally.Mechanism{
		"Plurality":   tally.Plurality,
		"D'Hondt":     tally.DHondt,
		"borda_count": tally.Borda,
		" runoff ":    tally.Runoff,
	}
	for in, want := range tests {
		got, err := tally.ParseMechanism(in)
		if err != nil || got != want {
			t.Errorf("ParseMechanism(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := tally.ParseMechanism("condorcet"); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("expected validation error for condorcet, got %v", err)
	}
}

func TestValidateBallot(t *testing.T) {
	options := []string{"A", "B", "C"}
	tests := []struct {
		name  string
		m     tally.Mechanism
		b     tally.Ballot
		valid bool
	}{
		{"plurality ok", tally.Plurality, tally.Ballot{Option: "A"}, true},
		{"plurality empty", tally.Plurality, tally.Ballot{}, false},
		{"plurality unknown", tally.DHondt, tally.Ballot{Option: "Z"}, false},
		{"approval ok", tally.Approval, tally.Ballot{Approved: []string{"A", "C"}}, true},
		{"approval duplicate", tally.Approval, tally.Ballot{Approved: []string{"A", "A"}}, false},
		{"approval empty", tally.Approval, tally.Ballot{}, false},
		{"ranking partial", tally.Borda, tally.Ballot{Ranking: []string{"B"}}, true},
		{"ranking unknown", tally.Runoff, tally.Ballot{Ranking: []string{"A", "Q"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tally.ValidateBallot(tt.m, options, tt.b)
			if tt.valid && err != nil {
				t.Errorf("expected valid ballot, got %v", err)
			}
			if !tt.valid && !errors.Is(err, errors.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
