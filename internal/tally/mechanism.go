package tally

import (
	"strings"

	"github.com/abrezinsky/tokenvote/internal/errors"
)

// Mechanism identifies a counting rule.
type Mechanism string

const (
	Plurality Mechanism = "plurality"
	Approval  Mechanism = "approval"
	Borda     Mechanism = "borda"
	Runoff    Mechanism = "runoff"
	DHondt    Mechanism = "dhondt"
)

// Mechanisms lists every supported mechanism.
var Mechanisms = []Mechanism{Plurality, Approval, Borda, Runoff, DHondt}

var mechanismAliases = map[string]Mechanism{
	"plurality":      Plurality,
	"approval":       Approval,
	"borda":          Borda,
	"borda_count":    Borda,
	"borda count":    Borda,
	"runoff":         Runoff,
	"instant_runoff": Runoff,
	"dhondt":         DHondt,
	"d'hondt":        DHondt,
	"d_hondt":        DHondt,
}

// ParseMechanism resolves a mechanism name, case-insensitively.
func ParseMechanism(name string) (Mechanism, error) {
	m, ok := mechanismAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errors.Validationf("unknown voting mechanism %q", name)
	}
	return m, nil
}

// Ballot is the mechanism-specific vote payload. Plurality and D'Hondt read
// Option, Approval reads Approved, Borda and Runoff read Ranking.
type Ballot struct {
	Option   string   `json:"option,omitempty"`
	Approved []string `json:"approved,omitempty"`
	Ranking  []string `json:"ranking,omitempty"`
}

// ValidateBallot checks that b is a well-formed ballot for m over options.
func ValidateBallot(m Mechanism, options []string, b Ballot) error {
	known := make(map[string]bool, len(options))
	for _, o := range options {
		known[o] = true
	}

	switch m {
	case Plurality, DHondt:
		if b.Option == "" {
			return errors.Validation("ballot must select exactly one option")
		}
		if !known[b.Option] {
			return errors.Validationf("unknown option %q", b.Option)
		}
		return nil
	case Approval:
		return validateOptionList("approval set", b.Approved, known)
	case Borda, Runoff:
		return validateOptionList("ranking", b.Ranking, known)
	default:
		return errors.Validationf("unknown voting mechanism %q", m)
	}
}

func validateOptionList(what string, list []string, known map[string]bool) error {
	if len(list) == 0 {
		return errors.Validationf("%s must not be empty", what)
	}
	seen := make(map[string]bool, len(list))
	for _, o := range list {
		if !known[o] {
			return errors.Validationf("unknown option %q in %s", o, what)
		}
		if seen[o] {
			return errors.Validationf("option %q appears more than once in %s", o, what)
		}
		seen[o] = true
	}
	return nil
}
