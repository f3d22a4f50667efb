package tally

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/abrezinsky/tokenvote/internal/errors"
)

// Weighting selects how invested tokens translate into ballot weight for
// campaign scenarios. Standalone scenarios always weigh each ballot as 1.
type Weighting string

const (
	WeightingEqual        Weighting = "equal"
	WeightingProportional Weighting = "proportional"
)

// Hyperparameter keys.
const (
	KeyAllowAbstain     = "allow_abstain"
	KeyWeighting        = "weighting"
	KeyWinningThreshold = "winning_threshold_percentage"
	KeySeats            = "seats"
)

// MaxSeats is the largest D'Hondt seat count a scenario may ask for.
const MaxSeats = 10000

// Params is the validated hyperparameter set of one mechanism. The
// implementations form a closed set: PluralityParams, ApprovalParams,
// BordaParams, RunoffParams and DHondtParams.
type Params interface {
	Mechanism() Mechanism
	Base() Common
	// Map returns the canonical key/value form, defaults included.
	Map() map[string]any
}

// Common holds the keys every mechanism accepts.
type Common struct {
	AllowAbstain bool
	Weighting    Weighting
}

func defaultCommon() Common {
	return Common{AllowAbstain: true, Weighting: WeightingProportional}
}

func (c Common) Base() Common { return c }

func (c Common) fill(m map[string]any) map[string]any {
	m[KeyAllowAbstain] = c.AllowAbstain
	m[KeyWeighting] = string(c.Weighting)
	return m
}

type PluralityParams struct {
	Common
	// WinningThresholdPercentage is the share of the weighted total, in
	// [0,100], the leading option must reach. Nil disables the check.
	WinningThresholdPercentage *float64
}

func (PluralityParams) Mechanism() Mechanism { return Plurality }

func (p PluralityParams) Map() map[string]any {
	m := p.fill(map[string]any{})
	if p.WinningThresholdPercentage != nil {
		m[KeyWinningThreshold] = *p.WinningThresholdPercentage
	}
	return m
}

type ApprovalParams struct{ Common }

func (ApprovalParams) Mechanism() Mechanism  { return Approval }
func (p ApprovalParams) Map() map[string]any { return p.fill(map[string]any{}) }

type BordaParams struct{ Common }

func (BordaParams) Mechanism() Mechanism  { return Borda }
func (p BordaParams) Map() map[string]any { return p.fill(map[string]any{}) }

type RunoffParams struct{ Common }

func (RunoffParams) Mechanism() Mechanism  { return Runoff }
func (p RunoffParams) Map() map[string]any { return p.fill(map[string]any{}) }

type DHondtParams struct {
	Common
	Seats int
}

func (DHondtParams) Mechanism() Mechanism { return DHondt }

func (p DHondtParams) Map() map[string]any {
	m := p.fill(map[string]any{})
	m[KeySeats] = p.Seats
	return m
}

var allowedKeys = map[Mechanism][]string{
	Plurality: {KeyAllowAbstain, KeyWeighting, KeyWinningThreshold},
	Approval:  {KeyAllowAbstain, KeyWeighting},
	Borda:     {KeyAllowAbstain, KeyWeighting},
	Runoff:    {KeyAllowAbstain, KeyWeighting},
	DHondt:    {KeyAllowAbstain, KeyWeighting, KeySeats},
}

// ParseParams validates raw against the keys m accepts and returns the typed
// parameter set. Unknown keys and ill-typed values are rejected with
// ErrUnknownMechanismHyperparameter.
func ParseParams(m Mechanism, raw map[string]any) (Params, error) {
	keys, ok := allowedKeys[m]
	if !ok {
		return nil, errors.Validationf("unknown voting mechanism %q", m)
	}
	if err := checkKeys(m, keys, raw); err != nil {
		return nil, err
	}

	common := defaultCommon()
	if v, ok := raw[KeyAllowAbstain]; ok {
		b, err := asBool(v)
		if err != nil {
			return nil, badValue(m, KeyAllowAbstain, v)
		}
		common.AllowAbstain = b
	}
	if v, ok := raw[KeyWeighting]; ok {
		s, isString := v.(string)
		switch Weighting(strings.ToLower(s)) {
		case WeightingEqual:
			common.Weighting = WeightingEqual
		case WeightingProportional:
			common.Weighting = WeightingProportional
		default:
			if !isString {
				return nil, badValue(m, KeyWeighting, v)
			}
			return nil, badValue(m, KeyWeighting, s)
		}
	}

	switch m {
	case Plurality:
		p := PluralityParams{Common: common}
		if v, ok := raw[KeyWinningThreshold]; ok && v != nil {
			f, err := asFloat(v)
			if err != nil || f < 0 || f > 100 {
				return nil, badValue(m, KeyWinningThreshold, v)
			}
			p.WinningThresholdPercentage = &f
		}
		return p, nil
	case Approval:
		return ApprovalParams{Common: common}, nil
	case Borda:
		return BordaParams{Common: common}, nil
	case Runoff:
		return RunoffParams{Common: common}, nil
	default:
		v, ok := raw[KeySeats]
		if !ok {
			return nil, errors.UnknownHyperparameterf("%s requires %q", m, KeySeats).With("key", KeySeats)
		}
		f, err := asFloat(v)
		if err != nil || f < 1 || f > MaxSeats || f != math.Trunc(f) {
			return nil, badValue(m, KeySeats, v)
		}
		return DHondtParams{Common: common, Seats: int(f)}, nil
	}
}

// DefaultParams returns m's parameters with every default applied. D'Hondt
// defaults to a single seat.
func DefaultParams(m Mechanism) Params {
	switch m {
	case Approval:
		return ApprovalParams{Common: defaultCommon()}
	case Borda:
		return BordaParams{Common: defaultCommon()}
	case Runoff:
		return RunoffParams{Common: defaultCommon()}
	case DHondt:
		return DHondtParams{Common: defaultCommon(), Seats: 1}
	default:
		return PluralityParams{Common: defaultCommon()}
	}
}

// EncodeParams serializes p in its canonical map form.
func EncodeParams(p Params) ([]byte, error) {
	return json.Marshal(p.Map())
}

// DecodeParams parses data produced by EncodeParams.
func DecodeParams(m Mechanism, data []byte) (Params, error) {
	raw := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "decode hyperparameters")
		}
	}
	return ParseParams(m, raw)
}

func checkKeys(m Mechanism, allowed []string, raw map[string]any) error {
	var unknown []string
	for k := range raw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errors.UnknownHyperparameterf("%s does not accept hyperparameter %q", m, unknown[0]).
		With("key", unknown[0]).
		With("allowed", allowed)
}

func badValue(m Mechanism, key string, v any) error {
	return errors.UnknownHyperparameterf("invalid value %v for %s hyperparameter %q", v, m, key).With("key", key)
}

func asBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, errors.InvalidInputf("not a boolean: %v", v)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, errors.InvalidInputf("not a number: %v", v)
	}
}
