// Package tally computes scenario results from cast votes. It performs no I/O
// and holds no state: the same input always yields the same Result.
package tally

// Vote is one counted ballot.
type Vote struct {
	Ballot  Ballot
	Tokens  int
	Abstain bool
}

// Input is everything a tally reads besides the parameters.
type Input struct {
	// Options in definition order. Reporting and D'Hondt tie-breaks follow it.
	Options        []string
	CampaignScoped bool
	Votes          []Vote
}

// Outcome classifies a result.
type Outcome string

const (
	OutcomeWinner         Outcome = "winner"
	OutcomeTie            Outcome = "tie"
	OutcomeNoWinner       Outcome = "no_winner"
	OutcomeAmbiguousTie   Outcome = "ambiguous_tie"
	OutcomeNoVotes        Outcome = "no_votes"
	OutcomeSeatsAllocated Outcome = "seats_allocated"
)

// Status is the summary label derived from a result.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusTied      Status = "tied"
	StatusFailed    Status = "failed"
	StatusNoVotes   Status = "no_votes"
	StatusAbstained Status = "abstained"
)

// Result is the outcome of counting one scenario.
type Result struct {
	Mechanism      Mechanism        `json:"mechanism"`
	Outcome        Outcome          `json:"outcome"`
	Status         Status           `json:"status"`
	Winner         string           `json:"winner,omitempty"`
	TiedOptions    []string         `json:"tied_options,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	RawCounts      map[string]int64 `json:"raw_counts"`
	WeightedCounts map[string]int64 `json:"weighted_counts"`
	TotalVotes     int              `json:"total_votes"`
	TotalWeight    int64            `json:"total_weight"`
	Abstains       int              `json:"abstains"`
	AbstainTokens  int64            `json:"abstain_tokens"`
	TokensInvested int64            `json:"tokens_invested"`
	Rounds         []Round          `json:"rounds,omitempty"`
	Seats          map[string]int   `json:"seats,omitempty"`
	SeatAwards     []SeatAward      `json:"seat_awards,omitempty"`
}

// HasWinner reports whether a single option won.
func (r *Result) HasWinner() bool {
	return r.Outcome == OutcomeWinner && r.Winner != ""
}

// Round is one instant-runoff counting round.
type Round struct {
	Number     int              `json:"number"`
	Weighted   map[string]int64 `json:"weighted"`
	Raw        map[string]int64 `json:"raw"`
	Exhausted  int              `json:"exhausted"`
	Eliminated []string         `json:"eliminated,omitempty"`
}

// SeatAward records one D'Hondt seat and the quotient that won it.
type SeatAward struct {
	Seat        int    `json:"seat"`
	Option      string `json:"option"`
	Numerator   int64  `json:"numerator"`
	Denominator int64  `json:"denominator"`
}

// Tally counts in.Votes under p.
func Tally(p Params, in Input) *Result {
	base := p.Base()
	r := &Result{
		Mechanism:      p.Mechanism(),
		RawCounts:      zeroCounts(in.Options),
		WeightedCounts: zeroCounts(in.Options),
	}

	var cast []weighted
	for _, v := range in.Votes {
		r.TokensInvested += int64(v.Tokens)
		if v.Abstain {
			r.Abstains++
			r.AbstainTokens += int64(v.Tokens)
			continue
		}
		w := int64(1)
		if in.CampaignScoped && base.Weighting == WeightingProportional {
			w = int64(v.Tokens)
		}
		cast = append(cast, weighted{ballot: v.Ballot, weight: w})
		r.TotalVotes++
		r.TotalWeight += w
	}

	idx := indexOf(in.Options)
	switch pp := p.(type) {
	case PluralityParams:
		countScores(r, cast, idx, pluralityPoints)
		pickLeader(r, in.Options, pp.WinningThresholdPercentage)
	case ApprovalParams:
		countScores(r, cast, idx, approvalPoints)
		pickLeader(r, in.Options, nil)
	case BordaParams:
		countScores(r, cast, idx, bordaPoints)
		pickLeader(r, in.Options, nil)
	case RunoffParams:
		runoff(r, cast, in.Options)
	case DHondtParams:
		countScores(r, cast, idx, pluralityPoints)
		dhondt(r, in.Options, pp.Seats)
	}

	r.Status = deriveStatus(r)
	return r
}

type weighted struct {
	ballot Ballot
	weight int64
}

func zeroCounts(options []string) map[string]int64 {
	m := make(map[string]int64, len(options))
	for _, o := range options {
		m[o] = 0
	}
	return m
}

func indexOf(options []string) map[string]int {
	m := make(map[string]int, len(options))
	for i, o := range options {
		m[o] = i
	}
	return m
}

// noVotes fills r for a scenario without any effective ballot and reports
// whether it did.
func noVotes(r *Result) bool {
	switch {
	case r.TotalVotes == 0:
		r.Outcome = OutcomeNoVotes
		r.Reason = "no votes were cast"
		return true
	case r.TotalWeight == 0:
		r.Outcome = OutcomeNoWinner
		r.Reason = "no ballot carried any weight"
		return true
	}
	return false
}

func deriveStatus(r *Result) Status {
	if r.TotalWeight == 0 {
		if r.Abstains > 0 {
			return StatusAbstained
		}
		return StatusNoVotes
	}
	switch r.Outcome {
	case OutcomeWinner, OutcomeSeatsAllocated:
		return StatusPassed
	case OutcomeTie, OutcomeAmbiguousTie:
		return StatusTied
	default:
		return StatusFailed
	}
}
