package tally

import "fmt"

// pointFunc reports the raw and weighted points a ballot gives each option.
type pointFunc func(b Ballot, weight int64, emit func(option string, raw, weighted int64))

func pluralityPoints(b Ballot, weight int64, emit func(string, int64, int64)) {
	emit(b.Option, 1, weight)
}

func approvalPoints(b Ballot, weight int64, emit func(string, int64, int64)) {
	for _, o := range b.Approved {
		emit(o, 1, weight)
	}
}

// bordaPoints gives rank k of n ranked options n-k points.
func bordaPoints(b Ballot, weight int64, emit func(string, int64, int64)) {
	n := int64(len(b.Ranking))
	for i, o := range b.Ranking {
		points := n - int64(i+1)
		emit(o, points, weight*points)
	}
}

func countScores(r *Result, cast []weighted, idx map[string]int, points pointFunc) {
	for _, c := range cast {
		points(c.ballot, c.weight, func(option string, raw, w int64) {
			if _, ok := idx[option]; !ok {
				return
			}
			r.RawCounts[option] += raw
			r.WeightedCounts[option] += w
		})
	}
}

// pickLeader resolves a max-score winner from r.WeightedCounts. A nil
// threshold disables the winning-share check.
func pickLeader(r *Result, options []string, threshold *float64) {
	if noVotes(r) {
		return
	}

	var best int64
	var leaders []string
	var total int64
	for _, o := range options {
		c := r.WeightedCounts[o]
		total += c
		switch {
		case c > best:
			best = c
			leaders = []string{o}
		case c == best && c > 0:
			leaders = append(leaders, o)
		}
	}

	if best == 0 {
		r.Outcome = OutcomeNoWinner
		r.Reason = "no option received any points"
		return
	}
	if threshold != nil && float64(best)*100 < *threshold*float64(total) {
		r.Outcome = OutcomeNoWinner
		r.Reason = fmt.Sprintf("leading option did not reach the %.2f%% winning threshold", *threshold)
		if len(leaders) > 1 {
			r.TiedOptions = leaders
		}
		return
	}
	if len(leaders) > 1 {
		r.Outcome = OutcomeTie
		r.TiedOptions = leaders
		r.Reason = "multiple options share the highest count"
		return
	}
	r.Outcome = OutcomeWinner
	r.Winner = leaders[0]
}
