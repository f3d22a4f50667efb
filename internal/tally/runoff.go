package tally

// runoff runs instant-runoff rounds until one option holds a strict
// majority of the active weight or elimination can no longer proceed.
// r.RawCounts and r.WeightedCounts hold the first-preference counts.
func runoff(r *Result, cast []weighted, options []string) {
	active := make(map[string]bool, len(options))
	for _, o := range options {
		active[o] = true
	}

	if noVotes(r) {
		return
	}

	for number := 1; ; number++ {
		round := Round{
			Number:   number,
			Weighted: make(map[string]int64),
			Raw:      make(map[string]int64),
		}
		var remaining []string
		for _, o := range options {
			if active[o] {
				remaining = append(remaining, o)
				round.Weighted[o] = 0
				round.Raw[o] = 0
			}
		}

		var total int64
		for _, c := range cast {
			choice, ok := firstActive(c.ballot.Ranking, active)
			if !ok {
				round.Exhausted++
				continue
			}
			round.Weighted[choice] += c.weight
			round.Raw[choice]++
			total += c.weight
		}
		if number == 1 {
			for o := range round.Weighted {
				r.WeightedCounts[o] = round.Weighted[o]
				r.RawCounts[o] = round.Raw[o]
			}
		}

		var leader string
		var top int64 = -1
		for _, o := range remaining {
			if round.Weighted[o] > top {
				top = round.Weighted[o]
				leader = o
			}
		}

		if len(remaining) == 1 {
			r.Rounds = append(r.Rounds, round)
			r.Outcome = OutcomeWinner
			r.Winner = leader
			return
		}
		if total == 0 {
			r.Rounds = append(r.Rounds, round)
			r.Outcome = OutcomeNoWinner
			r.TiedOptions = remaining
			r.Reason = "no active preferences remain"
			return
		}
		if top*2 > total {
			r.Rounds = append(r.Rounds, round)
			r.Outcome = OutcomeWinner
			r.Winner = leader
			return
		}

		lowest, low, next := lowestSet(remaining, round.Weighted)
		if len(lowest) == len(remaining) {
			r.Rounds = append(r.Rounds, round)
			r.Outcome = OutcomeTie
			r.TiedOptions = remaining
			r.Reason = "remaining options are tied"
			return
		}
		// Dropping several options at once is safe only when their combined
		// weight cannot lift any of them past the next-lowest option.
		if len(lowest) > 1 && low*int64(len(lowest)) >= next {
			r.Rounds = append(r.Rounds, round)
			r.Outcome = OutcomeAmbiguousTie
			r.TiedOptions = lowest
			r.Reason = "tied lowest options cannot be eliminated deterministically"
			return
		}

		round.Eliminated = lowest
		r.Rounds = append(r.Rounds, round)
		for _, o := range lowest {
			active[o] = false
		}
	}
}

func firstActive(ranking []string, active map[string]bool) (string, bool) {
	for _, o := range ranking {
		if active[o] {
			return o, true
		}
	}
	return "", false
}

// lowestSet returns the options sharing the minimum weight, that weight,
// and the smallest weight above it.
func lowestSet(remaining []string, weights map[string]int64) ([]string, int64, int64) {
	low := weights[remaining[0]]
	for _, o := range remaining[1:] {
		if weights[o] < low {
			low = weights[o]
		}
	}
	var lowest []string
	next := int64(-1)
	for _, o := range remaining {
		w := weights[o]
		if w == low {
			lowest = append(lowest, o)
		} else if next < 0 || w < next {
			next = w
		}
	}
	return lowest, low, next
}
