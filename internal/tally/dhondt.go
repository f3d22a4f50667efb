package tally

// dhondt awards seats one at a time to the option with the highest quotient
// votes/(awarded+1), using r.WeightedCounts as the votes. Equal quotients go
// to the option defined first.
func dhondt(r *Result, options []string, seats int) {
	r.Seats = make(map[string]int, len(options))
	for _, o := range options {
		r.Seats[o] = 0
	}
	if noVotes(r) {
		return
	}

	for seat := 1; seat <= seats; seat++ {
		best := ""
		for _, o := range options {
			if r.WeightedCounts[o] == 0 {
				continue
			}
			if best == "" || beats(r.WeightedCounts[o], r.Seats[o], r.WeightedCounts[best], r.Seats[best]) {
				best = o
			}
		}
		if best == "" {
			r.Outcome = OutcomeNoWinner
			r.Reason = "no option received any votes"
			return
		}
		r.SeatAwards = append(r.SeatAwards, SeatAward{
			Seat:        seat,
			Option:      best,
			Numerator:   r.WeightedCounts[best],
			Denominator: int64(r.Seats[best] + 1),
		})
		r.Seats[best]++
	}
	r.Outcome = OutcomeSeatsAllocated
}

// beats compares va/(sa+1) > vb/(sb+1) without division.
func beats(va int64, sa int, vb int64, sb int) bool {
	return va*int64(sb+1) > vb*int64(sa+1)
}
