package tally_test

import (
	"reflect"
	"testing"

	"github.com/abrezinsky/tokenvote/internal/tally"
)

func dhondtParams(t *testing.T, seats int) tally.Params {
	t.Helper()
	p, err := tally.ParseParams(tally.DHondt, map[string]any{"seats": seats})
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	return p
}

func TestDHondt_ThreeSeats(t *testing.T) {
	in := scoped([]string{"A", "B", "C"}, pick("A", 100), pick("B", 80), pick("C", 40))

	r := tally.Tally(dhondtParams(t, 3), in)

	if r.Outcome != tally.OutcomeSeatsAllocated {
		t.Fatalf("expected seats_allocated, got %s", r.Outcome)
	}
	want := map[string]int{"A": 2, "B": 1, "C": 0}
	if !reflect.DeepEqual(r.Seats, want) {
		t.Errorf("seats = %v, want %v", r.Seats, want)
	}

	order := []string{r.SeatAwards[0].Option, r.SeatAwards[1].Option, r.SeatAwards[2].Option}
	if !reflect.DeepEqual(order, []string{"A", "B", "A"}) {
		t.Errorf("award order = %v, want [A B A]", order)
	}
	third := r.SeatAwards[2]
	if third.Numerator != 100 || third.Denominator != 2 {
		t.Errorf("expected third seat at 100/2, got %d/%d", third.Numerator, third.Denominator)
	}
	if r.Winner != "" {
		t.Errorf("expected no single winner, got %q", r.Winner)
	}
	if r.Status != tally.StatusPassed {
		t.Errorf("expected status passed, got %s", r.Status)
	}
}

func TestDHondt_TieGoesToFirstDefinedOption(t *testing.T) {
	in := scoped([]string{"B", "A"}, pick("A", 50), pick("B", 50))

	r := tally.Tally(dhondtParams(t, 1), in)

	if r.Seats["B"] != 1 || r.Seats["A"] != 0 {
		t.Errorf("expected the seat to go to B (defined first), got %v", r.Seats)
	}
}

func TestDHondt_NoVotesAllocatesNothing(t *testing.T) {
	r := tally.Tally(dhondtParams(t, 2), scoped([]string{"A", "B"}, abstain(4)))

	if r.Outcome != tally.OutcomeNoVotes {
		t.Fatalf("expected no_votes, got %s", r.Outcome)
	}
	if r.Seats["A"] != 0 || r.Seats["B"] != 0 || len(r.SeatAwards) != 0 {
		t.Errorf("expected no seats, got %v", r.Seats)
	}
}

func TestDHondt_MoreSeatsThanParties(t *testing.T) {
	in := scoped([]string{"A", "B"}, pick("A", 9), pick("B", 3))

	r := tally.Tally(dhondtParams(t, 4), in)

	// Quotients: A 9, 4.5, 3, 2.25; B 3, 1.5. Seats: A, A, A|B tie -> A, B.
	want := map[string]int{"A": 3, "B": 1}
	if !reflect.DeepEqual(r.Seats, want) {
		t.Errorf("seats = %v, want %v", r.Seats, want)
	}
}
