package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/abrezinsky/tokenvote/internal/errors"
)

func TestInitializeParticipant_Idempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.setupCampaign(t, 60, 1)

	p, err := f.ledger.InitializeParticipant(ctx, c.ID, "erin")
	if err != nil {
		t.Fatalf("InitializeParticipant failed: %v", err)
	}
	if p.TotalTokens != 60 || p.RemainingTokens != 60 {
		t.Errorf("expected full budget of 60, got %+v", p)
	}

	if _, err := f.ledger.ReserveAndDebit(ctx, c.ID, "erin", 25); err != nil {
		t.Fatalf("ReserveAndDebit failed: %v", err)
	}
	again, err := f.ledger.InitializeParticipant(ctx, c.ID, "erin")
	if err != nil {
		t.Fatalf("InitializeParticipant failed: %v", err)
	}
	if again.RemainingTokens != 35 {
		t.Errorf("expected existing balance 35 returned unchanged, got %d", again.RemainingTokens)
	}
}

func TestInitializeParticipant_UnknownCampaign(t *testing.T) {
	f := setup(t)

	_, err := f.ledger.InitializeParticipant(context.Background(), "missing", "erin")
	assertKind(t, err, errors.ErrNotFound)
}

func TestReserveAndDebit_Insufficient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.setupCampaign(t, 20, 1)

	balance, err := f.ledger.ReserveAndDebit(ctx, c.ID, "erin", 15)
	if err != nil || balance != 5 {
		t.Fatalf("expected balance 5, got %d %v", balance, err)
	}

	_, err = f.ledger.ReserveAndDebit(ctx, c.ID, "erin", 6)
	assertKind(t, err, errors.ErrInsufficientTokens)
	if got := detail(t, err, "remaining_tokens"); got != 5 {
		t.Errorf("expected remaining_tokens 5, got %v", got)
	}
	if got := detail(t, err, "requested_tokens"); got != 6 {
		t.Errorf("expected requested_tokens 6, got %v", got)
	}
}

func TestReserveAndDebit_NegativeAmount(t *testing.T) {
	f := setup(t)
	c := f.setupCampaign(t, 20, 1)

	_, err := f.ledger.ReserveAndDebit(context.Background(), c.ID, "erin", -1)
	assertKind(t, err, errors.ErrValidation)
}

func TestReserveAndDebit_ConcurrentNeverOverdraws(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.setupCampaign(t, 100, 1)

	amounts := []int{9, 13, 25, 7, 31, 18, 22, 5, 40, 11, 3, 27}
	var wg sync.WaitGroup
	var spent atomic.Int64
	for _, amount := range amounts {
		wg.Add(1)
		go func(amount int) {
			defer wg.Done()
			_, err := f.ledger.ReserveAndDebit(ctx, c.ID, "erin", amount)
			if err == nil {
				spent.Add(int64(amount))
				return
			}
			if !errors.Is(err, errors.ErrInsufficientTokens) {
				t.Errorf("unexpected error: %v", err)
			}
		}(amount)
	}
	wg.Wait()

	if spent.Load() > 100 {
		t.Fatalf("successful debits total %d, above the budget of 100", spent.Load())
	}
	if got := f.balance(t, c.ID, "erin"); int64(got) != 100-spent.Load() {
		t.Errorf("expected balance %d, got %d", 100-spent.Load(), got)
	}
}

func TestRefund_CappedAtBudget(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.setupCampaign(t, 50, 1)
	f.ledger.ReserveAndDebit(ctx, c.ID, "erin", 20)

	balance, err := f.ledger.Refund(ctx, c.ID, "erin", 35)
	if err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	if balance != 50 {
		t.Errorf("expected refund capped at 50, got %d", balance)
	}
}

func TestRefund_UnknownParticipant(t *testing.T) {
	f := setup(t)
	c := f.setupCampaign(t, 50, 1)

	_, err := f.ledger.Refund(context.Background(), c.ID, "nobody", 5)
	assertKind(t, err, errors.ErrNotFound)
}
