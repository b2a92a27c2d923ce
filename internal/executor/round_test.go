package executor

import (
	"testing"
	"time"

	"github.com/mselser95/crossarb/internal/testutil"
	"github.com/mselser95/crossarb/pkg/types"
)

func TestTakerLeg_RemainingAmount(t *testing.T) {
	leg := &TakerLeg{TargetAmount: testutil.Dec("1")}

	if !leg.RemainingAmount().Equal(testutil.Dec("1")) {
		t.Errorf("expected full remainder, got %s", leg.RemainingAmount())
	}

	leg.Fills = append(leg.Fills, types.Fill{Price: testutil.Dec("100"), Amount: testutil.Dec("0.6")})
	if !leg.RemainingAmount().Equal(testutil.Dec("0.4")) {
		t.Errorf("expected 0.4 remaining, got %s", leg.RemainingAmount())
	}

	// Overfills clamp to zero instead of going negative.
	leg.Fills = append(leg.Fills, types.Fill{Price: testutil.Dec("100"), Amount: testutil.Dec("0.5")})
	if leg.RemainingAmount().Sign() != 0 {
		t.Errorf("expected zero remainder on overfill, got %s", leg.RemainingAmount())
	}
}

func TestTakerLeg_DueForSubmit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	delay := 10 * time.Second

	leg := &TakerLeg{}
	if !leg.dueForSubmit(now, delay) {
		t.Error("never-submitted leg should be due")
	}

	leg.SubmittedAt = now
	if leg.dueForSubmit(now.Add(9*time.Second), delay) {
		t.Error("leg should not be due inside the retry delay")
	}
	if !leg.dueForSubmit(now.Add(10*time.Second), delay) {
		t.Error("leg should be due exactly at the retry delay")
	}
}

func TestHedgeRound_IsFailedBoundary(t *testing.T) {
	round := &HedgeRound{Legs: []*TakerLeg{{TrialCount: 3}, {TrialCount: 1}}}

	if round.IsFailed(3) {
		t.Error("trial count equal to the ceiling is not a failure")
	}
	if !round.IsFailed(2) {
		t.Error("trial count above the ceiling is a failure")
	}
}

func TestHedgeRound_IsComplete(t *testing.T) {
	done := &types.OrderEvent{Kind: types.OrderCompleted}
	round := &HedgeRound{Legs: []*TakerLeg{{Completed: done}, {}}}

	if round.IsComplete() {
		t.Error("round with a pending leg is not complete")
	}

	round.Legs[1].Completed = done
	if !round.IsComplete() {
		t.Error("round with all legs completed is complete")
	}
}

func TestHedgeRound_LegByOrderID(t *testing.T) {
	leg := &TakerLeg{OrderID: "abc"}
	round := &HedgeRound{Legs: []*TakerLeg{{}, leg}}

	if got := round.legByOrderID("abc"); got != leg {
		t.Error("expected lookup by order id to find the bound leg")
	}
	if round.legByOrderID("") != nil {
		t.Error("empty order id must not match an unbound leg")
	}
	if round.legByOrderID("nope") != nil {
		t.Error("unknown order id must not match")
	}
}
