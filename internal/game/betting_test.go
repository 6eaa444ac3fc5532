package game

import "testing"

func newActingPlayer(chips, currentBet int64) *Player {
	return &Player{Chips: chips, CurrentBet: currentBet, Active: true}
}

func TestBettingOptionsOpenRoundAllowsCheckOrBet(t *testing.T) {
	r := NewBettingRound(0)
	p := newActingPlayer(1000, 0)
	opts := r.Options(p, 0, 10)

	if !opts.CanCheck || !opts.CanBet {
		t.Fatalf("expected check and bet to be legal on an unopened round, got %+v", opts)
	}
	if opts.MinBet != 10 {
		t.Errorf("MinBet = %d, want 10 (the big blind)", opts.MinBet)
	}
}

func TestBettingApplyCallMatchesOutstandingBet(t *testing.T) {
	r := NewBettingRound(40)
	p := newActingPlayer(1000, 0)
	if err := r.Apply(p, 0, Action{Kind: ActionCall}, 10); err != nil {
		t.Fatalf("Apply(call): %v", err)
	}
	if p.CurrentBet != 40 {
		t.Errorf("CurrentBet = %d, want 40", p.CurrentBet)
	}
	if p.Chips != 960 {
		t.Errorf("Chips = %d, want 960", p.Chips)
	}
}

func TestBettingApplyRejectsRaiseBelowMinimum(t *testing.T) {
	r := NewBettingRound(40)
	r.LastRaiseAmount = 40
	p := newActingPlayer(1000, 0)
	err := r.Apply(p, 0, Action{Kind: ActionRaise, Amount: 50}, 10)
	if err == nil {
		t.Fatal("expected an error raising only to 50 when the minimum raise is to 80")
	}
}

// TestShortAllInDoesNotReopenAction reproduces the canonical scenario:
// BB=10, a raise to 40, then a short all-in to 55 (a raise of only 15,
// below the full 30 increment). The original raiser must only be able
// to call or fold -- not re-raise -- since the short all-in never
// reopened action for seats that already acted this round.
func TestShortAllInDoesNotReopenAction(t *testing.T) {
	seats := []*Player{
		{Chips: 1000, Active: true},  // seat 0: raises to 40
		{Chips: 1000, Active: true},  // seat 1: folds
		{Chips: 55, Active: true},    // seat 2: short all-in to 55
	}

	r := NewBettingRound(10)
	r.LastRaiseAmount = 10

	if err := r.Apply(seats[0], 0, Action{Kind: ActionRaise, Amount: 40}, 10); err != nil {
		t.Fatalf("seat 0 raise: %v", err)
	}
	if err := r.Apply(seats[1], 1, Action{Kind: ActionFold}, 10); err != nil {
		t.Fatalf("seat 1 fold: %v", err)
	}
	if err := r.Apply(seats[2], 2, Action{Kind: ActionAllIn}, 10); err != nil {
		t.Fatalf("seat 2 all-in: %v", err)
	}
	if seats[2].Chips != 0 || seats[2].CurrentBet != 55 {
		t.Fatalf("seat 2 short all-in not applied correctly: %+v", seats[2])
	}

	opts := r.Options(seats[0], 0, 10)
	if opts.CanRaise {
		t.Error("expected seat 0 to be barred from raising again after a short all-in")
	}
	if !opts.CanCall {
		t.Error("expected seat 0 to still be able to call the short all-in")
	}
}

// TestFullRaiseReopensActionForEveryone verifies the complementary
// case: a raise that meets or exceeds the last full-raise increment
// clears acted entirely, letting even an already-acted seat raise
// again.
func TestFullRaiseReopensActionForEveryone(t *testing.T) {
	seats := []*Player{
		{Chips: 1000, Active: true}, // seat 0: opens for 20
		{Chips: 1000, Active: true}, // seat 1: raises to 60 (full raise)
	}
	r := NewBettingRound(0)

	if err := r.Apply(seats[0], 0, Action{Kind: ActionBet, Amount: 20}, 10); err != nil {
		t.Fatalf("seat 0 bet: %v", err)
	}
	if err := r.Apply(seats[1], 1, Action{Kind: ActionRaise, Amount: 60}, 10); err != nil {
		t.Fatalf("seat 1 raise: %v", err)
	}

	opts := r.Options(seats[0], 0, 10)
	if !opts.CanRaise {
		t.Error("expected seat 0 to be allowed to re-raise after a full raise reopened action")
	}
}

func TestIsCompleteWithSingleLivePlayer(t *testing.T) {
	r := NewBettingRound(0)
	seats := []*Player{
		{Active: true, Folded: false},
		{Active: true, Folded: true},
	}
	if !r.IsComplete(seats) {
		t.Error("expected the round to be complete with only one non-folded player")
	}
}

func TestNextToActSkipsFoldedAndAllIn(t *testing.T) {
	r := NewBettingRound(40)
	r.markActed(0)
	seats := []*Player{
		{Active: true, CurrentBet: 40},               // seat 0: acted, matched
		{Active: true, Folded: true, CurrentBet: 0},   // seat 1: folded
		{Active: true, AllIn: true, CurrentBet: 40},   // seat 2: all-in
		{Active: true, CurrentBet: 0},                 // seat 3: hasn't acted
	}
	next := r.NextToAct(seats, 0)
	if next != 3 {
		t.Errorf("NextToAct = %d, want 3", next)
	}
}

func TestResetForNextStagePreservesPreflopCurrentBet(t *testing.T) {
	seats := []*Player{{Active: true, CurrentBet: 10}}
	round := ResetForNextStage(seats, true, 10)
	if round.CurrentBet != 10 {
		t.Errorf("preflop reset CurrentBet = %d, want 10", round.CurrentBet)
	}
}

func TestResetForNextStageZeroesPostflopBets(t *testing.T) {
	seats := []*Player{{Active: true, CurrentBet: 40}}
	round := ResetForNextStage(seats, false, 0)
	if round.CurrentBet != 0 {
		t.Errorf("postflop reset CurrentBet = %d, want 0", round.CurrentBet)
	}
	if seats[0].CurrentBet != 0 {
		t.Errorf("player CurrentBet not cleared, got %d", seats[0].CurrentBet)
	}
}
