package game

import (
	"context"
	"testing"
	"time"
)

// fixedShuffler satisfies poker.Shuffler deterministically for tests
// that only care that a shuffle happened, not what it produced.
type fixedShuffler struct{}

func (fixedShuffler) Intn(n int) int { return 0 }

func TestApplyDefaultsFillsUnsetFields(t *testing.T) {
	var c TableConfig
	c.applyDefaults()

	if c.MaxPlayers != 5 {
		t.Errorf("MaxPlayers = %d, want 5", c.MaxPlayers)
	}
	if c.SmallBlind != 5 || c.BigBlind != 10 {
		t.Errorf("blinds = %d/%d, want 5/10", c.SmallBlind, c.BigBlind)
	}
	if c.StartingStack != 1000 {
		t.Errorf("StartingStack = %d, want 1000", c.StartingStack)
	}
	if c.ActionTimeout != 20*time.Second {
		t.Errorf("ActionTimeout = %v, want 20s", c.ActionTimeout)
	}
	if c.PayoutDisplay != 3*time.Second {
		t.Errorf("PayoutDisplay = %v, want 3s", c.PayoutDisplay)
	}
	if c.InterHandDelay != 2*time.Second {
		t.Errorf("InterHandDelay = %v, want 2s", c.InterHandDelay)
	}
	if c.EmptyTableReapInterval != 5*time.Minute {
		t.Errorf("EmptyTableReapInterval = %v, want 5m", c.EmptyTableReapInterval)
	}
}

func newTestTable(maxPlayers int) *Table {
	cfg := TableConfig{MaxPlayers: maxPlayers, SmallBlind: 5, BigBlind: 10}
	return NewTable("t1", cfg, fixedShuffler{})
}

func TestHandleJoinSeatsFirstEmptySeat(t *testing.T) {
	tb := newTestTable(3)
	if err := tb.handleJoin("p1", "Alice", 500); err != nil {
		t.Fatalf("handleJoin: %v", err)
	}
	if tb.seats[0] == nil || tb.seats[0].ID != "p1" {
		t.Fatalf("expected p1 seated at index 0, got %+v", tb.seats)
	}
	if tb.seats[0].Chips != 500 {
		t.Errorf("Chips = %d, want 500", tb.seats[0].Chips)
	}
}

func TestHandleJoinDefaultsBuyInToStartingStack(t *testing.T) {
	tb := newTestTable(2)
	if err := tb.handleJoin("p1", "Alice", 0); err != nil {
		t.Fatalf("handleJoin: %v", err)
	}
	if tb.seats[0].Chips != tb.config.StartingStack {
		t.Errorf("Chips = %d, want the configured starting stack %d", tb.seats[0].Chips, tb.config.StartingStack)
	}
}

func TestHandleJoinRejectsDuplicateAndFullTable(t *testing.T) {
	tb := newTestTable(1)
	if err := tb.handleJoin("p1", "Alice", 500); err != nil {
		t.Fatalf("handleJoin: %v", err)
	}
	if err := tb.handleJoin("p1", "Alice", 500); err == nil {
		t.Error("expected an error re-joining the same player ID")
	}
	if err := tb.handleJoin("p2", "Bob", 500); err == nil {
		t.Error("expected an error joining a full table")
	}
}

func TestHandleLeaveFoldsActingPlayer(t *testing.T) {
	tb := newTestTable(2)
	_ = tb.handleJoin("p1", "Alice", 500)
	tb.stage = StagePreflop
	tb.seats[0].Active = true
	tb.actingSeat = 0
	leaver := tb.seats[0]

	if err := tb.handleLeave("p1"); err != nil {
		t.Fatalf("handleLeave: %v", err)
	}
	if !leaver.Folded {
		t.Error("expected the acting player to be folded on leaving")
	}
	if tb.seats[0] != nil {
		t.Error("expected the seat to be cleared after leaving")
	}
}

func TestHandleLeaveHandsOffTheDealerButton(t *testing.T) {
	tb := newTestTable(3)
	_ = tb.handleJoin("p1", "Alice", 500)
	_ = tb.handleJoin("p2", "Bob", 500)
	_ = tb.handleJoin("p3", "Carol", 500)
	tb.dealer = 0

	if err := tb.handleLeave("p1"); err != nil {
		t.Fatalf("handleLeave: %v", err)
	}
	if tb.dealer != 1 {
		t.Errorf("dealer = %d, want 1 (the next occupied seat after the vacated button)", tb.dealer)
	}
}

func TestHandleLeaveOfNonDealerSeatLeavesTheButtonAlone(t *testing.T) {
	tb := newTestTable(3)
	_ = tb.handleJoin("p1", "Alice", 500)
	_ = tb.handleJoin("p2", "Bob", 500)
	_ = tb.handleJoin("p3", "Carol", 500)
	tb.dealer = 0

	if err := tb.handleLeave("p2"); err != nil {
		t.Fatalf("handleLeave: %v", err)
	}
	if tb.dealer != 0 {
		t.Errorf("dealer = %d, want unchanged at 0", tb.dealer)
	}
}

func TestStartHandAnchorsPreflopActionAtBigBlindHeadsUp(t *testing.T) {
	tb := newTestTable(2)
	_ = tb.handleJoin("p1", "Alice", 1000)
	_ = tb.handleJoin("p2", "Bob", 1000)
	tb.stage = StageStartingHand

	if !tb.advance() {
		t.Fatal("advance() from StageStartingHand should report progress")
	}

	if tb.stage != StagePreflop {
		t.Fatalf("stage = %v, want StagePreflop", tb.stage)
	}
	if tb.round.CurrentBet != tb.config.BigBlind {
		t.Errorf("round.CurrentBet = %d, want the big blind %d", tb.round.CurrentBet, tb.config.BigBlind)
	}

	// Heads-up: the dealer posts the small blind and acts first, so
	// NextToAct searching forward from the anchored big-blind seat
	// must land on the dealer/small-blind seat.
	next := tb.round.NextToAct(tb.seats, tb.priorActor())
	if tb.seats[next] == nil || !tb.seats[next].IsSmallBlind {
		t.Errorf("expected first-to-act seat to be the small blind, got seat %d: %+v", next, tb.seats[next])
	}
}

func TestAwardAndCleanupPendingOnUncontestedFold(t *testing.T) {
	tb := newTestTable(2)
	_ = tb.handleJoin("p1", "Alice", 1000)
	_ = tb.handleJoin("p2", "Bob", 1000)
	tb.stage = StageStartingHand
	tb.advance() // deals preflop

	// Whoever acts first folds.
	next := tb.round.NextToAct(tb.seats, tb.priorActor())
	p := tb.seats[next]
	if err := tb.round.Apply(p, next, Action{Kind: ActionFold}, tb.config.BigBlind); err != nil {
		t.Fatalf("fold: %v", err)
	}

	seat, done := tb.checkUncontested()
	if !done {
		t.Fatal("expected the hand to be decided uncontested after the only opponent folds")
	}
	tb.awardAndCleanupPending(seat)
	if tb.stage != StageHandCleanup {
		t.Errorf("stage = %v, want StageHandCleanup", tb.stage)
	}
}

// TestFullHeadsUpHandUncontestedFold drives a real Table through its
// actor goroutine: two players join, the first to act folds preflop,
// and the pot is awarded to the other player without a showdown.
func TestFullHeadsUpHandUncontestedFold(t *testing.T) {
	cfg := TableConfig{
		MaxPlayers:     2,
		SmallBlind:     5,
		BigBlind:       10,
		StartingStack:  1000,
		ActionTimeout:  5 * time.Second,
		PayoutDisplay:  time.Millisecond,
		InterHandDelay: time.Millisecond,
	}

	snapshots := make(chan TableSnapshot, 256)
	actionRequests := make(chan int, 16)

	tb := NewTable("heads-up", cfg, fixedShuffler{},
		WithStateChangeHook(func(s TableSnapshot) {
			select {
			case snapshots <- s:
			default:
			}
		}),
		WithActionRequestHook(func(seat int, _ BettingOptions) {
			select {
			case actionRequests <- seat:
			default:
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tb.Start(ctx)
	defer tb.Stop()

	if err := tb.Join("p1", "Alice", 1000); err != nil {
		t.Fatalf("Join p1: %v", err)
	}
	if err := tb.Join("p2", "Bob", 1000); err != nil {
		t.Fatalf("Join p2: %v", err)
	}

	var actingSeat int
	select {
	case actingSeat = <-actionRequests:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first action request")
	}

	actingID := "p1"
	if actingSeat != 0 {
		actingID = "p2"
	}
	if err := tb.SubmitAction(Action{PlayerID: actingID, Kind: ActionFold}); err != nil {
		t.Fatalf("SubmitAction(fold): %v", err)
	}

	var final TableSnapshot
	found := false
	deadline := time.After(2 * time.Second)
	for !found {
		select {
		case s := <-snapshots:
			if s.Stage == StageHandCleanup {
				final = s
				found = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for hand cleanup after the uncontested fold")
		}
	}

	var total int64
	for _, s := range final.Seats {
		if s != nil {
			total += s.Chips
		}
	}
	if total != 2000 {
		t.Errorf("total chips = %d, want 2000 (conserved across the hand)", total)
	}
}
