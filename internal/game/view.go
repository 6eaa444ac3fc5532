package game

import "poker-platform/pkg/poker"

// PlayerSnapshot is one seat's full internal truth, the input to
// sanitization.
type PlayerSnapshot struct {
	SeatIndex int
	ID        string
	Name      string
	Chips     int64

	HoleCards [2]poker.Card
	HasCards  bool

	CurrentBet   int64
	TotalBetHand int64

	Folded       bool
	AllIn        bool
	Active       bool
	IsDealer     bool
	IsSmallBlind bool
	IsBigBlind   bool
}

// PotSnapshot mirrors Pot for external consumption (no seat-index
// aliasing into live table state).
type PotSnapshot struct {
	Amount   int64
	Eligible []int
}

// WinnerInfo is one seat's share of the most recently settled hand,
// carried on the snapshot so the View Sanitizer can reveal the winning
// hand alongside the usual showdown hole-card reveal (§3, §4.6(c)).
// Rank and BestFive are zero-valued for an uncontested win.
type WinnerInfo struct {
	SeatIndex int
	Amount    int64
	Rank      poker.HandRank
	BestFive  []poker.Card
}

// TableSnapshot is a table's complete internal state at an instant,
// independently copied so a caller can hold it indefinitely without
// racing the owner goroutine's next mutation.
type TableSnapshot struct {
	ID         string
	Stage      Stage
	HandNumber int
	Dealer     int
	ActingSeat int
	SmallBlind int64
	BigBlind   int64
	Board      []poker.Card
	Pots       []PotSnapshot
	Seats      []*PlayerSnapshot // nil entries are empty seats

	// Winners holds the most recently settled hand's payouts. It is
	// populated from StageShowdown through StageHandCleanup and cleared
	// when the next hand starts.
	Winners []WinnerInfo
}

// Snapshot copies the table's current state. Called only from the
// owner goroutine (inside gameLoop, via notify), so it never races a
// concurrent mutation.
func (t *Table) Snapshot() TableSnapshot {
	seats := make([]*PlayerSnapshot, len(t.seats))
	for i, p := range t.seats {
		if p == nil {
			continue
		}
		seats[i] = &PlayerSnapshot{
			SeatIndex:    p.SeatIndex,
			ID:           p.ID,
			Name:         p.Name,
			Chips:        p.Chips,
			HoleCards:    p.HoleCards,
			HasCards:     p.HasCards,
			CurrentBet:   p.CurrentBet,
			TotalBetHand: p.TotalBetHand,
			Folded:       p.Folded,
			AllIn:        p.AllIn,
			Active:       p.Active,
			IsDealer:     p.IsDealer,
			IsSmallBlind: p.IsSmallBlind,
			IsBigBlind:   p.IsBigBlind,
		}
	}

	pots := make([]PotSnapshot, len(t.pots))
	for i, pot := range t.pots {
		eligible := append([]int{}, pot.Eligible...)
		pots[i] = PotSnapshot{Amount: pot.Amount, Eligible: eligible}
	}

	return TableSnapshot{
		ID:         t.ID,
		Stage:      t.stage,
		HandNumber: t.handNo,
		Dealer:     t.dealer,
		ActingSeat: t.actingSeat,
		SmallBlind: t.config.SmallBlind,
		BigBlind:   t.config.BigBlind,
		Board:      append([]poker.Card{}, t.board...),
		Pots:       pots,
		Seats:      seats,
		Winners:    winnerInfos(t.winners),
	}
}

// winnerInfos projects the engine's internal AwardResult onto the
// snapshot-facing WinnerInfo shape.
func winnerInfos(results []AwardResult) []WinnerInfo {
	out := make([]WinnerInfo, len(results))
	for i, r := range results {
		out[i] = WinnerInfo{
			SeatIndex: r.Seat,
			Amount:    r.Amount,
			Rank:      r.Rank,
			BestFive:  r.BestFive,
		}
	}
	return out
}

// PlayerView is what an observer is shown for one seat: hole cards
// are present only when the observer is entitled to see them.
type PlayerView struct {
	SeatIndex    int
	ID           string
	Name         string
	Chips        int64
	HoleCards    []poker.Card // 0, 1, or 2 cards depending on entitlement
	CurrentBet   int64
	TotalBetHand int64
	Folded       bool
	AllIn        bool
	Active       bool
	IsDealer     bool
	IsSmallBlind bool
	IsBigBlind   bool
}

// View is the sanitized projection of a TableSnapshot handed to one
// observer.
type View struct {
	ID         string
	Stage      Stage
	HandNumber int
	Dealer     int
	ActingSeat int
	SmallBlind int64
	BigBlind   int64
	Board      []poker.Card
	Pots       []PotSnapshot
	Seats      []*PlayerView

	// Winners is populated at showdown/payouts/cleanup (the window in
	// which a contested hand's hole cards are revealed); nil the rest of
	// the hand.
	Winners []WinnerInfo
}

// Sanitize is a pure function of (snapshot, observerID): it reveals an
// observer's own hole cards always, every player's hole cards once the
// hand reaches showdown and they were not mucked by folding, and
// nothing else. Calling it twice on the same snapshot for the same
// observer yields identical output (§4.6 idempotence law).
func Sanitize(snap TableSnapshot, observerID string) View {
	v := View{
		ID:         snap.ID,
		Stage:      snap.Stage,
		HandNumber: snap.HandNumber,
		Dealer:     snap.Dealer,
		ActingSeat: snap.ActingSeat,
		SmallBlind: snap.SmallBlind,
		BigBlind:   snap.BigBlind,
		Board:      append([]poker.Card{}, snap.Board...),
		Pots:       snap.Pots,
		Seats:      make([]*PlayerView, len(snap.Seats)),
	}

	settled := snap.Stage == StageShowdown || snap.Stage == StagePayouts || snap.Stage == StageHandCleanup
	if settled {
		v.Winners = snap.Winners
	}

	// A hand won uncontested never reaches showdown: with fewer than two
	// non-folded hands left, nothing is revealed.
	live := 0
	for _, p := range snap.Seats {
		if p != nil && p.HasCards && !p.Folded {
			live++
		}
	}
	revealAll := settled && live >= 2

	for i, p := range snap.Seats {
		if p == nil {
			continue
		}
		entitled := p.ID == observerID || (revealAll && !p.Folded)

		pv := &PlayerView{
			SeatIndex:    p.SeatIndex,
			ID:           p.ID,
			Name:         p.Name,
			Chips:        p.Chips,
			CurrentBet:   p.CurrentBet,
			TotalBetHand: p.TotalBetHand,
			Folded:       p.Folded,
			AllIn:        p.AllIn,
			Active:       p.Active,
			IsDealer:     p.IsDealer,
			IsSmallBlind: p.IsSmallBlind,
			IsBigBlind:   p.IsBigBlind,
		}
		if entitled && p.HasCards {
			pv.HoleCards = []poker.Card{p.HoleCards[0], p.HoleCards[1]}
		}
		v.Seats[i] = pv
	}

	return v
}

// View builds and sanitizes a fresh snapshot for observerID. Like
// Join/Leave/SubmitAction it is routed through the owner goroutine so
// it never reads a half-applied transition.
func (t *Table) View(observerID string) View {
	reply := make(chan View, 1)
	t.events <- tableEvent{kind: eventView, viewObserver: observerID, viewReply: reply}
	return <-reply
}
