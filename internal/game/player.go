package game

import "poker-platform/pkg/poker"

// Player is a seat-resident participant. It is created on join,
// mutated only by betting and pot distribution, and cleared (cards
// emptied, flags reset, bets zeroed) at hand cleanup (§3).
type Player struct {
	ID    string
	Name  string
	Chips int64

	HoleCards [2]poker.Card
	HasCards  bool // true once hole cards are dealt this hand

	CurrentBet    int64 // bet committed so far in the current betting round
	TotalBetHand  int64 // total committed across the whole hand

	Folded       bool
	AllIn        bool
	Active       bool // participating in the current hand (not sitting out)
	IsDealer     bool
	IsSmallBlind bool
	IsBigBlind   bool

	LastAction *Action
	SeatIndex  int
}

// canAct reports whether the player can still take a betting action
// this hand.
func (p *Player) canAct() bool {
	return p != nil && p.Active && !p.Folded && !p.AllIn
}

// resetForHand clears a player's per-hand state at hand_cleanup,
// leaving chips and identity untouched.
func (p *Player) resetForHand() {
	p.HoleCards = [2]poker.Card{}
	p.HasCards = false
	p.CurrentBet = 0
	p.TotalBetHand = 0
	p.Folded = false
	p.AllIn = false
	p.IsDealer = false
	p.IsSmallBlind = false
	p.IsBigBlind = false
	p.LastAction = nil
	if p.Chips > 0 {
		p.Active = true
	}
}

// resetForStage clears the per-round bet and last action between
// betting stages, preserving TotalBetHand (§4.3 reset rules).
func (p *Player) resetForStage() {
	p.CurrentBet = 0
	p.LastAction = nil
}
