package game

// BettingRound is per-stage scratch state: the maximum individual bet
// this round, the increment that last counted as a full raise, the
// ordered action log, and which seat raised last (§3).
type BettingRound struct {
	CurrentBet      int64
	LastRaiseAmount int64
	LastRaiser      int
	Actions         []Action

	// acted tracks, by seat index, who has taken an action since the
	// last FULL raise. It is the single piece of bookkeeping that
	// drives both round completion (together with the currentBet
	// equality check) and the "a short all-in does not reopen
	// action" rule: a short all-in leaves this map untouched except
	// for marking itself, so anyone already in it remains barred
	// from raising again; a full raise clears it so everyone gets
	// another chance to act.
	acted map[int]bool
}

// NewBettingRound starts a round with the given opening current bet
// (0 post-flop, the big blind amount preflop).
func NewBettingRound(currentBet int64) *BettingRound {
	return &BettingRound{
		CurrentBet: currentBet,
		LastRaiser: -1,
		acted:      make(map[int]bool),
	}
}

// BettingOptions is the set of legal actions and sizing bounds for a
// player to act with (§4.3).
type BettingOptions struct {
	CanCheck   bool
	CanCall    bool
	CanBet     bool
	CanRaise   bool
	CallAmount int64
	MinBet     int64
	MinRaise   int64 // expressed as a delta from the player's current round bet
	MaxBet     int64 // delta from the player's current round bet; equals their stack
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Options computes the legal actions for player at seatIdx (§4.3).
func (r *BettingRound) Options(p *Player, seatIdx int, bigBlind int64) BettingOptions {
	if !p.canAct() {
		return BettingOptions{}
	}

	toCall := maxInt64(0, r.CurrentBet-p.CurrentBet)
	stack := p.Chips

	if r.CurrentBet == 0 {
		return BettingOptions{
			CanCheck: true,
			CanBet:   stack > 0,
			MinBet:   minInt64(bigBlind, stack),
			MaxBet:   stack,
		}
	}

	threshold := maxInt64(r.LastRaiseAmount, bigBlind)
	canRaise := stack+p.CurrentBet >= r.CurrentBet+threshold && !r.acted[seatIdx]
	minRaise := minInt64(r.CurrentBet-p.CurrentBet+threshold, stack)

	return BettingOptions{
		CanCheck:   toCall == 0,
		CanCall:    toCall > 0 && stack > 0,
		CanRaise:   canRaise,
		CallAmount: minInt64(toCall, stack),
		MinRaise:   minRaise,
		MaxBet:     stack,
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Apply executes action for the player at seatIdx, mutating player
// and round state per §4.3. It does not look up the player by ID or
// advance turn order; callers (the table state machine) own that.
func (r *BettingRound) Apply(p *Player, seatIdx int, action Action, bigBlind int64) error {
	opts := r.Options(p, seatIdx, bigBlind)

	switch action.Kind {
	case ActionFold:
		p.Folded = true
		p.LastAction = &action
		r.record(action)
		return nil

	case ActionCheck:
		if !opts.CanCheck {
			return userErr(ErrCannotCheck)
		}
		p.LastAction = &action
		r.markActed(seatIdx)
		r.record(action)
		return nil

	case ActionCall:
		if !opts.CanCall {
			return userErr(ErrCannotCall)
		}
		amount := minInt64(r.CurrentBet-p.CurrentBet, p.Chips)
		r.transfer(p, amount)
		p.LastAction = &action
		r.markActed(seatIdx)
		r.record(action)
		return nil

	case ActionBet:
		if !opts.CanBet {
			return userErr(ErrCannotBet)
		}
		if action.Amount > opts.MaxBet {
			return userErr(ErrAmountExceedsStack)
		}
		if action.Amount < opts.MinBet {
			return userErr(ErrBetBelowMinimum)
		}
		old := r.CurrentBet
		r.transfer(p, action.Amount)
		r.CurrentBet = p.CurrentBet
		r.applyRaiseBookkeeping(seatIdx, old, bigBlind)
		p.LastAction = &action
		r.record(action)
		return nil

	case ActionRaise:
		if !opts.CanRaise {
			return userErr(ErrCannotRaise)
		}
		if action.Amount > opts.MaxBet {
			return userErr(ErrAmountExceedsStack)
		}
		if action.Amount < opts.MinRaise {
			return userErr(ErrRaiseBelowMinimum)
		}
		old := r.CurrentBet
		r.transfer(p, action.Amount)
		r.CurrentBet = maxInt64(r.CurrentBet, p.CurrentBet)
		r.applyRaiseBookkeeping(seatIdx, old, bigBlind)
		p.LastAction = &action
		r.record(action)
		return nil

	case ActionAllIn:
		old := r.CurrentBet
		amount := p.Chips
		r.transfer(p, amount)
		if p.CurrentBet > r.CurrentBet {
			r.CurrentBet = p.CurrentBet
			r.applyRaiseBookkeeping(seatIdx, old, bigBlind)
		} else {
			r.markActed(seatIdx)
		}
		p.LastAction = &action
		r.record(action)
		return nil

	default:
		return userErr(ErrUnknownAction)
	}
}

// transfer moves amount from the player's stack into their round bet,
// marking them all-in if it exhausts their stack.
func (r *BettingRound) transfer(p *Player, amount int64) {
	p.Chips -= amount
	p.CurrentBet += amount
	p.TotalBetHand += amount
	if p.Chips == 0 {
		p.AllIn = true
	}
}

// applyRaiseBookkeeping updates LastRaiseAmount/LastRaiser/acted after
// a bet/raise/all-in that raised round.CurrentBet above old. A full
// raise (>= the greater of the last raise increment or the big blind)
// reopens action for every seat; a short raise only marks itself.
func (r *BettingRound) applyRaiseBookkeeping(seatIdx int, old, bigBlind int64) {
	raiseSize := r.CurrentBet - old
	threshold := maxInt64(r.LastRaiseAmount, bigBlind)
	if raiseSize >= threshold {
		r.LastRaiseAmount = raiseSize
		r.LastRaiser = seatIdx
		r.acted = map[int]bool{seatIdx: true}
	} else {
		r.markActed(seatIdx)
	}
}

func (r *BettingRound) markActed(seatIdx int) {
	if r.acted == nil {
		r.acted = make(map[int]bool)
	}
	r.acted[seatIdx] = true
}

func (r *BettingRound) record(a Action) {
	r.Actions = append(r.Actions, a)
}

// IsComplete reports whether the betting round is over: either at
// most one non-folded active player remains, or every non-all-in,
// non-folded active player has acted and matches round.CurrentBet
// (§4.3).
func (r *BettingRound) IsComplete(seats []*Player) bool {
	live := 0
	for _, p := range seats {
		if p != nil && p.Active && !p.Folded {
			live++
		}
	}
	if live <= 1 {
		return true
	}

	for i, p := range seats {
		if p == nil || !p.Active || p.Folded || p.AllIn {
			continue
		}
		if !r.acted[i] || p.CurrentBet != r.CurrentBet {
			return false
		}
	}
	return true
}

// NextToAct walks seats starting at (fromIndex+1)%N, skipping empty,
// inactive, folded, or all-in seats, and returns the first seat that
// either hasn't acted this round or whose bet trails CurrentBet. It
// returns -1 if no seat qualifies (§4.3).
func (r *BettingRound) NextToAct(seats []*Player, fromIndex int) int {
	n := len(seats)
	if n == 0 {
		return -1
	}
	for i := 1; i <= n; i++ {
		idx := (fromIndex + i) % n
		p := seats[idx]
		if p == nil || !p.Active || p.Folded || p.AllIn {
			continue
		}
		if !r.acted[idx] || p.CurrentBet < r.CurrentBet {
			return idx
		}
	}
	return -1
}

// ResetForNextStage prepares the round for the next betting stage.
// Postflop rounds zero everything; preflop preserves the blinds
// already posted in round.CurrentBet and each player's CurrentBet,
// clearing only the action log and raiser (§4.3).
func ResetForNextStage(seats []*Player, isPreflop bool, blindCurrentBet int64) *BettingRound {
	if isPreflop {
		round := NewBettingRound(blindCurrentBet)
		return round
	}

	round := NewBettingRound(0)
	for _, p := range seats {
		if p != nil && p.Active {
			p.resetForStage()
		}
	}
	return round
}
