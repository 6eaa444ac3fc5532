package game

import "poker-platform/pkg/poker"

// Pot is one settlement unit: an amount and the seats eligible to win
// it. The main pot is eligible for every non-folded contributor; each
// side pot layer is eligible only for the non-folded seats whose stack
// reached that contribution level (§4.4).
type Pot struct {
	Amount   int64
	Eligible []int // seat indices eligible to win this pot
}

// contribution is one seat's total commitment this hand, used to
// carve contribution levels into pot layers.
type contribution struct {
	seat   int
	amount int64
	folded bool
}

// ComputePots turns each seat's TotalBetHand into the main pot plus
// however many side pots the hand's all-ins produced. It groups seats
// by distinct contribution level, ascending, and carves a layer out of
// every level for the seats that reached it or further:
//
//	level[i] pot = (level[i] - level[i-1]) * count(seats with contribution >= level[i])
//
// Folded seats still count toward a pot's Amount (their chips are
// live) but are never added to a pot's Eligible list.
func ComputePots(seats []*Player) []*Pot {
	var contributions []contribution
	for i, p := range seats {
		if p == nil || p.TotalBetHand == 0 {
			continue
		}
		contributions = append(contributions, contribution{seat: i, amount: p.TotalBetHand, folded: p.Folded})
	}
	if len(contributions) == 0 {
		return nil
	}

	levels := distinctLevels(contributions)

	var pots []*Pot
	var prevLevel int64
	for _, level := range levels {
		layer := level - prevLevel
		if layer <= 0 {
			prevLevel = level
			continue
		}

		var eligible []int
		contributors := 0
		for _, c := range contributions {
			if c.amount >= level {
				contributors++
				if !c.folded {
					eligible = append(eligible, c.seat)
				}
			}
		}

		pots = append(pots, &Pot{
			Amount:   layer * int64(contributors),
			Eligible: eligible,
		})
		prevLevel = level
	}

	return pots
}

// validatePots checks that the pots about to be awarded reconcile
// exactly against what players put in this hand (§4.4, §8): a
// mismatch means a bug in ComputePots or in the bookkeeping that feeds
// it, not a legal table state, so it surfaces as an invariant error
// rather than a user-facing one.
func validatePots(pots []*Pot, seats []*Player) error {
	var potTotal int64
	for _, pot := range pots {
		if pot.Amount < 0 {
			return invariantErr(ErrPotValidation)
		}
		potTotal += pot.Amount
	}

	var contributed int64
	for _, p := range seats {
		if p == nil {
			continue
		}
		if p.TotalBetHand < 0 {
			return invariantErr(ErrPotValidation)
		}
		contributed += p.TotalBetHand
	}

	if potTotal != contributed {
		return invariantErr(ErrPotValidation)
	}
	return nil
}

func distinctLevels(contributions []contribution) []int64 {
	seen := make(map[int64]bool)
	var levels []int64
	for _, c := range contributions {
		if !seen[c.amount] {
			seen[c.amount] = true
			levels = append(levels, c.amount)
		}
	}
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j-1] > levels[j]; j-- {
			levels[j-1], levels[j] = levels[j], levels[j-1]
		}
	}
	return levels
}

// AwardResult records what a single seat won, for broadcast/logging
// and for the View Sanitizer's showdown reveal (§3, §4.6(c)). Rank and
// BestFive are zero-valued for an uncontested win, since no hand was
// ever evaluated.
type AwardResult struct {
	Seat     int
	Amount   int64
	Rank     poker.HandRank
	BestFive []poker.Card
}

// AwardPots settles every pot against the board, crediting winners'
// Chips directly and returning the per-seat breakdown. Within a pot,
// ties split the amount as evenly as integer division allows; any
// remainder is handed out one chip at a time starting from the seat
// immediately clockwise of the dealer button, which is the
// conventional deterministic odd-chip rule casinos use (§4.4, §9).
//
// Before crediting chips, it checks that the pots reconcile against
// player contributions (§4.4, §8): a mismatch means a bug upstream in
// ComputePots or hand/stage bookkeeping, not a legal game state.
func AwardPots(pots []*Pot, seats []*Player, evaluator *poker.HandEvaluator, board []poker.Card, dealerSeat int) ([]AwardResult, error) {
	if err := validatePots(pots, seats); err != nil {
		return nil, err
	}

	var results []AwardResult

	for _, pot := range pots {
		if len(pot.Eligible) == 0 {
			return nil, invariantErr(ErrNoEligibleWinners)
		}

		winners, err := bestSeats(pot.Eligible, seats, evaluator, board)
		if err != nil {
			return nil, err
		}

		seatOrder := make([]int, len(winners))
		hands := make(map[int]*poker.EvaluatedHand, len(winners))
		for i, w := range winners {
			seatOrder[i] = w.seat
			hands[w.seat] = w.hand
		}

		share := pot.Amount / int64(len(winners))
		remainder := pot.Amount % int64(len(winners))

		order := orderFromDealer(seatOrder, dealerSeat, len(seats))
		for i, seat := range order {
			amount := share
			if int64(i) < remainder {
				amount++
			}
			seats[seat].Chips += amount
			hand := hands[seat]
			results = append(results, AwardResult{
				Seat:     seat,
				Amount:   amount,
				Rank:     hand.Rank,
				BestFive: hand.BestFive,
			})
		}
	}

	return results, nil
}

// scoredHand is one eligible seat's evaluated best hand.
type scoredHand struct {
	seat int
	hand *poker.EvaluatedHand
}

// bestSeats evaluates every eligible seat's best 5-card hand against
// the board and returns the seats tied for the highest value, along
// with the hand each of them evaluated to.
func bestSeats(eligible []int, seats []*Player, evaluator *poker.HandEvaluator, board []poker.Card) ([]scoredHand, error) {
	var all []scoredHand
	for _, seat := range eligible {
		p := seats[seat]
		cards := append([]poker.Card{}, board...)
		cards = append(cards, p.HoleCards[0], p.HoleCards[1])
		hand, err := evaluator.Evaluate(cards)
		if err != nil {
			return nil, invariantErr(err)
		}
		all = append(all, scoredHand{seat: seat, hand: hand})
	}

	best := all[0].hand.Value
	for _, s := range all {
		if s.hand.Value > best {
			best = s.hand.Value
		}
	}

	var winners []scoredHand
	for _, s := range all {
		if s.hand.Value == best {
			winners = append(winners, s)
		}
	}
	return winners, nil
}

// orderFromDealer returns winners sorted by seat distance clockwise
// from dealerSeat, so odd-chip allocation is deterministic regardless
// of how Eligible was built.
func orderFromDealer(winners []int, dealerSeat, numSeats int) []int {
	distance := func(seat int) int {
		d := seat - dealerSeat
		if d <= 0 {
			d += numSeats
		}
		return d
	}

	ordered := append([]int{}, winners...)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && distance(ordered[j-1]) > distance(ordered[j]); j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}
	return ordered
}

// AwardUncontested pays the entire pot set to the single remaining
// non-folded seat without a showdown, used when every other player
// has folded (§4.4 fold-only win path).
func AwardUncontested(pots []*Pot, seats []*Player, seat int) []AwardResult {
	var total int64
	for _, pot := range pots {
		total += pot.Amount
	}
	seats[seat].Chips += total
	return []AwardResult{{Seat: seat, Amount: total}}
}
