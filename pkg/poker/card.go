// Package poker implements the card universe, deck, and hand evaluator
// for the Texas Hold'em engine.
package poker

import "fmt"

// Rank is a card rank. Values are chosen so that higher ranks compare
// greater; Ace is high (14) everywhere except the wheel straight, which
// the evaluator special-cases.
type Rank int8

const (
	Rank2 Rank = iota + 2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
)

func (r Rank) String() string {
	switch r {
	case Rank2, Rank3, Rank4, Rank5, Rank6, Rank7, Rank8, Rank9:
		return string(rune('0' + int(r)))
	case Rank10:
		return "T"
	case RankJ:
		return "J"
	case RankQ:
		return "Q"
	case RankK:
		return "K"
	case RankA:
		return "A"
	default:
		return "?"
	}
}

// rankFromByte parses the single-character rank literal used in card
// strings ("T", "J", "Q", "K", "A", "2".."9").
func rankFromByte(b byte) (Rank, bool) {
	switch b {
	case '2', '3', '4', '5', '6', '7', '8', '9':
		return Rank(b - '0'), true
	case 'T', 't':
		return Rank10, true
	case 'J', 'j':
		return RankJ, true
	case 'Q', 'q':
		return RankQ, true
	case 'K', 'k':
		return RankK, true
	case 'A', 'a':
		return RankA, true
	default:
		return 0, false
	}
}

// Suit is a card suit.
type Suit int8

const (
	SuitClubs Suit = iota
	SuitDiamonds
	SuitHearts
	SuitSpades
)

func (s Suit) String() string {
	switch s {
	case SuitClubs:
		return "c"
	case SuitDiamonds:
		return "d"
	case SuitHearts:
		return "h"
	case SuitSpades:
		return "s"
	default:
		return "?"
	}
}

func suitFromByte(b byte) (Suit, bool) {
	switch b {
	case 'c', 'C':
		return SuitClubs, true
	case 'd', 'D':
		return SuitDiamonds, true
	case 'h', 'H':
		return SuitHearts, true
	case 's', 'S':
		return SuitSpades, true
	default:
		return 0, false
	}
}

// Card is an immutable (rank, suit) pair.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// NewCard builds a card from its rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// ID returns a dense 0-51 index for the card, useful for compact
// storage and as a shuffle permutation index.
func (c Card) ID() int {
	return int(c.Rank-Rank2)*4 + int(c.Suit)
}

// CardFromID is the inverse of Card.ID.
func CardFromID(id int) Card {
	return Card{Rank: Rank2 + Rank(id/4), Suit: Suit(id % 4)}
}

// String renders the card as its two-character literal, e.g. "As", "Th".
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// ParseCard parses a two-character card literal such as "As" or "Td"
// back into a Card. It is the inverse of Card.String, satisfying the
// round-trip law cardToString(stringToCard(s)) == s for any legal
// 2-char literal.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("poker: invalid card literal %q", s)
	}
	rank, ok := rankFromByte(s[0])
	if !ok {
		return Card{}, fmt.Errorf("poker: invalid card rank in %q", s)
	}
	suit, ok := suitFromByte(s[1])
	if !ok {
		return Card{}, fmt.Errorf("poker: invalid card suit in %q", s)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// StandardDeck returns the 52 distinct cards in ID order. Callers that
// need a deck to shuffle and deal from should use NewDeck instead;
// this is exposed for tests and for any code that needs the full card
// universe without dealing semantics (Deck.Reset builds from it).
func StandardDeck() [52]Card {
	var cards [52]Card
	for rank := Rank2; rank <= RankA; rank++ {
		for suit := SuitClubs; suit <= SuitSpades; suit++ {
			cards[Card{Rank: rank, Suit: suit}.ID()] = Card{Rank: rank, Suit: suit}
		}
	}
	return cards
}
