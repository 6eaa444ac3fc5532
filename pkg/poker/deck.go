package poker

import "fmt"

// Shuffler is the minimal source of randomness a Deck needs: a
// uniform integer in [0, n). Production callers pass pkg/rng's
// cryptographic System; tests pass a seeded source or the prearranged
// constructor below.
type Shuffler interface {
	Intn(n int) int
}

// Deck is the 52-card universe plus a cursor into already-dealt cards.
// It does not model burns semantically: a burn is simply a deal whose
// result the caller discards.
type Deck struct {
	cards []Card
	dealt int
}

// NewDeck returns a freshly reset, unshuffled deck.
func NewDeck() *Deck {
	d := &Deck{cards: make([]Card, 52)}
	d.Reset()
	return d
}

// NewPrearrangedDeck builds a deck that deals the given cards in
// order. Shuffle and Reset still act on it as on any deck (Shuffle
// permutes the undealt cards; Reset restores the standard 52), so the
// given order holds only while neither is called. It exists purely for
// deterministic tests and must never be used in production dealing
// paths.
func NewPrearrangedDeck(cards []Card) *Deck {
	cp := make([]Card, len(cards))
	copy(cp, cards)
	return &Deck{cards: cp, dealt: 0}
}

// Reset restores the deck to all 52 cards, unshuffled, with nothing
// dealt. Called at the start of every hand.
func (d *Deck) Reset() {
	std := StandardDeck()
	if cap(d.cards) < 52 {
		d.cards = make([]Card, 52)
	}
	d.cards = d.cards[:52]
	copy(d.cards, std[:])
	d.dealt = 0
}

// Shuffle performs a Fisher-Yates shuffle over the not-yet-dealt
// portion of the deck using the injected randomness source. Shuffle
// is normally called once, immediately after Reset.
func (d *Deck) Shuffle(rng Shuffler) {
	remaining := d.cards[d.dealt:]
	for i := len(remaining) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		remaining[i], remaining[j] = remaining[j], remaining[i]
	}
}

// DealOne deals the next card off the top of the deck. Dealing from an
// empty deck is a programmer error: a legal hand deals at most
// 2*players + 3 burns + 5 board = 22 cards from a 52-card deck, so
// exhaustion can only mean a bug upstream.
func (d *Deck) DealOne() Card {
	if d.dealt >= len(d.cards) {
		panic(fmt.Sprintf("poker: deal from empty deck (dealt %d of %d)", d.dealt, len(d.cards)))
	}
	c := d.cards[d.dealt]
	d.dealt++
	return c
}

// DealMany deals n sequential cards.
func (d *Deck) DealMany(n int) []Card {
	out := make([]Card, n)
	for i := 0; i < n; i++ {
		out[i] = d.DealOne()
	}
	return out
}

// RemainingCount returns how many cards are left to deal.
func (d *Deck) RemainingCount() int {
	return len(d.cards) - d.dealt
}
