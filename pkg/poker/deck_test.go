package poker

import "testing"

// sequentialShuffler permutes deterministically for tests: Intn(n)
// always returns 0, so every Fisher-Yates step swaps with the top card
// and the deck ends up rotated left by one, a fixed, easily
// reasoned-about order rather than real randomness.
type sequentialShuffler struct{}

func (sequentialShuffler) Intn(n int) int { return 0 }

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := NewDeck()
	seen := make(map[int]bool, 52)
	for i := 0; i < 52; i++ {
		c := d.DealOne()
		if seen[c.ID()] {
			t.Fatalf("dealt duplicate card %v", c)
		}
		seen[c.ID()] = true
	}
	if d.RemainingCount() != 0 {
		t.Errorf("expected 0 remaining, got %d", d.RemainingCount())
	}
}

func TestDeckDealFromEmptyPanics(t *testing.T) {
	d := NewDeck()
	d.DealMany(52)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic dealing from an empty deck")
		}
	}()
	d.DealOne()
}

func TestDeckResetRestoresFullDeck(t *testing.T) {
	d := NewDeck()
	d.DealMany(10)
	d.Reset()
	if d.RemainingCount() != 52 {
		t.Fatalf("expected 52 remaining after reset, got %d", d.RemainingCount())
	}
}

func TestDeckShuffleReordersWithoutLosingCards(t *testing.T) {
	d := NewDeck()
	before := StandardDeck() // NewDeck's order prior to the shuffle
	d.Shuffle(sequentialShuffler{})

	seen := make(map[int]bool, 52)
	moved := 0
	for i := 0; i < 52; i++ {
		c := d.DealOne()
		seen[c.ID()] = true
		if c != before[i] {
			moved++
		}
	}
	if len(seen) != 52 {
		t.Fatalf("shuffle lost or duplicated cards, got %d distinct", len(seen))
	}
	if moved == 0 {
		t.Fatal("shuffle left every card in its original position")
	}
}

func TestNewPrearrangedDeckDealsGivenOrder(t *testing.T) {
	want := []Card{NewCard(RankA, SuitSpades), NewCard(RankK, SuitHearts)}
	d := NewPrearrangedDeck(want)
	for _, c := range want {
		if got := d.DealOne(); got != c {
			t.Errorf("DealOne() = %v, want %v", got, c)
		}
	}
}
