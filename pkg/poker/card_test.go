package poker

import "testing"

func TestCardIDRoundTrip(t *testing.T) {
	for rank := Rank2; rank <= RankA; rank++ {
		for suit := SuitClubs; suit <= SuitSpades; suit++ {
			c := NewCard(rank, suit)
			id := c.ID()
			if id < 0 || id > 51 {
				t.Fatalf("card %v produced out-of-range id %d", c, id)
			}
			restored := CardFromID(id)
			if restored != c {
				t.Errorf("CardFromID(%d) = %v, want %v", id, restored, c)
			}
		}
	}
}

func TestCardStringParseRoundTrip(t *testing.T) {
	cases := []Card{
		NewCard(RankA, SuitSpades),
		NewCard(Rank10, SuitHearts),
		NewCard(Rank2, SuitClubs),
		NewCard(RankK, SuitDiamonds),
	}
	for _, c := range cases {
		s := c.String()
		parsed, err := ParseCard(s)
		if err != nil {
			t.Fatalf("ParseCard(%q): %v", s, err)
		}
		if parsed != c {
			t.Errorf("ParseCard(%q) = %v, want %v", s, parsed, c)
		}
	}
}

func TestParseCardRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "A", "Axx", "1s", "Az"} {
		if _, err := ParseCard(s); err == nil {
			t.Errorf("ParseCard(%q) expected an error, got none", s)
		}
	}
}

func TestStandardDeckHas52DistinctCards(t *testing.T) {
	deck := StandardDeck()
	seen := make(map[int]bool, 52)
	for _, c := range deck {
		id := c.ID()
		if seen[id] {
			t.Fatalf("duplicate card id %d in standard deck", id)
		}
		seen[id] = true
	}
	if len(seen) != 52 {
		t.Fatalf("expected 52 distinct cards, got %d", len(seen))
	}
}
