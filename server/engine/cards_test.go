package engine

import (
	"errors"
	"testing"
)

func TestCardRoundTrip(t *testing.T) {
	for id := 0; id < DeckSize; id++ {
		c := Card(id)
		got, err := ParseCard(c.String())
		if err != nil {
			t.Fatalf("ParseCard(%q): %v", c.String(), err)
		}
		if got != c {
			t.Fatalf("round trip %q: got %d, want %d", c.String(), got, c)
		}
	}
}

func TestCardDisplay(t *testing.T) {
	cases := []struct {
		id   Card
		want string
	}{
		{0, "AC"},
		{9, "10C"},
		{12, "KC"},
		{13, "AD"},
		{23, "JD"},
		{38, "KH"},
		{51, "KS"},
	}
	for _, tc := range cases {
		if got := tc.id.String(); got != tc.want {
			t.Errorf("Card(%d).String() = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestCardValues(t *testing.T) {
	cases := []struct {
		card        string
		rank, value int
	}{
		{"AC", 1, 1},
		{"9D", 9, 9},
		{"10H", 10, 10},
		{"JS", 11, 10},
		{"QC", 12, 10},
		{"KD", 13, 10},
	}
	for _, tc := range cases {
		c, err := ParseCard(tc.card)
		if err != nil {
			t.Fatalf("ParseCard(%q): %v", tc.card, err)
		}
		if c.Rank() != tc.rank {
			t.Errorf("%s rank = %d, want %d", tc.card, c.Rank(), tc.rank)
		}
		if c.Value() != tc.value {
			t.Errorf("%s value = %d, want %d", tc.card, c.Value(), tc.value)
		}
	}
}

func TestParseCardTrimsPadding(t *testing.T) {
	c, err := ParseCard(" 5C")
	if err != nil {
		t.Fatalf("ParseCard(\" 5C\"): %v", err)
	}
	if c.String() != "5C" {
		t.Fatalf("got %s, want 5C", c)
	}
}

func TestParseCardErrors(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"", ErrInvalidCardFormat},
		{"5", ErrInvalidCardFormat},
		{"10CX", ErrInvalidCardFormat},
		{"XC", ErrInvalidCardRank},
		{"11C", ErrInvalidCardRank},
		{"0S", ErrInvalidCardRank},
		{"5Z", ErrInvalidCardSuit},
		{"10E", ErrInvalidCardSuit},
	}
	for _, tc := range cases {
		if _, err := ParseCard(tc.in); !errors.Is(err, tc.want) {
			t.Errorf("ParseCard(%q) = %v, want %v", tc.in, err, tc.want)
		}
	}
}
