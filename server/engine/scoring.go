package engine

import (
	"fmt"
	"sort"
)

// ScorePlay scores the card most recently added to the current count
// sequence seq (the cards pooled on the table since the last reset).
// trace, if non-nil, receives one human-readable line per scoring event,
// in fixed order: 15/31 total, then pairs, then runs.
func ScorePlay(seq []Card, trace func(msg string)) int {
	if len(seq) == 0 {
		return 0
	}
	if trace == nil {
		trace = func(string) {}
	}
	score := 0

	total := 0
	for _, c := range seq {
		total += c.Value()
	}
	if total == 15 {
		score += 2
		trace("2 points for 15 total")
	}
	if total == 31 {
		score += 2
		trace("2 points for 31 total")
	}

	// Pairs count only the same-rank cards immediately preceding the new
	// card, and only on the play that completes the group.
	last := seq[len(seq)-1]
	matched := []Card{last}
	for i := len(seq) - 2; i >= 0 && seq[i].Rank() == last.Rank(); i-- {
		matched = append(matched, seq[i])
	}
	switch len(matched) {
	case 2:
		score += 2
		trace(fmt.Sprintf("2 points for pair of %s", joinCards(matched)))
	case 3:
		score += 6
		trace(fmt.Sprintf("6 points for triplet of %s", joinCards(matched)))
	case 4:
		score += 12
		trace(fmt.Sprintf("12 points for quad of %s", joinCards(matched)))
	}

	// Runs: the longest tail holding consecutive ranks in any order. Only
	// the longest counts; it necessarily includes the new card.
	for n := len(seq); n >= 3; n-- {
		tail := seq[len(seq)-n:]
		if isRun(tail) {
			score += n
			trace(fmt.Sprintf("%d points for run of %s", n, joinCards(byRank(tail))))
			break
		}
	}
	return score
}

// ScoreShow scores a 4-card hand (or the crib) against the starter using
// the show-phase rules: fifteens, pairs, runs, flush, nobs, in that order.
func ScoreShow(hand []Card, starter Card, isCrib bool, trace func(msg string)) int {
	if trace == nil {
		trace = func(string) {}
	}
	cards := append(append([]Card(nil), hand...), starter)
	score := 0

	// Fifteens: every subset of 2..5 cards summing to 15 counts.
	for r := 2; r <= len(cards); r++ {
		combinations(len(cards), r, func(idx []int) {
			sum := 0
			for _, i := range idx {
				sum += cards[i].Value()
			}
			if sum != 15 {
				return
			}
			score += 2
			trace(fmt.Sprintf("2 points for 15 from %s", joinCards(pick(cards, idx))))
		})
	}

	// Pairs: 2 points per unordered same-rank pair, reported per rank group.
	counted := map[int]bool{}
	for i, c := range cards {
		if counted[c.Rank()] {
			continue
		}
		counted[c.Rank()] = true
		group := []Card{c}
		for _, other := range cards[i+1:] {
			if other.Rank() == c.Rank() {
				group = append(group, other)
			}
		}
		if len(group) < 2 {
			continue
		}
		pairs := len(group) * (len(group) - 1) / 2
		score += 2 * pairs
		noun := "pairs"
		if pairs == 1 {
			noun = "pair"
		}
		trace(fmt.Sprintf("%d points for %d %s of %s", 2*pairs, pairs, noun, joinCards(group)))
	}

	// Runs: only the longest length scores, but every distinct card
	// combination forming a run of that length counts (double runs).
	for n := len(cards); n >= 3; n-- {
		found := false
		combinations(len(cards), n, func(idx []int) {
			sub := pick(cards, idx)
			if !isRun(sub) {
				return
			}
			found = true
			score += n
			trace(fmt.Sprintf("%d points for run of %s", n, joinCards(byRank(sub))))
		})
		if found {
			break
		}
	}

	// Flush: 4 for a suited hand plus 1 if the starter matches. The crib
	// flush is all five cards or nothing.
	suit := hand[0].Suit()
	flush := true
	for _, c := range hand[1:] {
		if c.Suit() != suit {
			flush = false
			break
		}
	}
	if flush {
		if isCrib {
			if starter.Suit() == suit {
				score += 5
				trace(fmt.Sprintf("5 points for crib flush of %s", joinCards(cards)))
			}
		} else {
			score += 4
			trace(fmt.Sprintf("4 points for flush of %s", joinCards(hand)))
			if starter.Suit() == suit {
				score++
				trace(fmt.Sprintf("1 point for flush including starter %s", starter))
			}
		}
	}

	// Nobs: the jack matching the starter's suit.
	for _, c := range hand {
		if c.Rank() == JackRank && c.Suit() == starter.Suit() {
			score++
			trace(fmt.Sprintf("1 point for nobs with %s matching suit of starter %s", c, starter))
			break
		}
	}
	return score
}

// isRun reports whether the cards hold distinct consecutive ranks.
func isRun(cards []Card) bool {
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = c.Rank()
	}
	sort.Ints(ranks)
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return false
		}
	}
	return true
}

// byRank returns the cards sorted ascending by rank, for run display.
func byRank(cards []Card) []Card {
	out := append([]Card(nil), cards...)
	sort.Slice(out, func(i, j int) bool { return out[i].Rank() < out[j].Rank() })
	return out
}

func pick(cards []Card, idx []int) []Card {
	out := make([]Card, len(idx))
	for k, i := range idx {
		out[k] = cards[i]
	}
	return out
}

// combinations calls fn with every size-r index subset of [0,n) in
// lexicographic order, which fixes the trace order of fifteens and runs.
func combinations(n, r int, fn func(idx []int)) {
	if r < 0 || r > n {
		return
	}
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := r - 1
		for i >= 0 && idx[i] == n-r+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < r; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
