package holdem

import (
	"slices"

	"holdem-sync/card"
)

// HandType 牌型, weakest first.
type HandType byte

const (
	HandInvalid HandType = iota
	HandHighCard
	HandOnePair
	HandTwoPair
	HandThreeOfKind
	HandStraight
	HandFlush
	HandFullHouse
	HandFourOfKind
	HandStraightFlush
	HandRoyalFlush
)

var handTypeNames = [...]string{
	HandInvalid:       "",
	HandHighCard:      "High Card",
	HandOnePair:       "One Pair",
	HandTwoPair:       "Two Pair",
	HandThreeOfKind:   "Three of a Kind",
	HandStraight:      "Straight",
	HandFlush:         "Flush",
	HandFullHouse:     "Full House",
	HandFourOfKind:    "Four of a Kind",
	HandStraightFlush: "Straight Flush",
	HandRoyalFlush:    "Royal Flush",
}

func (h HandType) String() string {
	if int(h) < len(handTypeNames) {
		return handTypeNames[h]
	}
	return ""
}

// HandResult is the best five-card hand found among the given cards.
type HandResult struct {
	Score    uint32 // Larger is stronger.
	HandType HandType
	Best     [5]card.Card
}

// EvalBest evaluates the best 5-card hand from 5 to 7 cards. Invalid cards
// or a count outside that range yield ok == false.
func EvalBest(cards []card.Card) (HandResult, bool) {
	n := len(cards)
	if n < 5 || n > 7 {
		return HandResult{}, false
	}
	for _, c := range cards {
		if !c.Valid() {
			return HandResult{}, false
		}
	}

	var best HandResult
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						five := [5]card.Card{cards[a], cards[b], cards[c], cards[d], cards[e]}
						score, handType := eval5(five)
						if score > best.Score {
							best = HandResult{Score: score, HandType: handType, Best: five}
						}
					}
				}
			}
		}
	}
	return best, true
}

// eval5 scores five valid cards: the hand type in the high bits, then up to
// five rank nibbles ordered by significance.
func eval5(cards [5]card.Card) (score uint32, handType HandType) {
	var counts [13]int
	flush := true
	for i, c := range cards {
		counts[c.Rank()]++
		if i > 0 && c.Suit() != cards[0].Suit() {
			flush = false
		}
	}

	// Ranks grouped by multiplicity, larger groups then higher ranks first.
	type group struct{ rank, count int }
	groups := make([]group, 0, 5)
	for r := 12; r >= 0; r-- {
		if counts[r] > 0 {
			groups = append(groups, group{r, counts[r]})
		}
	}
	slices.SortStableFunc(groups, func(x, y group) int { return y.count - x.count })

	kickers := make([]int, 0, 5)
	for _, g := range groups {
		kickers = append(kickers, g.rank)
	}

	straightHigh := -1
	if len(groups) == 5 {
		switch {
		case kickers[0]-kickers[4] == 4:
			straightHigh = kickers[0]
		case kickers[0] == 12 && kickers[1] == 3:
			straightHigh = 3 // A-2-3-4-5
		}
	}

	switch {
	case straightHigh >= 0 && flush:
		handType = HandStraightFlush
		if straightHigh == 12 {
			handType = HandRoyalFlush
		}
		kickers = []int{straightHigh}
	case groups[0].count == 4:
		handType = HandFourOfKind
	case groups[0].count == 3 && groups[1].count == 2:
		handType = HandFullHouse
	case flush:
		handType = HandFlush
	case straightHigh >= 0:
		handType = HandStraight
		kickers = []int{straightHigh}
	case groups[0].count == 3:
		handType = HandThreeOfKind
	case groups[0].count == 2 && groups[1].count == 2:
		handType = HandTwoPair
	case groups[0].count == 2:
		handType = HandOnePair
	default:
		handType = HandHighCard
	}

	score = uint32(handType) << 20
	for i, r := range kickers {
		score |= uint32(r+1) << (16 - 4*i)
	}
	return score, handType
}
