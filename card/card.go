package card

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Card 牌
//
// 编码规则:
// - 高4位: 花色 (0:Club, 1:Diamond, 2:Heart, 3:Spade)
// - 低4位: 点数+1 (1:2, 2:3 ... 9:T, 10:J, 11:Q, 12:K, 13:A)
//
// The zero value is CardInvalid, which is also what a face-down card decodes to.
type Card byte

const CardInvalid Card = 0

const rankChars = "23456789TJQKA"

// New builds a card from wire rank (0:2 .. 12:A) and suit.
func New(rank int, suit Suit) Card {
	if rank < 0 || rank >= len(rankChars) || suit > Spade {
		return CardInvalid
	}
	return Card(byte(suit)<<4 | byte(rank+1))
}

func (c Card) Valid() bool {
	r := c & 0x0F
	return r >= 1 && int(r) <= len(rankChars) && Suit(c>>4) <= Spade
}

// Rank returns the wire rank 0..12 (2..A), or -1 for an invalid card.
func (c Card) Rank() int {
	if !c.Valid() {
		return -1
	}
	return int(c&0x0F) - 1
}

func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

// String 返回两字符标签 (如 "As", "Td"); 无效牌为 "??"
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string(rankChars[c.Rank()]) + c.Suit().String()
}

// Parse 将字符串 (如 "As", "Td", "10h") 转换为 Card
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %q", s)
	}

	var suit Suit
	switch s[len(s)-1] {
	case 'c', 'C':
		suit = Club
	case 'd', 'D':
		suit = Diamond
	case 'h', 'H':
		suit = Heart
	case 's', 'S':
		suit = Spade
	default:
		return CardInvalid, fmt.Errorf("invalid suit: %c", s[len(s)-1])
	}

	rankStr := strings.ToUpper(s[:len(s)-1])
	if rankStr == "10" {
		rankStr = "T"
	}
	if len(rankStr) != 1 {
		return CardInvalid, fmt.Errorf("invalid rank: %s", rankStr)
	}
	rank := strings.IndexByte(rankChars, rankStr[0])
	if rank < 0 {
		return CardInvalid, fmt.Errorf("invalid rank: %s", rankStr)
	}
	return New(rank, suit), nil
}

type wireCard struct {
	Rank *int   `json:"rank,omitempty"`
	Suit *int   `json:"suit,omitempty"`
	Str  string `json:"str,omitempty"`
}

// UnmarshalJSON accepts the server's {rank,suit,str} object. Anything it
// cannot read decodes to CardInvalid instead of failing the whole snapshot.
func (c *Card) UnmarshalJSON(data []byte) error {
	*c = CardInvalid
	var w wireCard
	if err := json.Unmarshal(data, &w); err != nil {
		return nil
	}
	if w.Str != "" {
		if parsed, err := Parse(w.Str); err == nil {
			*c = parsed
			return nil
		}
	}
	if w.Rank != nil && w.Suit != nil && *w.Suit >= 0 && *w.Suit <= int(Spade) {
		*c = New(*w.Rank, Suit(*w.Suit))
	}
	return nil
}

func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	rank, suit := c.Rank(), int(c.Suit())
	return json.Marshal(wireCard{Rank: &rank, Suit: &suit, Str: c.String()})
}

// Labels formats a run of cards as "As Kd ??".
func Labels(cs []Card) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}
