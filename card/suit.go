package card

// Suit follows the server's wire order.
type Suit byte

const (
	Club Suit = iota
	Diamond
	Heart
	Spade
)

func (s Suit) String() string {
	switch s {
	case Club:
		return "c"
	case Diamond:
		return "d"
	case Heart:
		return "h"
	case Spade:
		return "s"
	}
	return "?"
}

// Symbol returns the pictogram used by the terminal view.
func (s Suit) Symbol() string {
	switch s {
	case Diamond:
		return "♦"
	case Club:
		return "♣"
	case Heart:
		return "♥"
	case Spade:
		return "♠"
	}
	return "?"
}
