package view

import (
	"time"

	"holdem-sync/apps/client/internal/protocol"
	"holdem-sync/holdem"
)

// Affordances bundles every derived flag a front end needs for one render.
// Compute knows nothing about the showdown reveal window, so CanStartNextHand
// equals ShowStartNextHand until a caller applies WithRevealLock.
type Affordances struct {
	SeatIndex         int
	Seated            bool
	Host              bool
	Spectator         bool
	MyTurn            bool
	CallAmount        int64
	CanCheck          bool
	CanCall           bool
	Raise             Bounds
	CanRaise          bool
	ShowdownDecision  bool
	CanRebuy          bool
	ShowStartNextHand bool
	CanStartNextHand  bool
	MadeHand          holdem.HandType
}

func Compute(snap *protocol.Snapshot, myID string) Affordances {
	idx := MySeatIndex(snap, myID)
	bounds := RaiseBounds(snap, myID)
	a := Affordances{
		SeatIndex:         idx,
		Seated:            idx != Unseated,
		Host:              IsHost(snap, myID),
		Spectator:         IsSpectator(snap, myID),
		MyTurn:            IsMyTurn(snap, myID),
		CallAmount:        CallAmount(snap, myID),
		CanCheck:          CanCheck(snap, myID),
		CanCall:           CanCall(snap, myID),
		Raise:             bounds,
		CanRaise:          bounds.CanRaise(),
		ShowdownDecision:  OwesShowdownDecision(snap, myID),
		CanRebuy:          CanRebuy(snap, myID),
		ShowStartNextHand: ShowStartNextHand(snap),
		CanStartNextHand:  ShowStartNextHand(snap),
	}
	if made, ok := MadeHand(snap, myID); ok {
		a.MadeHand = made.HandType
	}
	return a
}

// CanAct reports whether betting buttons are live: it is our turn and no
// earlier action is still awaiting the server.
func (a Affordances) CanAct(pending bool) bool {
	return a.MyTurn && !pending
}

// WithRevealLock narrows CanStartNextHand to the reveal window ending at unlockAt.
func (a Affordances) WithRevealLock(snap *protocol.Snapshot, unlockAt, now time.Time) Affordances {
	a.CanStartNextHand = CanStartNextHand(snap, unlockAt, now)
	return a
}
