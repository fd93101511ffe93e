// Package view derives what the local player may see and do from a table
// snapshot and the player's identity. Every function is pure and nil-safe.
package view

import (
	"slices"
	"time"

	"holdem-sync/apps/client/internal/protocol"
	"holdem-sync/holdem"
)

// Unseated is the seat index of a player holding no seat.
const Unseated = -1

// MySeatIndex returns the index of the seat whose id matches myID.
func MySeatIndex(snap *protocol.Snapshot, myID string) int {
	if myID == "" {
		return Unseated
	}
	for i, seat := range snap.Seats() {
		if seat.ID == myID {
			return i
		}
	}
	return Unseated
}

func MySeat(snap *protocol.Snapshot, myID string) (protocol.Seat, bool) {
	idx := MySeatIndex(snap, myID)
	if idx == Unseated {
		return protocol.Seat{}, false
	}
	return snap.Game.Seats[idx], true
}

func IsHost(snap *protocol.Snapshot, myID string) bool {
	return snap != nil && myID != "" && snap.HostID == myID
}

// IsSpectator reports the server's spectator flag for the local user.
func IsSpectator(snap *protocol.Snapshot, myID string) bool {
	if snap == nil || myID == "" {
		return false
	}
	for _, u := range snap.Users {
		if u.ID == myID {
			return u.IsSpectator
		}
	}
	return false
}

// IsMyTurn is never true in Idle or Showdown, whatever currentActor says.
func IsMyTurn(snap *protocol.Snapshot, myID string) bool {
	if snap == nil || snap.Game == nil {
		return false
	}
	stage := snap.Stage()
	if stage == holdem.StageIdle || stage == holdem.StageShowdown {
		return false
	}
	idx := MySeatIndex(snap, myID)
	if idx == Unseated {
		return false
	}
	return snap.Game.CurrentActor == idx && snap.Game.Seats[idx].Status == holdem.SeatActive
}

// CallAmount is the chips needed to match the table's current bet.
func CallAmount(snap *protocol.Snapshot, myID string) int64 {
	if snap == nil || snap.Game == nil {
		return 0
	}
	seat, _ := MySeat(snap, myID)
	owed := snap.Game.CurrentBet - seat.CurrentBet
	if owed < 0 {
		return 0
	}
	return owed
}

func CanCheck(snap *protocol.Snapshot, myID string) bool {
	return CallAmount(snap, myID) == 0
}

func CanCall(snap *protocol.Snapshot, myID string) bool {
	if CallAmount(snap, myID) <= 0 {
		return false
	}
	seat, _ := MySeat(snap, myID)
	return seat.Chips > 0
}

// Bounds is the raise-to window for the local player.
type Bounds struct {
	Min int64
	Max int64
}

func (b Bounds) CanRaise() bool {
	return b.Max >= b.Min && b.Min > 0
}

func RaiseBounds(snap *protocol.Snapshot, myID string) Bounds {
	var b Bounds
	if snap != nil && snap.Game != nil {
		b.Min = snap.Game.CurrentBet + snap.Game.MinRaise
	}
	if seat, ok := MySeat(snap, myID); ok {
		b.Max = seat.CurrentBet + seat.Chips
	}
	return b
}

// ClampRaise bounds a requested raise amount. Negative bounds count as zero;
// when the window is inverted the upper bound wins.
func ClampRaise(amount int64, b Bounds) int64 {
	lo := max(b.Min, 0)
	hi := max(b.Max, 0)
	if hi < lo {
		return hi
	}
	return min(max(amount, lo), hi)
}

// OwesShowdownDecision reports whether the local player may still choose to
// show or muck: as the uncontested winner before the hand resets, or at
// showdown with an undecided optional reveal.
func OwesShowdownDecision(snap *protocol.Snapshot, myID string) bool {
	if snap == nil || snap.Game == nil {
		return false
	}
	idx := MySeatIndex(snap, myID)
	if idx == Unseated {
		return false
	}
	stage := snap.Stage()
	if snap.Game.FoldWinner == idx {
		return stage != holdem.StageIdle
	}
	if stage != holdem.StageShowdown {
		return false
	}
	for _, r := range snap.Game.ShowdownResults {
		if r.SeatIndex == idx {
			return !r.MustShow && !r.HasDecided
		}
	}
	return false
}

// CanRebuy allows topping up only between hands.
func CanRebuy(snap *protocol.Snapshot, myID string) bool {
	return MySeatIndex(snap, myID) != Unseated && snap.Stage() == holdem.StageIdle
}

func ShowStartNextHand(snap *protocol.Snapshot) bool {
	return snap != nil && snap.IsGameInProgress && snap.Stage() == holdem.StageIdle
}

// CanStartNextHand is ShowStartNextHand once the showdown reveal window that
// ends at unlockAt has passed. A zero unlockAt means no window is running.
func CanStartNextHand(snap *protocol.Snapshot, unlockAt, now time.Time) bool {
	if !ShowStartNextHand(snap) {
		return false
	}
	return unlockAt.IsZero() || !now.Before(unlockAt)
}

// MadeHand evaluates the local player's best hand from their hole cards and
// the board. It needs at least five face-up cards.
func MadeHand(snap *protocol.Snapshot, myID string) (holdem.HandResult, bool) {
	seat, ok := MySeat(snap, myID)
	if !ok {
		return holdem.HandResult{}, false
	}
	cards := append(slices.Clone(seat.Hand), snap.Game.Board...)
	return holdem.EvalBest(cards)
}
