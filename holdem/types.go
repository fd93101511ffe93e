package holdem

import "strings"

// NoSeat marks an absent seat pointer (currentActor, foldWinner) on the wire.
const NoSeat = -1

// Stage 游戏阶段, as reported by the table authority.
type Stage string

const (
	StageIdle     Stage = "Idle"
	StagePreFlop  Stage = "PreFlop"
	StageFlop     Stage = "Flop"
	StageTurn     Stage = "Turn"
	StageRiver    Stage = "River"
	StageShowdown Stage = "Showdown"
)

// Normalize maps a missing stage to Idle.
func (s Stage) Normalize() Stage {
	if s == "" {
		return StageIdle
	}
	return s
}

// Betting reports whether chips can still move on this street.
func (s Stage) Betting() bool {
	switch s.Normalize() {
	case StagePreFlop, StageFlop, StageTurn, StageRiver:
		return true
	}
	return false
}

// SeatStatus 座位状态
type SeatStatus string

const (
	SeatSittingOut SeatStatus = "SittingOut"
	SeatWaiting    SeatStatus = "Waiting"
	SeatActive     SeatStatus = "Active"
	SeatFolded     SeatStatus = "Folded"
	SeatAllIn      SeatStatus = "AllIn"
)

// Command 动作类型 carried by a game_action request.
type Command string

const (
	CommandFold  Command = "fold"
	CommandCheck Command = "check"
	CommandCall  Command = "call"
	CommandRaise Command = "raise"
	CommandAllIn Command = "allin"
)

var Commands = []Command{CommandFold, CommandCheck, CommandCall, CommandRaise, CommandAllIn}

// ParseCommand accepts the wire names case-insensitively ("all-in" too).
func ParseCommand(s string) (Command, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "all-in" || norm == "all_in" {
		norm = string(CommandAllIn)
	}
	for _, c := range Commands {
		if string(c) == norm {
			return c, nil
		}
	}
	return "", UnknownCommandError(s)
}

// NeedsAmount reports whether the command carries a target amount.
func (c Command) NeedsAmount() bool { return c == CommandRaise }
