package protocol

import (
	"holdem-sync/card"
	"holdem-sync/holdem"

	"github.com/goccy/go-json"
)

// Snapshot is the full authoritative room state pushed in a gameState event.
// A decoded Snapshot is treated as immutable: the store replaces it wholesale.
type Snapshot struct {
	Users            []User             `json:"users"`
	Game             *Game              `json:"game,omitempty"`
	LobbyConfig      *LobbyConfig       `json:"lobbyConfig,omitempty"`
	ChatMessages     []ChatMessage      `json:"chatMessages,omitempty"`
	HostID           string             `json:"hostId"`
	IsGameInProgress bool               `json:"isGameInProgress"`
	Equities         map[string]float64 `json:"equities,omitempty"` // seat index -> equity
}

type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsSpectator bool   `json:"isSpectator"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
}

type LobbyConfig struct {
	RoomCode      string `json:"roomCode,omitempty"`
	MaxSeats      int    `json:"maxSeats"`
	StartingStack int64  `json:"startingStack"`
	SmallBlind    int64  `json:"smallBlind"`
	BigBlind      int64  `json:"bigBlind"`
	ActionTimeout int    `json:"actionTimeout"`
	GodMode       bool   `json:"godMode"`
}

type GameConfig struct {
	SmallBlind    int64 `json:"smallBlind"`
	BigBlind      int64 `json:"bigBlind"`
	MaxSeats      int   `json:"maxSeats"`
	StartingStack int64 `json:"startingStack"`
}

type Game struct {
	Config          GameConfig       `json:"config"`
	Seats           []Seat           `json:"seats"`
	Pot             int64            `json:"pot"`
	Board           []card.Card      `json:"board"`
	ButtonPos       int              `json:"buttonPos"`
	SBPos           int              `json:"sbPos"`
	BBPos           int              `json:"bbPos"`
	CurrentActor    int              `json:"currentActor"`
	MinRaise        int64            `json:"minRaise"`
	CurrentBet      int64            `json:"currentBet"`
	Stage           holdem.Stage     `json:"stage"`
	SidePots        []SidePot        `json:"sidePots,omitempty"`
	ShowdownResults []ShowdownResult `json:"showdownResults,omitempty"`
	FoldWinner      int              `json:"foldWinner"`
	IsAllInShowdown bool             `json:"isAllInShowdown"`
}

// UnmarshalJSON defaults absent seat pointers to holdem.NoSeat so a missing
// field never aliases seat 0.
func (g *Game) UnmarshalJSON(data []byte) error {
	type rawGame Game
	decoded := rawGame{
		ButtonPos:    holdem.NoSeat,
		SBPos:        holdem.NoSeat,
		BBPos:        holdem.NoSeat,
		CurrentActor: holdem.NoSeat,
		FoldWinner:   holdem.NoSeat,
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*g = Game(decoded)
	return nil
}

// Seat is one chair at the table. An empty chair has an empty ID.
type Seat struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Chips       int64             `json:"chips"`
	CurrentBet  int64             `json:"currentBet"`
	TotalBet    int64             `json:"totalBet"`
	Status      holdem.SeatStatus `json:"status"`
	Hand        []card.Card       `json:"hand,omitempty"`
	ShowCards   bool              `json:"showCards"`
	IsConnected bool              `json:"isConnected"`
}

func (s Seat) Occupied() bool { return s.ID != "" }

type SidePot struct {
	Amount          int64 `json:"amount"`
	EligiblePlayers []int `json:"eligiblePlayers"`
}

type ShowdownResult struct {
	SeatIndex  int   `json:"seatIndex"`
	HandRank   int   `json:"handRank"` // lower is better
	ChipsWon   int64 `json:"chipsWon"`
	MustShow   bool  `json:"mustShow"`
	HasDecided bool  `json:"hasDecided"`
}

type ChatMessage struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Stage returns the current stage, Idle when no game object is present.
func (s *Snapshot) Stage() holdem.Stage {
	if s == nil || s.Game == nil {
		return holdem.StageIdle
	}
	return s.Game.Stage.Normalize()
}

// Seats returns the seat list, nil-safe.
func (s *Snapshot) Seats() []Seat {
	if s == nil || s.Game == nil {
		return nil
	}
	return s.Game.Seats
}
