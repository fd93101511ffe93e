package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"holdem-sync/holdem"

	"github.com/goccy/go-json"
)

// Outbound envelopes are flat: {"action": <name>, ...payload}. The
// versioned request/response shape is not spoken by this client.

const (
	ActionJoin          = "join"
	ActionLeave         = "leave"
	ActionSit           = "sit"
	ActionRebuy         = "rebuy"
	ActionGameAction    = "game_action"
	ActionStand         = "stand"
	ActionMuckShow      = "muck_show"
	ActionChat          = "chat"
	ActionStartGame     = "start_game"
	ActionStartNextHand = "start_next_hand"
	ActionEndGame       = "end_game"
	ActionUpdateConfig  = "update_config"
	ActionKickPlayer    = "kick_player"
)

// MaxChatLength is the longest chat message, in characters, the table accepts.
const MaxChatLength = 280

var (
	ErrMalformedFrame  = errors.New("malformed server message")
	ErrInvalidSnapshot = errors.New("invalid game state payload")
	ErrEmptyAction     = errors.New("empty action name")
)

// Request is one user-issued outbound message.
type Request struct {
	Action  string
	Payload map[string]any
}

// MarshalJSON flattens the payload next to the action name. The action key
// always wins over a payload key of the same name.
func (r Request) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Payload)+1)
	for k, v := range r.Payload {
		flat[k] = v
	}
	flat["action"] = r.Action
	return json.Marshal(flat)
}

// Encode validates and serializes a request into a single text frame.
func Encode(r Request) ([]byte, error) {
	if strings.TrimSpace(r.Action) == "" {
		return nil, ErrEmptyAction
	}
	return json.Marshal(r)
}

// JoinIntent is what the table needs to (re)bind a participant.
type JoinIntent struct {
	Name string
	ID   string // previously assigned identity, empty on first join
}

func Join(in JoinIntent) Request {
	return Request{Action: ActionJoin, Payload: map[string]any{"name": in.Name, "id": in.ID}}
}

func Leave() Request { return Request{Action: ActionLeave} }

func Sit(seatIndex int, buyIn int64) Request {
	return Request{Action: ActionSit, Payload: map[string]any{"seatIndex": seatIndex, "buyIn": buyIn}}
}

func Rebuy(amount int64) Request {
	return Request{Action: ActionRebuy, Payload: map[string]any{"amount": amount}}
}

// GameAction omits the amount when it is zero.
func GameAction(cmd holdem.Command, amount int64) Request {
	payload := map[string]any{"command": string(cmd)}
	if amount != 0 {
		payload["amount"] = amount
	}
	return Request{Action: ActionGameAction, Payload: payload}
}

func Stand() Request { return Request{Action: ActionStand} }

func MuckShow(show bool) Request {
	return Request{Action: ActionMuckShow, Payload: map[string]any{"show": show}}
}

// Chat trims the message and caps it at MaxChatLength characters.
func Chat(message string) Request {
	return Request{Action: ActionChat, Payload: map[string]any{"message": TrimChat(message)}}
}

func TrimChat(message string) string {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) <= MaxChatLength {
		return message
	}
	return string([]rune(message)[:MaxChatLength])
}

func StartGame() Request     { return Request{Action: ActionStartGame} }
func StartNextHand() Request { return Request{Action: ActionStartNextHand} }
func EndGame() Request       { return Request{Action: ActionEndGame} }

// ConfigUpdate carries the host-editable lobby settings; nil fields are left
// unchanged by the table.
type ConfigUpdate struct {
	MaxSeats      *int
	StartingStack *int64
	SmallBlind    *int64
	BigBlind      *int64
	ActionTimeout *int
	GodMode       *bool
	RoomCode      *string
}

func UpdateConfig(u ConfigUpdate) Request {
	payload := map[string]any{}
	if u.MaxSeats != nil {
		payload["maxSeats"] = *u.MaxSeats
	}
	if u.StartingStack != nil {
		payload["startingStack"] = *u.StartingStack
	}
	if u.SmallBlind != nil {
		payload["smallBlind"] = *u.SmallBlind
	}
	if u.BigBlind != nil {
		payload["bigBlind"] = *u.BigBlind
	}
	if u.ActionTimeout != nil {
		payload["actionTimeout"] = *u.ActionTimeout
	}
	if u.GodMode != nil {
		payload["godMode"] = *u.GodMode
	}
	if u.RoomCode != nil {
		payload["roomCode"] = *u.RoomCode
	}
	return Request{Action: ActionUpdateConfig, Payload: payload}
}

func KickPlayer(targetID string) Request {
	return Request{Action: ActionKickPlayer, Payload: map[string]any{"targetId": targetID}}
}

// EventType is the inbound discriminant carried in the "type" field.
type EventType string

const (
	EventUnknown     EventType = ""
	EventJoinSuccess EventType = "joinSuccess"
	EventGameState   EventType = "gameState"
	EventKicked      EventType = "kicked"
	EventError       EventType = "error"
)

// Event is a classified inbound payload.
type Event struct {
	Type     EventType
	RawType  string // wire discriminant, kept for logging unknown types
	UserID   string
	Message  string
	Snapshot *Snapshot
}

// Decode classifies one inbound frame. It never panics; frames it cannot
// read return ErrMalformedFrame, gameState events whose data is absent or not
// a well-typed object return ErrInvalidSnapshot with Type set.
func Decode(frame []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil || fields == nil {
		return Event{}, ErrMalformedFrame
	}

	raw := stringField(fields, "type")
	ev := Event{RawType: raw}

	switch EventType(raw) {
	case EventJoinSuccess:
		ev.Type = EventJoinSuccess
		ev.UserID = stringField(fields, "userId")
	case EventGameState:
		ev.Type = EventGameState
		snap, err := decodeSnapshot(fields["data"])
		if err != nil {
			return ev, err
		}
		ev.Snapshot = snap
	case EventKicked:
		ev.Type = EventKicked
		ev.Message = stringField(fields, "message")
	case EventError:
		ev.Type = EventError
		ev.Message = stringField(fields, "message")
	default:
		ev.Type = EventUnknown
	}
	return ev, nil
}

func decodeSnapshot(data json.RawMessage) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidSnapshot
	}
	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &snap, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
