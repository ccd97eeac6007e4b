package main

import (
	"encoding/json"
	"errors"
	"strings"
)

// Envelope is the common shape of every inbound socket message.
type Envelope struct {
	Type     string          `json:"type"`
	GameID   string          `json:"gameId"`
	GameType string          `json:"gameType,omitempty"`
	UserID   string          `json:"userId"`
	Data     json.RawMessage `json:"data,omitempty"`
}

var (
	ErrBadEnvelope  = errors.New("message missing type or gameId")
	ErrUnknownType  = errors.New("unknown message type")
	ErrRoomFull     = errors.New("room full")
	ErrBadSeed      = errors.New("invalid seed payload")
	ErrUnknownGame  = errors.New("unknown game type")
	ErrRoomShutDown = errors.New("room shut down")
)

// ClientMessage is the closed set of inbound message payloads. The
// decoder is the only place raw JSON is touched; everything past it is
// typed.
type ClientMessage interface {
	clientMessage()
}

// JoinGameMessage attaches a socket to a room, creating it from the
// seed payload on first join.
type JoinGameMessage struct {
	Name string `json:"name"`
	Seed *SeedPayload
}

// LobbyJoinMessage subscribes the socket to created/ended notices for
// a game type without joining a room.
type LobbyJoinMessage struct{}

// GameCreatedMessage asks the engine to announce a freshly configured
// room to the lobby.
type GameCreatedMessage struct{}

// EndGameMessage is the host's manual end.
type EndGameMessage struct{}

type SubmitAnswerMessage struct {
	PromptID  string `json:"promptId"`
	Answer    string `json:"answer"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type PlayerReadyMessage struct{}

type RestartGameMessage struct{}

type PlayerLeftMessage struct{}

func (JoinGameMessage) clientMessage()     {}
func (LobbyJoinMessage) clientMessage()    {}
func (GameCreatedMessage) clientMessage()  {}
func (EndGameMessage) clientMessage()      {}
func (SubmitAnswerMessage) clientMessage() {}
func (PlayerReadyMessage) clientMessage()  {}
func (RestartGameMessage) clientMessage()  {}
func (PlayerLeftMessage) clientMessage()   {}

// DecodeMessage parses one raw frame into its envelope and typed
// payload. Unknown types and missing fields are errors the caller
// logs and drops; they never close the connection.
func DecodeMessage(raw []byte) (Envelope, ClientMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, nil, err
	}
	if env.Type == "" {
		return env, nil, ErrBadEnvelope
	}
	if env.Type != "join_lobby" && env.GameID == "" {
		return env, nil, ErrBadEnvelope
	}

	switch {
	case strings.HasPrefix(env.Type, "join_") && strings.HasSuffix(env.Type, "_game"):
		msg := JoinGameMessage{}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				return env, nil, err
			}
			seed := SeedPayload{}
			if err := json.Unmarshal(env.Data, &seed); err != nil {
				return env, nil, err
			}
			if len(seed.PromptPool) > 0 || len(seed.Players) > 0 {
				msg.Seed = &seed
			}
		}
		return env, msg, nil
	case env.Type == "join_lobby":
		return env, LobbyJoinMessage{}, nil
	case strings.HasSuffix(env.Type, "_game_created"):
		return env, GameCreatedMessage{}, nil
	case strings.HasSuffix(env.Type, "_game_end"):
		return env, EndGameMessage{}, nil
	case env.Type == "submit_answer":
		msg := SubmitAnswerMessage{}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				return env, nil, err
			}
		}
		return env, msg, nil
	case env.Type == "player_ready":
		return env, PlayerReadyMessage{}, nil
	case strings.HasPrefix(env.Type, "restart_") && strings.HasSuffix(env.Type, "_game"):
		return env, RestartGameMessage{}, nil
	case env.Type == "player_left":
		return env, PlayerLeftMessage{}, nil
	default:
		return env, nil, ErrUnknownType
	}
}

// gameTypeOf resolves the game-type tag of an envelope, falling back
// to the tag embedded in the message type, e.g. "join_race_game".
func gameTypeOf(env Envelope) string {
	if env.GameType != "" {
		return env.GameType
	}
	t := env.Type
	for _, prefix := range []string{"join_", "restart_"} {
		t = strings.TrimPrefix(t, prefix)
	}
	for _, suffix := range []string{"_game_created", "_game_end", "_game"} {
		if strings.HasSuffix(t, suffix) {
			return strings.TrimSuffix(t, suffix)
		}
	}
	return ""
}
