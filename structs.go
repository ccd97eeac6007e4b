package main

import (
	"time"
)

// Status is the round state machine. There are no other states.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type RaceMode string

const (
	RaceModeDistance RaceMode = "distance"
	RaceModeTime     RaceMode = "time"
)

// Prompt modes select the validation/UI rule for a round.
const (
	PromptModeChoice = "choice"
	PromptModeTyping = "typing"
)

// Answer record reasons.
const (
	ReasonNormal          = "normal"
	ReasonAlreadyAnswered = "already_answered"
	ReasonTimeout         = "timeout"
)

// TimeoutSentinel is the answer value clients submit when their local
// window elapses. It is always treated as incorrect.
const TimeoutSentinel = "timeout"

// Prompt is one challenge drawn from the room's pool. Immutable once drawn.
type Prompt struct {
	ID      string   `json:"id"`
	Mode    string   `json:"mode"`
	Word    string   `json:"word"`
	Options []string `json:"options,omitempty"`
	Answer  string   `json:"answer"`
}

type Player struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	Progress float64 `json:"progress"`
	IsReady  bool    `json:"isReady"`
	Streak   int     `json:"streak"`
}

// AnswerRecord is the most recent accepted or rejected answer for the
// current prompt. A correct record locks the prompt against further
// winners.
type AnswerRecord struct {
	PlayerID  string `json:"playerId"`
	UserID    string `json:"userId"`
	Value     string `json:"answer"`
	Correct   bool   `json:"correct"`
	ElapsedMs int64  `json:"elapsedMs"`
	PromptID  string `json:"promptId"`
	Reason    string `json:"reason"`
}

// GameState is the full per-room state. It is owned by the room actor
// and only ever mutated from inside its dispatch loop.
type GameState struct {
	Status          Status        `json:"status"`
	Players         []*Player     `json:"players"`
	Difficulty      Difficulty    `json:"difficulty"`
	HostID          string        `json:"hostId"`
	MaxPlayers      int           `json:"maxPlayers"`
	RaceMode        RaceMode      `json:"raceMode"`
	RaceDurationSec int           `json:"raceDurationSec"`
	TotalSegments   int           `json:"totalSegments"`
	CurrentPrompt   *Prompt       `json:"currentPrompt,omitempty"`
	LastAnswer      *AnswerRecord `json:"lastAnswer,omitempty"`

	PromptPool     []Prompt  `json:"-"`
	PromptDeadline time.Time `json:"-"`
	LastPromptID   string    `json:"-"`
}

// BaseAdvance is the progress a plain correct answer is worth.
func (st *GameState) BaseAdvance() float64 {
	return 1.0 / float64(st.TotalSegments)
}

// SeedPlayer is one roster entry in the seed payload.
type SeedPlayer struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// SeedPayload is the initial room configuration supplied exactly once
// by the HTTP layer inside the first join message.
type SeedPayload struct {
	Players         []SeedPlayer `json:"players"`
	HostID          string       `json:"hostId"`
	Difficulty      Difficulty   `json:"difficulty"`
	MaxPlayers      int          `json:"maxPlayers"`
	RaceMode        RaceMode     `json:"raceMode"`
	RaceDurationSec int          `json:"raceDurationSec"`
	TotalSegments   int          `json:"totalSegments"`
	PromptPool      []Prompt     `json:"promptPool"`
}

// Conn is the slice of a websocket connection the engine needs.
// *websocket.Conn satisfies it; tests substitute a recording fake.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}
