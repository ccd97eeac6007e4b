package main

import "time"

// Outbound broadcast payloads. Field names mirror what the game
// clients already consume.

type PromptSpawnedMessage struct {
	Type           string   `json:"type"`
	PromptID       string   `json:"prompt_id"`
	Mode           string   `json:"mode"`
	Word           string   `json:"word"`
	Options        []string `json:"options,omitempty"`
	CorrectAnswer  string   `json:"correct_answer"`
	AnswerWindowMs int64    `json:"answerWindowMs"`
	DeadlineMs     int64    `json:"deadlineMs"`
}

type AnswerSubmittedMessage struct {
	Type       string `json:"type"`
	PlayerID   string `json:"playerId"`
	UserID     string `json:"userId"`
	PlayerName string `json:"player_name"`
	Answer     string `json:"answer"`
	Correct    bool   `json:"correct"`
	PromptID   string `json:"prompt_id"`
	Reason     string `json:"reason"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

type ProgressUpdatedMessage struct {
	Type     string  `json:"type"`
	PlayerID string  `json:"playerId"`
	Progress float64 `json:"progress"`
}

type PlayerReadyBroadcast struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	UserID   string `json:"userId"`
}

type RoundTimeoutMessage struct {
	Type          string `json:"type"`
	PromptID      string `json:"prompt_id"`
	CorrectAnswer string `json:"correct_answer"`
}

type StateUpdatedMessage struct {
	Type string     `json:"type"`
	Game *GameState `json:"game"`
}

// GameCreatedBroadcast and GameEndedBroadcast go to lobby subscribers
// only, so a browse screen can list live rooms.
type GameCreatedBroadcast struct {
	Type       string     `json:"type"`
	GameID     string     `json:"gameId"`
	Difficulty Difficulty `json:"difficulty"`
	RaceMode   RaceMode   `json:"raceMode"`
	MaxPlayers int        `json:"maxPlayers"`
	Players    int        `json:"players"`
}

type GameEndedBroadcast struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
}

type RoomFullMessage struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
}

func newPromptSpawned(p *Prompt, windowMs int64, deadline time.Time) PromptSpawnedMessage {
	return PromptSpawnedMessage{
		Type:           "prompt_spawned",
		PromptID:       p.ID,
		Mode:           p.Mode,
		Word:           p.Word,
		Options:        p.Options,
		CorrectAnswer:  p.Answer,
		AnswerWindowMs: windowMs,
		DeadlineMs:     deadline.UnixMilli(),
	}
}

func newAnswerSubmitted(player *Player, rec *AnswerRecord) AnswerSubmittedMessage {
	return AnswerSubmittedMessage{
		Type:       "answer_submitted",
		PlayerID:   rec.PlayerID,
		UserID:     rec.UserID,
		PlayerName: player.Name,
		Answer:     rec.Value,
		Correct:    rec.Correct,
		PromptID:   rec.PromptID,
		Reason:     rec.Reason,
		ElapsedMs:  rec.ElapsedMs,
	}
}

func newStateUpdated(gameType string, st *GameState) StateUpdatedMessage {
	return StateUpdatedMessage{Type: gameType + "_game_state_updated", Game: st}
}

func newGameCreated(gameType, gameID string, st *GameState) GameCreatedBroadcast {
	return GameCreatedBroadcast{
		Type:       gameType + "_game_created",
		GameID:     gameID,
		Difficulty: st.Difficulty,
		RaceMode:   st.RaceMode,
		MaxPlayers: st.MaxPlayers,
		Players:    len(st.Players),
	}
}

func newGameEnded(gameType, gameID string) GameEndedBroadcast {
	return GameEndedBroadcast{Type: gameType + "_game_end", GameID: gameID}
}
