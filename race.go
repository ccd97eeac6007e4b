package main

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// nextPromptDelay is the fixed UI-feedback pause between a round
// ending (win or reveal) and the next prompt spawning. Deliberately
// distinct from the per-difficulty answer window.
const nextPromptDelay = 1500 * time.Millisecond

// RaceRules drives the word-race game: ready-up gating, prompt rounds,
// first-correct-answer-wins arbitration, and progress scoring. All
// methods run on the owning room's dispatch loop.
type RaceRules struct{}

func (RaceRules) GameType() string { return "race" }

// HandleReady latches a player ready. Ready never reverts within a
// room lifetime, so a second ready from the same player is a pure
// no-op with no broadcast. The race starts once at least two players
// joined and all of them are ready.
func (rr RaceRules) HandleReady(r *Room, userID string) {
	st := r.state
	if st.Status != StatusWaiting {
		return
	}
	p, ok := findPlayer(st, userID)
	if !ok {
		r.log.Warn().Str("user", userID).Msg("ready from unknown player")
		return
	}
	if p.IsReady {
		return
	}
	p.IsReady = true
	r.broadcast(PlayerReadyBroadcast{Type: "player_ready", PlayerID: p.ID, UserID: p.UserID})

	allReady := lo.EveryBy(st.Players, func(q *Player) bool { return q.IsReady })
	if len(st.Players) >= 2 && allReady {
		rr.startRace(r)
	}
}

func (rr RaceRules) startRace(r *Room) {
	st := r.state
	st.Status = StatusInProgress
	for _, p := range st.Players {
		p.Score = 0
		p.Progress = 0
		p.Streak = 0
	}
	r.log.Info().Str("mode", string(st.RaceMode)).Msg("race started")
	r.feed.Publish("race started")
	r.broadcastState()

	if st.RaceMode == RaceModeTime {
		r.scheduleTimer(concernRace, time.Duration(st.RaceDurationSec)*time.Second)
	}
	rr.spawnPrompt(r)
}

// spawnPrompt draws the next prompt and arms its answer window. The
// previous prompt's timer is cancelled first so exactly one prompt
// timer is ever live.
func (rr RaceRules) spawnPrompt(r *Room) {
	st := r.state
	r.cancelTimer(concernPrompt)

	p := drawPrompt(st.PromptPool, st.LastPromptID)
	cfg := configFor(st.Difficulty)
	window := time.Duration(cfg.AnswerWindowMs) * time.Millisecond

	st.CurrentPrompt = &p
	st.LastPromptID = p.ID
	st.LastAnswer = nil
	st.PromptDeadline = time.Now().Add(window)

	r.broadcast(newPromptSpawned(&p, cfg.AnswerWindowMs, st.PromptDeadline))
	r.scheduleTimer(concernPrompt, window)
}

// HandleAnswer arbitrates one submission. The single-threaded dispatch
// order decides the winner: the first correct answer processed locks
// the prompt, and everyone after it is told so deterministically.
func (rr RaceRules) HandleAnswer(r *Room, userID string, msg SubmitAnswerMessage) {
	st := r.state
	if st.Status != StatusInProgress || st.CurrentPrompt == nil {
		return
	}
	// Stale round, not a client bug. Ignore silently.
	if msg.PromptID != st.CurrentPrompt.ID {
		return
	}
	p, ok := findPlayer(st, userID)
	if !ok {
		return
	}

	if st.LastAnswer != nil && st.LastAnswer.Correct && st.LastAnswer.PromptID == st.CurrentPrompt.ID {
		// Someone already won this prompt. Still echo the submitter's
		// value so their UI can tell "beaten" apart from "wrong".
		r.broadcast(newAnswerSubmitted(p, &AnswerRecord{
			PlayerID:  p.ID,
			UserID:    p.UserID,
			Value:     msg.Answer,
			Correct:   false,
			ElapsedMs: msg.ElapsedMs,
			PromptID:  st.CurrentPrompt.ID,
			Reason:    ReasonAlreadyAnswered,
		}))
		return
	}

	correct := msg.Answer != TimeoutSentinel && msg.Answer == st.CurrentPrompt.Answer
	rec := &AnswerRecord{
		PlayerID:  p.ID,
		UserID:    p.UserID,
		Value:     msg.Answer,
		Correct:   correct,
		ElapsedMs: msg.ElapsedMs,
		PromptID:  st.CurrentPrompt.ID,
		Reason:    ReasonNormal,
	}
	if msg.Answer == TimeoutSentinel {
		rec.Reason = ReasonTimeout
	}
	st.LastAnswer = rec

	if correct {
		p.Streak++
		cfg := configFor(st.Difficulty)
		delta := progressDelta(cfg, st.BaseAdvance(), msg.ElapsedMs, p.Streak)
		p.Progress = clampProgress(p.Progress + delta)
		p.Score += cfg.ScorePerCorrect
	} else {
		p.Streak = 0
	}

	r.broadcast(newAnswerSubmitted(p, rec))
	if correct {
		r.broadcast(ProgressUpdatedMessage{Type: "progress_updated", PlayerID: p.ID, Progress: p.Progress})
	}
	r.broadcastState()

	if !correct {
		return
	}

	r.feed.Publish(fmt.Sprintf("%s answered %q in %dms", p.Name, st.CurrentPrompt.Word, msg.ElapsedMs))
	r.cancelTimer(concernPrompt)

	if st.RaceMode == RaceModeDistance && raceFinished(p.Progress) {
		rr.finishRace(r)
		return
	}
	r.scheduleTimer(concernAdvance, nextPromptDelay)
}

// HandleTimer reacts to the race's re-injected timer fires.
func (rr RaceRules) HandleTimer(r *Room, concern string) {
	st := r.state
	switch concern {
	case concernPrompt:
		if st.Status != StatusInProgress || st.CurrentPrompt == nil {
			return
		}
		// Defensive second guard: a fire racing the winning answer in
		// the same tick sees the lock and backs off.
		if st.LastAnswer != nil && st.LastAnswer.Correct && st.LastAnswer.PromptID == st.CurrentPrompt.ID {
			return
		}
		r.broadcast(RoundTimeoutMessage{
			Type:          "round_timeout",
			PromptID:      st.CurrentPrompt.ID,
			CorrectAnswer: st.CurrentPrompt.Answer,
		})
		r.feed.Publish(fmt.Sprintf("round timed out, answer was %q", st.CurrentPrompt.Answer))
		r.scheduleTimer(concernAdvance, nextPromptDelay)

	case concernAdvance:
		if st.Status != StatusInProgress {
			return
		}
		rr.spawnPrompt(r)

	case concernRace:
		if st.Status != StatusInProgress {
			return
		}
		rr.finishRace(r)
	}
}

// finishRace ends the session: standings sorted best first, one final
// broadcast, lobby notice, and a grace period before teardown so
// clients can show results.
func (rr RaceRules) finishRace(r *Room) {
	st := r.state
	r.cancelTimer(concernPrompt)
	r.cancelTimer(concernAdvance)
	r.cancelTimer(concernRace)

	st.Status = StatusCompleted
	st.CurrentPrompt = nil
	sortStandings(st.Players)

	names := lo.Map(st.Players, func(p *Player, _ int) string {
		return fmt.Sprintf("%s %.0f%%", p.Name, p.Progress*100)
	})
	r.log.Info().Strs("standings", names).Msg("race finished")
	r.feed.Publish("race finished")

	r.broadcastState()
	r.registry.BroadcastToLobby(r.gameType, newGameEnded(r.gameType, r.id))
	r.scheduleTimer(concernTeardown, completedGrace)
}

// HandleRestart rebuilds a fresh waiting state from the current
// roster. Host only.
func (rr RaceRules) HandleRestart(r *Room, userID string) {
	st := r.state
	if userID != st.HostID {
		r.log.Warn().Str("user", userID).Msg("restart from non-host ignored")
		return
	}
	r.timers.CancelAll()

	st.Status = StatusWaiting
	st.CurrentPrompt = nil
	st.LastAnswer = nil
	st.LastPromptID = ""
	for _, p := range st.Players {
		p.Score = 0
		p.Progress = 0
		p.Streak = 0
		p.IsReady = false
	}
	r.log.Info().Msg("race restarted")
	r.feed.Publish("race restarted")
	r.broadcastState()
}

// HandleEnd is the host's manual end; it runs the normal completion
// path so clients get a results screen either way.
func (rr RaceRules) HandleEnd(r *Room, userID string) {
	st := r.state
	if userID != st.HostID {
		r.log.Warn().Str("user", userID).Msg("end from non-host ignored")
		return
	}
	if st.Status == StatusCompleted {
		return
	}
	rr.finishRace(r)
}

func (rr RaceRules) HandlePlayerLeft(r *Room, userID string) {
	// The rest of the room keeps racing; nothing game-specific to do.
}
