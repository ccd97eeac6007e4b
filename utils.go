package main

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	defaultMaxPlayers      = 8
	defaultTotalSegments   = 20
	defaultRaceDurationSec = 120
)

// newGameState builds the seed GameState for a freshly created room.
// Missing game-type parameters get defaults; an empty prompt pool is
// the one thing that cannot be defaulted.
func newGameState(seed *SeedPayload) (*GameState, error) {
	if seed == nil || len(seed.PromptPool) == 0 {
		return nil, ErrBadSeed
	}

	st := &GameState{
		Status:          StatusWaiting,
		Difficulty:      seed.Difficulty,
		HostID:          seed.HostID,
		MaxPlayers:      seed.MaxPlayers,
		RaceMode:        seed.RaceMode,
		RaceDurationSec: seed.RaceDurationSec,
		TotalSegments:   seed.TotalSegments,
		PromptPool:      seed.PromptPool,
	}
	if _, ok := difficultyConfigs[st.Difficulty]; !ok {
		st.Difficulty = DifficultyMedium
	}
	if st.MaxPlayers <= 0 {
		st.MaxPlayers = defaultMaxPlayers
	}
	if st.TotalSegments <= 0 {
		st.TotalSegments = defaultTotalSegments
	}
	if st.RaceMode != RaceModeTime {
		st.RaceMode = RaceModeDistance
	}
	if st.RaceDurationSec <= 0 {
		st.RaceDurationSec = defaultRaceDurationSec
	}

	for _, sp := range seed.Players {
		if sp.UserID == "" {
			continue
		}
		st.Players = append(st.Players, newPlayer(sp.UserID, sp.Name))
	}
	if st.HostID == "" && len(st.Players) > 0 {
		st.HostID = st.Players[0].UserID
	}
	return st, nil
}

func newPlayer(userID, name string) *Player {
	if name == "" {
		name = userID
	}
	return &Player{ID: uuid.NewString(), UserID: userID, Name: name}
}

// drawPrompt picks uniformly from the pool, avoiding an immediate
// repeat of the previous prompt when the pool allows it.
func drawPrompt(pool []Prompt, lastID string) Prompt {
	if len(pool) > 1 && lastID != "" {
		candidates := lo.Filter(pool, func(q Prompt, _ int) bool {
			return q.ID != lastID
		})
		if len(candidates) > 0 {
			return candidates[rand.Intn(len(candidates))]
		}
	}
	return pool[rand.Intn(len(pool))]
}

func findPlayer(st *GameState, userID string) (*Player, bool) {
	return lo.Find(st.Players, func(p *Player) bool {
		return p.UserID == userID
	})
}

func removePlayer(st *GameState, userID string) {
	st.Players = lo.Filter(st.Players, func(p *Player, _ int) bool {
		return p.UserID != userID
	})
}

// sortStandings orders players by progress, then score, best first.
// Stable so earlier joiners win exact ties deterministically.
func sortStandings(players []*Player) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Progress != players[j].Progress {
			return players[i].Progress > players[j].Progress
		}
		return players[i].Score > players[j].Score
	})
}
