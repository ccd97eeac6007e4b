package main

// DifficultyConfig fixes the answer window and scoring constants for a
// room's whole lifetime.
type DifficultyConfig struct {
	AnswerWindowMs  int64
	ScorePerCorrect int
	// TimeBonusMax is the extra progress an instant answer earns; it
	// falls off linearly and reaches zero at TimeBonusWindowMs.
	TimeBonusMax      float64
	TimeBonusWindowMs int64
	// StreakBoost is the fraction of the base advance added once a
	// player's streak reaches StreakThreshold.
	StreakThreshold int
	StreakBoost     float64
}

var difficultyConfigs = map[Difficulty]DifficultyConfig{
	DifficultyEasy: {
		AnswerWindowMs:    8000,
		ScorePerCorrect:   10,
		TimeBonusMax:      0.02,
		TimeBonusWindowMs: 4000,
		StreakThreshold:   3,
		StreakBoost:       0.5,
	},
	DifficultyMedium: {
		AnswerWindowMs:    6000,
		ScorePerCorrect:   15,
		TimeBonusMax:      0.025,
		TimeBonusWindowMs: 3000,
		StreakThreshold:   3,
		StreakBoost:       0.5,
	},
	DifficultyHard: {
		AnswerWindowMs:    4000,
		ScorePerCorrect:   20,
		TimeBonusMax:      0.03,
		TimeBonusWindowMs: 2000,
		StreakThreshold:   4,
		StreakBoost:       0.5,
	},
}

func configFor(d Difficulty) DifficultyConfig {
	if cfg, ok := difficultyConfigs[d]; ok {
		return cfg
	}
	return difficultyConfigs[DifficultyMedium]
}

// progressDelta computes how far one correct answer moves a player:
// the base advance, plus a time bonus interpolated down to zero as
// elapsed approaches the bonus window, plus a flat boost once the
// streak crosses the threshold. The streak passed in already counts
// the answer being scored.
func progressDelta(cfg DifficultyConfig, baseAdvance float64, elapsedMs int64, streak int) float64 {
	delta := baseAdvance
	if elapsedMs >= 0 && elapsedMs < cfg.TimeBonusWindowMs && cfg.TimeBonusMax > 0 {
		remaining := 1.0 - float64(elapsedMs)/float64(cfg.TimeBonusWindowMs)
		delta += cfg.TimeBonusMax * remaining
	}
	if cfg.StreakThreshold > 0 && streak >= cfg.StreakThreshold {
		delta += baseAdvance * cfg.StreakBoost
	}
	return delta
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// raceFinished tolerates float drift when segment advances do not sum
// to a representable 1.0.
func raceFinished(progress float64) bool {
	return progress >= 1.0-1e-9
}
