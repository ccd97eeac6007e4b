package main

// GameRules is the per-game-type rule set plugged into the shared room
// plumbing. The room actor serializes every call, so implementations
// mutate room state freely and never need locks.
type GameRules interface {
	GameType() string
	HandleReady(r *Room, userID string)
	HandleAnswer(r *Room, userID string, msg SubmitAnswerMessage)
	HandleRestart(r *Room, userID string)
	HandleEnd(r *Room, userID string)
	// HandleTimer receives re-injected timer fires for the game's own
	// concerns ("prompt", "advance", "race"). The base room handles
	// the teardown concern itself.
	HandleTimer(r *Room, concern string)
	HandlePlayerLeft(r *Room, userID string)
}

var ruleSets = map[string]GameRules{}

// RegisterRules makes a game type joinable. Called from main at
// startup; not safe for concurrent use.
func RegisterRules(rules GameRules) {
	ruleSets[rules.GameType()] = rules
}

func RulesFor(gameType string) (GameRules, bool) {
	rules, ok := ruleSets[gameType]
	return rules, ok
}
