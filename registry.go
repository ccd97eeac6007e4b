package main

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry owns the room table and the per-game-type lobby subscriber
// sets. Rooms run their own actors; the registry only guards the maps.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	lobbies map[string]map[Conn]struct{}
	feed    *Feed
}

func NewRegistry(feed *Feed) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		lobbies: make(map[string]map[Conn]struct{}),
		feed:    feed,
	}
}

// Room looks up a live room. A miss is an expected race with teardown,
// never an error.
func (g *Registry) Room(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// JoinRoom attaches conn to the room, creating it from the seed on
// first join. Creation is announced to the game type's lobby once.
func (g *Registry) JoinRoom(roomID, gameType, userID, name string, seed *SeedPayload, conn Conn) error {
	g.mu.Lock()
	room, ok := g.rooms[roomID]
	created := false
	var notice GameCreatedBroadcast
	if !ok {
		rules, known := RulesFor(gameType)
		if !known {
			g.mu.Unlock()
			return ErrUnknownGame
		}
		st, err := newGameState(seed)
		if err != nil {
			g.mu.Unlock()
			return err
		}
		room = newRoom(roomID, rules, st, g, g.feed.ForRoom(roomID))
		g.rooms[roomID] = room
		// Snapshot the notice before the actor starts owning the state.
		notice = newGameCreated(gameType, roomID, st)
		go room.run()
		created = true
	}
	g.mu.Unlock()

	if created {
		log.Info().Str("room", roomID).Str("game_type", gameType).Msg("room created")
		room.feed.Publish("room created")
		g.BroadcastToLobby(gameType, notice)
	}
	return room.join(userID, name, conn)
}

// remove drops the room from the table. Called by the room's own
// teardown, so a concurrent lookup may legitimately miss.
func (g *Registry) remove(id string) {
	g.mu.Lock()
	delete(g.rooms, id)
	g.mu.Unlock()
}

func (g *Registry) SubscribeLobby(gameType string, conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.lobbies[gameType]
	if !ok {
		set = make(map[Conn]struct{})
		g.lobbies[gameType] = set
	}
	set[conn] = struct{}{}
}

// UnsubscribeLobby removes the conn from every game type's lobby set.
func (g *Registry) UnsubscribeLobby(conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, set := range g.lobbies {
		delete(set, conn)
	}
}

// BroadcastToLobby fans a message out to the lobby subscribers of one
// game type. Best effort: a dead subscriber never blocks the rest.
func (g *Registry) BroadcastToLobby(gameType string, v interface{}) {
	g.mu.RLock()
	conns := make([]Conn, 0, len(g.lobbies[gameType]))
	for c := range g.lobbies[gameType] {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteJSON(v); err != nil {
			log.Warn().Err(err).Str("game_type", gameType).Msg("lobby send failed")
		}
	}
}

// RoomCount is a diagnostics helper for the health endpoint.
func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
