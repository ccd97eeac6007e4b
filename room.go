package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go_wordrace_server/timer"
)

// Timer concerns. At most one live timer exists per concern per room.
const (
	concernPrompt   = "prompt"
	concernAdvance  = "advance"
	concernRace     = "race"
	concernTeardown = "teardown"
)

// completedGrace keeps a finished room alive long enough for clients
// to render the results screen.
const completedGrace = 30 * time.Second

// roomEvent is the closed set of things a room actor reacts to. Client
// messages and timer fires travel through the same inbox, so every
// state transition is serialized by one dispatch loop.
type roomEvent interface {
	roomEvent()
}

type clientEvent struct {
	userID string
	conn   Conn
	msg    ClientMessage
}

type timerEvent struct {
	concern string
}

type joinEvent struct {
	userID string
	name   string
	conn   Conn
	reply  chan error
}

type leaveEvent struct {
	conn Conn
}

func (clientEvent) roomEvent() {}
func (timerEvent) roomEvent()  {}
func (joinEvent) roomEvent()   {}
func (leaveEvent) roomEvent()  {}

// Room is one isolated game session: its socket set, its state, and
// the actor goroutine that owns both. Nothing outside the dispatch
// loop touches state or conns.
type Room struct {
	id       string
	gameType string
	rules    GameRules
	registry *Registry
	feed     *RoomFeed

	state  *GameState
	conns  map[Conn]string
	timers *timer.Set

	inbox chan roomEvent
	done  chan struct{}
	log   zerolog.Logger
}

func newRoom(id string, rules GameRules, st *GameState, registry *Registry, feed *RoomFeed) *Room {
	return &Room{
		id:       id,
		gameType: rules.GameType(),
		rules:    rules,
		registry: registry,
		feed:     feed,
		state:    st,
		conns:    make(map[Conn]string),
		timers:   timer.NewSet(),
		inbox:    make(chan roomEvent, 256),
		done:     make(chan struct{}),
		log:      log.With().Str("room", id).Logger(),
	}
}

func (r *Room) run() {
	for ev := range r.inbox {
		if !r.dispatch(ev) {
			return
		}
	}
}

// post delivers an event to the actor unless the room is already gone.
func (r *Room) post(ev roomEvent) bool {
	select {
	case r.inbox <- ev:
		return true
	case <-r.done:
		return false
	}
}

// join attaches a socket and waits for the actor to admit it.
func (r *Room) join(userID, name string, conn Conn) error {
	ev := joinEvent{userID: userID, name: name, conn: conn, reply: make(chan error, 1)}
	if !r.post(ev) {
		return ErrRoomShutDown
	}
	select {
	case err := <-ev.reply:
		return err
	case <-r.done:
		return ErrRoomShutDown
	}
}

func (r *Room) dispatch(ev roomEvent) bool {
	switch e := ev.(type) {
	case joinEvent:
		e.reply <- r.handleJoin(e)
		return true

	case leaveEvent:
		return r.handleLeave(e.conn)

	case clientEvent:
		return r.handleClient(e)

	case timerEvent:
		if e.concern == concernTeardown {
			r.teardown()
			return false
		}
		r.rules.HandleTimer(r, e.concern)
		return true
	}
	return true
}

func (r *Room) handleJoin(e joinEvent) error {
	if len(r.conns) >= r.state.MaxPlayers {
		if err := e.conn.WriteJSON(RoomFullMessage{Type: "room_full", GameID: r.id}); err != nil {
			r.log.Warn().Err(err).Msg("room full notice failed")
		}
		return ErrRoomFull
	}

	r.conns[e.conn] = e.userID
	if _, ok := findPlayer(r.state, e.userID); !ok {
		r.state.Players = append(r.state.Players, newPlayer(e.userID, e.name))
	}
	r.log.Info().Str("user", e.userID).Int("sockets", len(r.conns)).Msg("player joined")
	r.feed.Publish("player " + e.userID + " joined")
	r.broadcastState()
	return nil
}

// handleLeave removes the socket and its player. The last socket out
// tears the room down silently; no one is left to receive a broadcast.
func (r *Room) handleLeave(conn Conn) bool {
	userID, ok := r.conns[conn]
	if !ok {
		return true
	}
	delete(r.conns, conn)
	removePlayer(r.state, userID)
	r.log.Info().Str("user", userID).Int("sockets", len(r.conns)).Msg("player left")
	r.feed.Publish("player " + userID + " left")

	if len(r.conns) == 0 {
		r.teardown()
		return false
	}
	r.rules.HandlePlayerLeft(r, userID)
	r.broadcastState()
	return true
}

func (r *Room) handleClient(e clientEvent) bool {
	switch m := e.msg.(type) {
	case PlayerReadyMessage:
		r.rules.HandleReady(r, e.userID)
	case SubmitAnswerMessage:
		r.rules.HandleAnswer(r, e.userID, m)
	case RestartGameMessage:
		r.rules.HandleRestart(r, e.userID)
	case EndGameMessage:
		r.rules.HandleEnd(r, e.userID)
	case GameCreatedMessage:
		r.registry.BroadcastToLobby(r.gameType, newGameCreated(r.gameType, r.id, r.state))
	case PlayerLeftMessage:
		return r.handleLeave(e.conn)
	default:
		// join/lobby messages are routed before they reach a room
	}
	return true
}

// teardown releases everything the room owns. Safe to reach from the
// empty-socket path, the post-completion grace timer, or both.
func (r *Room) teardown() {
	r.timers.CancelAll()
	r.registry.remove(r.id)
	r.feed.Close()
	close(r.done)
	r.log.Info().Msg("room torn down")
}

// broadcast fans a message out to every socket in the room. A failed
// send is logged and skipped; the read pump will reap the dead socket.
func (r *Room) broadcast(v interface{}) {
	for conn := range r.conns {
		if err := conn.WriteJSON(v); err != nil {
			r.log.Warn().Err(err).Str("user", r.conns[conn]).Msg("room send failed")
		}
	}
}

func (r *Room) broadcastState() {
	r.broadcast(newStateUpdated(r.gameType, r.state))
}

// scheduleTimer arms a single-fire timer whose expiry is re-injected
// into the room inbox, keeping timer-driven transitions on the same
// serialized path as client messages.
func (r *Room) scheduleTimer(concern string, d time.Duration) {
	r.timers.Schedule(concern, d, func() {
		r.post(timerEvent{concern: concern})
	})
}

func (r *Room) cancelTimer(concern string) {
	r.timers.Cancel(concern)
}
