package main

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// syncConn serializes writes to one socket. A room actor and the lobby
// fan-out of other rooms' actors can all target the same connection,
// and *websocket.Conn permits at most one concurrent writer.
type syncConn struct {
	mu   sync.Mutex
	conn Conn
}

func newSyncConn(conn Conn) *syncConn {
	return &syncConn{conn: conn}
}

func (c *syncConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *syncConn) Close() error { return c.conn.Close() }

// WSClient is one connected socket: its read pump, its rate limiter,
// and the room it has joined, if any. All writes go through sock so
// they are mutually exclusive regardless of which actor sends.
type WSClient struct {
	conn     *websocket.Conn
	sock     Conn
	registry *Registry
	limiter  *rate.Limiter
	roomID   string
	userID   string
}

func NewWSClient(conn *websocket.Conn, registry *Registry) *WSClient {
	return &WSClient{
		conn:     conn,
		sock:     newSyncConn(conn),
		registry: registry,
		limiter:  rate.NewLimiter(rate.Limit(20), 40),
	}
}

// HandleClient reads frames until the socket dies, decoding each one
// and routing it. No inbound frame can crash the process: bad input is
// logged and dropped with the connection left open.
func (c *WSClient) HandleClient() {
	log.Debug().Str("remote", c.conn.RemoteAddr().String()).Msg("client connected")
	defer c.handleDisconnect()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("client read ended")
			return
		}
		if !c.limiter.Allow() {
			log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("client rate limited, frame dropped")
			continue
		}

		env, msg, err := DecodeMessage(raw)
		if err != nil {
			log.Warn().Err(err).Str("type", env.Type).Msg("dropping bad message")
			continue
		}
		c.route(env, msg)
	}
}

func (c *WSClient) route(env Envelope, msg ClientMessage) {
	switch m := msg.(type) {
	case LobbyJoinMessage:
		gameType := gameTypeOf(env)
		if _, ok := RulesFor(gameType); !ok {
			log.Warn().Str("game_type", gameType).Msg("lobby join for unknown game type")
			return
		}
		c.registry.SubscribeLobby(gameType, c.sock)

	case JoinGameMessage:
		err := c.registry.JoinRoom(env.GameID, gameTypeOf(env), env.UserID, m.Name, m.Seed, c.sock)
		switch err {
		case nil:
			c.roomID = env.GameID
			c.userID = env.UserID
		case ErrRoomFull:
			log.Info().Str("room", env.GameID).Str("user", env.UserID).Msg("join rejected, room full")
		default:
			log.Warn().Err(err).Str("room", env.GameID).Msg("join failed")
		}

	default:
		room, ok := c.registry.Room(env.GameID)
		if !ok {
			// Expected race with teardown of an emptied room.
			log.Warn().Str("room", env.GameID).Str("type", env.Type).Msg("message for unknown room dropped")
			return
		}
		room.post(clientEvent{userID: env.UserID, conn: c.sock, msg: msg})
	}
}

// handleDisconnect detaches the socket from its room and the lobby.
// The room actor removes the player and tears the room down if this
// was the last socket.
func (c *WSClient) handleDisconnect() {
	c.registry.UnsubscribeLobby(c.sock)
	if c.roomID != "" {
		if room, ok := c.registry.Room(c.roomID); ok {
			room.post(leaveEvent{conn: c.sock})
		}
	}
	_ = c.sock.Close()
}
