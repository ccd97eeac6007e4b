package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Feed publishes a human-readable event stream per room, one kafka
// topic per room, for spectator/moderation tooling. The engine never
// depends on it: with no endpoint configured every operation is a
// no-op, and a broker hiccup only costs feed messages.
type Feed struct {
	endpoint string
}

func NewFeed(endpoint string) *Feed {
	if endpoint == "" {
		log.Info().Msg("kafka feed disabled, no endpoint configured")
	}
	return &Feed{endpoint: endpoint}
}

// ForRoom creates the room's topic and returns its writer. Topic
// auto-creation happens on the dial, matching the broker config.
func (f *Feed) ForRoom(roomID string) *RoomFeed {
	if f == nil || f.endpoint == "" {
		return nil
	}

	conn, err := kafka.DialLeader(context.Background(), "tcp", f.endpoint, roomID, 0)
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("feed topic create failed")
		return nil
	}
	_ = conn.Close()

	return &RoomFeed{
		endpoint: f.endpoint,
		topic:    roomID,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(f.endpoint),
			Topic:        roomID,
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			BatchSize:    1,
		},
	}
}

// RoomFeed is one room's slice of the feed. A nil receiver is the
// disabled feed and every method tolerates it.
type RoomFeed struct {
	endpoint string
	topic    string
	writer   *kafka.Writer
}

func (rf *RoomFeed) Publish(message string) {
	if rf == nil || rf.writer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rf.writer.WriteMessages(ctx, kafka.Message{Value: []byte(message)}); err != nil {
		log.Warn().Err(err).Str("topic", rf.topic).Msg("feed publish failed")
	}
}

// Close flushes the writer and deletes the room's topic.
func (rf *RoomFeed) Close() {
	if rf == nil || rf.writer == nil {
		return
	}
	if err := rf.writer.Close(); err != nil {
		log.Warn().Err(err).Str("topic", rf.topic).Msg("feed writer close failed")
	}

	conn, err := kafka.Dial("tcp", rf.endpoint)
	if err != nil {
		log.Warn().Err(err).Str("topic", rf.topic).Msg("feed topic delete dial failed")
		return
	}
	defer conn.Close()
	if err := conn.DeleteTopics(rf.topic); err != nil {
		log.Warn().Err(err).Str("topic", rf.topic).Msg("feed topic delete failed")
	}
}
