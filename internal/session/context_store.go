// Package session persists per-conversation state in Redis so the chat
// surface can carry a dialogue context between turns.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vietcare/booking-assistant/internal/dialog"
)

// storeTTL is the Redis expiry for session keys. The dialogue-level TTL is
// much shorter and enforced inside the engine; this only bounds storage.
const storeTTL = 24 * time.Hour

// ContextStore saves and loads dialogue contexts keyed by conversation id.
// A nil store disables persistence instead of panicking.
type ContextStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewContextStore(redisClient *redis.Client) *ContextStore {
	if redisClient == nil {
		return nil
	}
	return &ContextStore{
		redis:  redisClient,
		tracer: otel.Tracer("vietcare.internal.session.context"),
	}
}

func contextKey(conversationID string) string {
	return fmt.Sprintf("booking_context:%s", conversationID)
}

// Save persists the context for the next turn.
func (s *ContextStore) Save(ctx context.Context, conversationID string, conv dialog.Context) error {
	if s == nil || s.redis == nil {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "session.save_context")
	defer span.End()

	data, err := json.Marshal(conv)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: marshal context: %w", err)
	}
	if err := s.redis.Set(ctx, contextKey(conversationID), data, storeTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: persist context: %w", err)
	}
	return nil
}

// Load returns the stored context, or nil when the conversation is unknown.
func (s *ContextStore) Load(ctx context.Context, conversationID string) (*dialog.Context, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}

	ctx, span := s.tracer.Start(ctx, "session.load_context")
	defer span.End()

	data, err := s.redis.Get(ctx, contextKey(conversationID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: load context: %w", err)
	}

	var conv dialog.Context
	if err := json.Unmarshal(data, &conv); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: decode context: %w", err)
	}
	return &conv, nil
}

// Clear removes the stored context, used when a flow finishes.
func (s *ContextStore) Clear(ctx context.Context, conversationID string) error {
	if s == nil || s.redis == nil {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "session.clear_context")
	defer span.End()

	if err := s.redis.Del(ctx, contextKey(conversationID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: clear context: %w", err)
	}
	return nil
}
