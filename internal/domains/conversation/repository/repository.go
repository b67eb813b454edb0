package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reservo/config"
	"reservo/infras/otel"
	"reservo/internal/domains/conversation/model"
	"reservo/shared"
	"reservo/shared/constant"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keySession = "conversation:session"
	keyLock    = "conversation:lock"
)

var ErrSessionLocked = errors.New("conversation session is busy")

// unlockScript deletes the lock only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Unlock releases a lock taken by Session.Lock.
type Unlock func(ctx context.Context) error

type Session interface {
	// Get returns false when the session is unknown or expired.
	Get(ctx context.Context, id string) (model.Session, bool, error)
	// Save stores the session and restarts its time to live.
	Save(ctx context.Context, session model.Session) error
	// Delete forgets the session; the next turn under its id starts fresh.
	Delete(ctx context.Context, id string) error
	// Lock serialises turns of one session. It fails with ErrSessionLocked while
	// another turn holds the lock.
	Lock(ctx context.Context, id string) (Unlock, error)
}

type sessionImpl struct {
	client *redis.Client
	cfg    *config.Config
	otel   otel.Otel
}

func New(client *redis.Client, cfg *config.Config, otel otel.Otel) Session {
	return &sessionImpl{
		client: client,
		cfg:    cfg,
		otel:   otel,
	}
}

func (r *sessionImpl) Get(ctx context.Context, id string) (res model.Session, found bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".conversation.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	raw, err := r.client.Get(ctx, shared.BuildCacheKey(keySession, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return res, false, nil
	}

	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("failed to get conversation session")

		return res, false, fmt.Errorf("failed to get conversation session: %w", err)
	}

	if err = json.Unmarshal(raw, &res); err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("discarding unreadable conversation session")

		return model.Session{}, false, nil
	}

	return res, true, nil
}

func (r *sessionImpl) Save(ctx context.Context, session model.Session) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".conversation.Save")
	defer scope.End()
	defer scope.TraceIfError(err)

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation session: %w", err)
	}

	ttl := time.Duration(r.cfg.Conversation.SessionTTLSeconds) * time.Second

	if err = r.client.Set(ctx, shared.BuildCacheKey(keySession, session.ID), raw, ttl).Err(); err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("failed to save conversation session")

		return fmt.Errorf("failed to save conversation session: %w", err)
	}

	return nil
}

func (r *sessionImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".conversation.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = r.client.Del(ctx, shared.BuildCacheKey(keySession, id)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation session: %w", err)
	}

	return nil
}

func (r *sessionImpl) Lock(ctx context.Context, id string) (unlock Unlock, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".conversation.Lock")
	defer scope.End()
	defer scope.TraceIfError(err)

	key := shared.BuildCacheKey(keyLock, id)
	token := uuid.NewString()
	ttl := time.Duration(r.cfg.Conversation.LockTTLSeconds) * time.Second

	acquired, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("failed to lock conversation session")

		return nil, fmt.Errorf("failed to lock conversation session: %w", err)
	}

	if !acquired {
		return nil, ErrSessionLocked
	}

	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			log.Error().Err(err).Str("session_id", id).Msg("failed to unlock conversation session")

			return fmt.Errorf("failed to unlock conversation session: %w", err)
		}

		return nil
	}, nil
}
