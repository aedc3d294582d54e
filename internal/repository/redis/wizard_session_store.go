// internal/repository/redis/wizard_session_store.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"assistance-gateway/internal/domain/wizard"
	xerrors "assistance-gateway/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL bounds how long a crashed holder can block a session.
const DefaultLockTTL = 30 * time.Second

// releaseScript deletes the lock only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// WizardSessionStore works against a single node or a cluster. Keys of one
// session share a hash slot.
type WizardSessionStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	lockTTL time.Duration
}

func NewWizardSessionStore(client redis.UniversalClient, ttl time.Duration) *WizardSessionStore {
	return &WizardSessionStore{
		client:  client,
		ttl:     ttl,
		lockTTL: DefaultLockTTL,
	}
}

func (s *WizardSessionStore) sessionKey(id string) string {
	return fmt.Sprintf("wizard:{%s}:session", id)
}

func (s *WizardSessionStore) lockKey(id string) string {
	return fmt.Sprintf("wizard:{%s}:lock", id)
}

// Get loads a session; a missing or expired session is ErrNotFound.
func (s *WizardSessionStore) Get(ctx context.Context, id string) (*wizard.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wizard session: %w", err)
	}

	var sess wizard.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wizard session: %w", err)
	}
	return &sess, nil
}

// Save stores the session and refreshes its TTL.
func (s *WizardSessionStore) Save(ctx context.Context, sess *wizard.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store wizard session: %w", err)
	}
	return nil
}

func (s *WizardSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.sessionKey(id), s.lockKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete wizard session: %w", err)
	}
	return nil
}

// Lock takes the session's operation lock. It fails with ErrOperationInFlight
// while another holder has it.
func (s *WizardSessionStore) Lock(ctx context.Context, id string) (func(), error) {
	token := ulid.Make().String()
	ok, err := s.client.SetNX(ctx, s.lockKey(id), token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return nil, xerrors.ErrOperationInFlight
	}

	key := s.lockKey(id)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		releaseScript.Run(ctx, s.client, []string{key}, token)
	}, nil
}
