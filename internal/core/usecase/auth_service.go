package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
	"github.com/atvirokodosprendimai/crmapi/internal/core/ports"
)

var ErrUnauthorized = errors.New("unauthorized")

const sessionTTL = 24 * time.Hour

type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionRepository) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Login verifies credentials and issues an opaque session token. Only the
// token's hash is stored.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.Actor, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", domain.Actor{}, ErrUnauthorized
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.Actor{}, ErrUnauthorized
		}
		return "", domain.Actor{}, fmt.Errorf("find user: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(HashToken(password)), []byte(user.PasswordHash)) != 1 {
		return "", domain.Actor{}, ErrUnauthorized
	}

	token := uuid.NewString()
	now := time.Now().UTC()
	err = s.sessions.Create(ctx, domain.Session{
		TokenHash: HashToken(token),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	})
	if err != nil {
		return "", domain.Actor{}, fmt.Errorf("create session: %w", err)
	}

	return token, user.Actor(), nil
}

// Authenticate resolves a session token to the acting user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Actor{}, ErrUnauthorized
	}

	session, err := s.sessions.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Actor{}, ErrUnauthorized
		}
		return domain.Actor{}, fmt.Errorf("find session: %w", err)
	}
	if session.Expired(time.Now().UTC()) {
		return domain.Actor{}, ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Actor{}, ErrUnauthorized
		}
		return domain.Actor{}, fmt.Errorf("find session user: %w", err)
	}
	return user.Actor(), nil
}

func (s *AuthService) Logout(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	return s.sessions.Delete(ctx, HashToken(token))
}

func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

type actorCtxKey struct{}

// WithActor stamps the authenticated actor into the request context; the
// session middleware calls this once per request.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(domain.Actor)
	return actor, ok
}

// ContextActorResolver resolves the acting identity from the request
// context. It is the production ActorResolver handed to the Recorder.
type ContextActorResolver struct{}

func (ContextActorResolver) CurrentActor(ctx context.Context) (domain.Actor, bool) {
	return ActorFromContext(ctx)
}
