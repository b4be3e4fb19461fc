// Package service holds the kiosk workflows: sessions, purchases, accounts and administration.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ecovendix/internal/domain"
	"ecovendix/internal/metrics"
	"ecovendix/internal/repository"
	"ecovendix/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// User-facing messages shared by login and signup.
const (
	MsgInvalidStudentID = "Invalid StudentID. Must be 9-10 digits."
	MsgInvalidLogin     = "Invalid StudentID or password."
	MsgDuplicateID      = "StudentID already exists."
)

// SessionService authenticates callers and maps opaque session tokens to identities.
type SessionService interface {
	Authenticate(ctx context.Context, studentID, credential string) (string, domain.Identity, error)
	Issue(ctx context.Context, user *domain.User) (string, error)
	Resolve(ctx context.Context, token string) (domain.Identity, bool)
	Invalidate(ctx context.Context, token string)
	RevokeUser(ctx context.Context, userID uint) error
	TTL() time.Duration
}

// SessionConfig configures token signing and credential rules.
type SessionConfig struct {
	Secret           string
	TTL              time.Duration
	CredentialLength int
}

type sessionService struct {
	users repository.UserRepository
	redis redis.Cmdable
	cfg   SessionConfig
}

// NewSessionService creates a new SessionService instance.
func NewSessionService(users repository.UserRepository, redisClient redis.Cmdable, cfg SessionConfig) SessionService {
	return &sessionService{users: users, redis: redisClient, cfg: cfg}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func userSessionsKey(userID uint) string {
	return "session:user:" + strconv.FormatUint(uint64(userID), 10)
}

// CredentialMessage is the validation message for a malformed credential.
func CredentialMessage(length int) string {
	return fmt.Sprintf("Password must be %d digits.", length)
}

func (s *sessionService) TTL() time.Duration {
	return s.cfg.TTL
}

// Authenticate checks the identifier and credential and opens a session.
// Unknown identifiers and wrong credentials both return ErrAuthFailure.
func (s *sessionService) Authenticate(ctx context.Context, studentID, credential string) (string, domain.Identity, error) {
	if !utils.IsValidStudentID(studentID) {
		metrics.RecordLogin("invalid")
		return "", domain.Identity{}, domain.NewValidationError("student_id", MsgInvalidStudentID)
	}
	if !utils.IsValidCredential(credential, s.cfg.CredentialLength) {
		metrics.RecordLogin("invalid")
		return "", domain.Identity{}, domain.NewValidationError("password", CredentialMessage(s.cfg.CredentialLength))
	}

	user, err := s.users.FindByStudentID(ctx, studentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", domain.Identity{}, err
	}
	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if !utils.VerifyCredential(hash, credential) {
		metrics.RecordLogin("failure")
		logrus.WithField("student_id", studentID).Warn("Login failed")
		return "", domain.Identity{}, domain.ErrAuthFailure
	}

	token, err := s.Issue(ctx, user)
	if err != nil {
		return "", domain.Identity{}, err
	}
	metrics.RecordLogin("success")
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"is_admin": user.IsAdmin,
	}).Info("Login")
	return token, domain.Identity{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// Issue signs a new session token for user and records its binding in redis.
func (s *sessionService) Issue(ctx context.Context, user *domain.User) (string, error) {
	sid, err := utils.NewSessionID()
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	token, err := utils.GenerateJWT(user.ID, user.IsAdmin, sid, s.cfg.Secret, s.cfg.TTL)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, sessionKey(sid), strconv.FormatUint(uint64(user.ID), 10), s.cfg.TTL)
	pipe.SAdd(ctx, userSessionsKey(user.ID), sid)
	pipe.Expire(ctx, userSessionsKey(user.ID), s.cfg.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store session: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return token, nil
}

// Resolve returns the identity bound to token. Any problem with the token or
// its binding yields an anonymous caller rather than an error.
func (s *sessionService) Resolve(ctx context.Context, token string) (domain.Identity, bool) {
	if token == "" {
		return domain.Identity{}, false
	}
	claims, err := utils.ParseJWT(token, s.cfg.Secret)
	if err != nil {
		return domain.Identity{}, false
	}
	bound, err := s.redis.Get(ctx, sessionKey(claims.ID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).Warn("Session lookup failed")
		}
		return domain.Identity{}, false
	}
	if bound != strconv.FormatUint(uint64(claims.UserID), 10) {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin}, true
}

// Invalidate clears the binding behind token. Unparseable tokens are ignored.
func (s *sessionService) Invalidate(ctx context.Context, token string) {
	claims, err := utils.ParseJWT(token, s.cfg.Secret)
	if err != nil {
		return
	}
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, sessionKey(claims.ID))
	pipe.SRem(ctx, userSessionsKey(claims.UserID), claims.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).WithField("user_id", claims.UserID).Warn("Session invalidation failed")
	}
}

// RevokeUser clears every session issued to userID.
func (s *sessionService) RevokeUser(ctx context.Context, userID uint) error {
	sids, err := s.redis.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w: %v", domain.ErrStoreUnavailable, err)
	}
	keys := make([]string, 0, len(sids)+1)
	for _, sid := range sids {
		keys = append(keys, sessionKey(sid))
	}
	keys = append(keys, userSessionsKey(userID))
	if err := utils.DeleteCache(ctx, s.redis, keys...); err != nil {
		return fmt.Errorf("revoke sessions: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
