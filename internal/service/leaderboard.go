package service

import (
	"context"
	"time"

	"ecovendix/internal/repository"
	"ecovendix/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// LeaderboardSize is the number of users shown on the dashboard.
const LeaderboardSize = 6

const leaderboardKey = "leaderboard:top:6"

// LeaderboardEntry is the cached, credential-free view of a ranked user.
type LeaderboardEntry struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Leaderboard serves the top users from redis, falling back to the database.
// Ordering is points desc, id asc.
type Leaderboard struct {
	users repository.UserRepository
	redis redis.Cmdable
	ttl   time.Duration
}

// NewLeaderboard creates a Leaderboard whose cache entries live for ttl.
func NewLeaderboard(users repository.UserRepository, redisClient redis.Cmdable, ttl time.Duration) *Leaderboard {
	return &Leaderboard{users: users, redis: redisClient, ttl: ttl}
}

// Top returns the first LeaderboardSize non-admin users.
func (l *Leaderboard) Top(ctx context.Context) ([]LeaderboardEntry, error) {
	var cached []LeaderboardEntry
	found, err := utils.GetCache(ctx, l.redis, leaderboardKey, &cached)
	if err == nil && found {
		return cached, nil
	}
	if err != nil {
		logrus.WithError(err).Warn("Leaderboard cache read failed")
	}

	users, err := l.users.TopByPoints(ctx, LeaderboardSize)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{ID: u.ID, Name: u.Name, Points: u.Points}
	}
	if err := utils.SetCache(ctx, l.redis, leaderboardKey, entries, l.ttl); err != nil {
		logrus.WithError(err).Warn("Leaderboard cache write failed")
	}
	return entries, nil
}

// Invalidate drops the cached ranking after a balance change.
func (l *Leaderboard) Invalidate(ctx context.Context) {
	if err := utils.DeleteCache(ctx, l.redis, leaderboardKey); err != nil {
		logrus.WithError(err).Warn("Leaderboard cache invalidation failed")
	}
}
