package service_test

import (
	"testing"
	"time"

	"ecovendix/internal/domain"
	"ecovendix/internal/service"
	"ecovendix/internal/testutil"
	"ecovendix/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	f := setup(t)

	user, err := f.Accounts.Signup(background(), "  Alice  ", "123456789", "4321")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, 0, user.Points)
	assert.False(t, user.IsAdmin)

	stored := testutil.Reload(t, f.DB, user.ID)
	assert.NotEqual(t, "4321", stored.PasswordHash)
	assert.True(t, utils.VerifyCredential(stored.PasswordHash, "4321"))

	_, id, err := f.Sessions.Authenticate(background(), "123456789", "4321")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
}

func TestSignupRejects(t *testing.T) {
	f := setup(t)
	testutil.CreateUser(t, f.DB, "Taken", "223456789", 0)

	tests := []struct {
		name       string
		full       string
		studentID  string
		credential string
		want       error
	}{
		{"short identifier", "Dan", "12345", "1234", domain.ErrValidation},
		{"long identifier", "Dan", "12345678901", "1234", domain.ErrValidation},
		{"non numeric identifier", "Dan", "12345678a", "1234", domain.ErrValidation},
		{"blank name", "   ", "323456789", "1234", domain.ErrValidation},
		{"short credential", "Dan", "323456789", "123", domain.ErrValidation},
		{"non numeric credential", "Dan", "323456789", "12ab", domain.ErrValidation},
		{"duplicate identifier", "Dan", "223456789", "1234", domain.ErrDuplicateIdentifier},
		{"reserved admin identifier", "Dan", adminStudentID, "1234", domain.ErrDuplicateIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Accounts.Signup(background(), tt.full, tt.studentID, tt.credential)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, int64(1), testutil.CountRows(t, f.DB, &domain.User{}, ""))
}

func TestSignupValidationFailureIsRepeatable(t *testing.T) {
	f := setup(t)

	for n := 0; n < 3; n++ {
		_, err := f.Accounts.Signup(background(), "Dan", "12345", "1234")
		assert.EqualError(t, err, service.MsgInvalidStudentID)
		_, _, err = f.Sessions.Authenticate(background(), "12345", "1234")
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	assert.Equal(t, int64(0), testutil.CountRows(t, f.DB, &domain.User{}, ""))
	assert.Equal(t, int64(0), testutil.CountRows(t, f.DB, &domain.Transaction{}, ""))
	assert.Empty(t, f.Mini.Keys())
}

func TestDashboard(t *testing.T) {
	f := setup(t)
	testutil.CreateAdmin(t, f.DB, adminStudentID)
	users := []*domain.User{
		testutil.CreateUser(t, f.DB, "U1", "100000001", 90),
		testutil.CreateUser(t, f.DB, "U2", "100000002", 50),
		testutil.CreateUser(t, f.DB, "U3", "100000003", 50),
		testutil.CreateUser(t, f.DB, "U4", "100000004", 10),
		testutil.CreateUser(t, f.DB, "U5", "100000005", 70),
		testutil.CreateUser(t, f.DB, "U6", "100000006", 5),
		testutil.CreateUser(t, f.DB, "U7", "100000007", 1),
	}
	testutil.CreateProduct(t, f.DB, "Water", 15, 11)
	testutil.CreateProduct(t, f.DB, "Soda", 35, 9)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		testutil.CreateEntry(t, f.DB, users[2].ID, "Water", -15, base.Add(time.Duration(i)*time.Minute))
	}

	view, err := f.Accounts.Dashboard(background(), domain.Identity{UserID: users[2].ID})
	require.NoError(t, err)

	assert.Equal(t, 50, view.User.Points)
	assert.Len(t, view.Products, 2)
	require.Len(t, view.History, service.RecentHistorySize)
	assert.True(t, view.History[0].Timestamp.After(view.History[1].Timestamp))
	assert.Equal(t, 4, view.Rank, "ties on points are broken by id")

	require.Len(t, view.Leaderboard, service.LeaderboardSize)
	var names []string
	for _, e := range view.Leaderboard {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"U1", "U5", "U2", "U3", "U4", "U6"}, names)
}

func TestDashboardRejectsAnonymous(t *testing.T) {
	f := setup(t)
	_, err := f.Accounts.Dashboard(background(), domain.Identity{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.Accounts.Dashboard(background(), domain.Identity{UserID: 42})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLeaderboardServesFromCache(t *testing.T) {
	f := setup(t)
	u := testutil.CreateUser(t, f.DB, "U1", "100000001", 90)

	top, err := f.Leaderboard.Top(background())
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.True(t, f.Mini.Exists("leaderboard:top:6"))

	require.NoError(t, f.DB.Model(u).Update("points", 1).Error)
	top, err = f.Leaderboard.Top(background())
	require.NoError(t, err)
	assert.Equal(t, 90, top[0].Points, "direct writes are not visible until invalidation")

	f.Leaderboard.Invalidate(background())
	top, err = f.Leaderboard.Top(background())
	require.NoError(t, err)
	assert.Equal(t, 1, top[0].Points)
}

func TestLeaderboardFallsBackWhenRedisDown(t *testing.T) {
	f := setup(t)
	testutil.CreateUser(t, f.DB, "U1", "100000001", 90)
	f.Mini.Close()

	top, err := f.Leaderboard.Top(background())
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "U1", top[0].Name)
}
