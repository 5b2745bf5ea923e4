package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/queue"
	"github.com/fitlgui/Api-OurThree/internal/service/servicetest"
)

const adminKey = "k3y"

func newAccounts(t *testing.T) (*AccountService, *servicetest.Users, *servicetest.Events) {
	t.Helper()
	users := servicetest.NewUsers()
	events := &servicetest.Events{}
	return NewAccountService(users, SharedSecret(adminKey), bcrypt.MinCost, events, logging.Discard()), users, events
}

func register(s *AccountService, username, email, password, key string) error {
	return s.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password, AdminKey: key})
}

func TestRegister_ThenLogin(t *testing.T) {
	s, users, events := newAccounts(t)
	ctx := context.Background()

	require.NoError(t, register(s, "a", "a@x.com", "p", adminKey))

	stored, err := users.GetByUsername(ctx, "a")
	require.NoError(t, err)
	assert.NotEqual(t, "p", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
	assert.False(t, stored.CreatedAt.IsZero())

	assert.NoError(t, s.Login(ctx, "a", "p"))
	assert.ErrorIs(t, s.Login(ctx, "a", "wrong"), ErrInvalidPassword)
	assert.ErrorIs(t, s.Login(ctx, "a", "wrong"), ErrUnauthorized)
	assert.ErrorIs(t, s.Login(ctx, "nobody", "p"), ErrUserNotFound)

	require.Len(t, events.Events, 1)
	ev, ok := events.Events[0].(queue.UserRegisteredEvent)
	require.True(t, ok)
	assert.Equal(t, "a", ev.Username)
	assert.Equal(t, "a@x.com", ev.Email)
}

func TestRegister_BadAdminKeyTouchesNothing(t *testing.T) {
	s, users, events := newAccounts(t)

	for _, key := range []string{"", "wrong", adminKey + " ", strings.ToUpper(adminKey)} {
		err := register(s, "a", "a@x.com", "p", key)
		assert.ErrorIs(t, err, ErrForbidden, "key %q", key)
	}
	// empty body is still 403, not 400
	assert.ErrorIs(t, register(s, "", "", "", "nope"), ErrForbidden)

	assert.Zero(t, users.Calls, "no store access on forbidden")
	assert.Zero(t, users.Len())
	assert.Empty(t, events.Events)
}

func TestRegister_Duplicates(t *testing.T) {
	s, users, _ := newAccounts(t)
	require.NoError(t, register(s, "a", "a@x.com", "p", adminKey))

	assert.ErrorIs(t, register(s, "a", "other@x.com", "p", adminKey), ErrConflict)
	assert.ErrorIs(t, register(s, "b", "a@x.com", "p", adminKey), ErrConflict)
	assert.Equal(t, 1, users.Len())
}

// A registration that slips past the lookups is still rejected by the
// unique constraint on insert.
type racingUsers struct{ *servicetest.Users }

func (racingUsers) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }
func (racingUsers) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }

func TestRegister_UniqueIndexClosesRace(t *testing.T) {
	users := racingUsers{servicetest.NewUsers()}
	s := NewAccountService(users, SharedSecret(adminKey), bcrypt.MinCost, nil, logging.Discard())

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = register(s, "same", "same"+string(rune('a'+i))+"@x.com", "p", adminKey)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrUserExists)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, users.Len())
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newAccounts(t)

	assert.ErrorIs(t, register(s, " ", "a@x.com", "p", adminKey), ErrMissingFields)
	assert.ErrorIs(t, register(s, "a", "", "p", adminKey), ErrMissingFields)
	assert.ErrorIs(t, register(s, "a", "a@x.com", "", adminKey), ErrBadRequest)
	assert.ErrorIs(t, register(s, "a", "a@x.com", strings.Repeat("x", 80), adminKey), ErrPasswordTooLong)
}

func TestRegister_StoreFailureIsInternal(t *testing.T) {
	s, users, _ := newAccounts(t)
	users.Err = errors.New("connection reset")

	err := register(s, "a", "a@x.com", "p", adminKey)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, users.Err)

	assert.ErrorIs(t, s.Login(context.Background(), "a", "p"), ErrInternal)
}

func TestRegister_EventFailureDoesNotFail(t *testing.T) {
	s, users, events := newAccounts(t)
	events.Err = errors.New("broker down")

	require.NoError(t, register(s, "a", "a@x.com", "p", adminKey))
	assert.Equal(t, 1, users.Len())
}

func TestLogin_CorruptHashIsInternal(t *testing.T) {
	s, users, _ := newAccounts(t)
	users.Put(storedUser("a", "not-bcrypt"))

	assert.ErrorIs(t, s.Login(context.Background(), "a", "p"), ErrInternal)
}

func TestSharedSecret(t *testing.T) {
	assert.True(t, SharedSecret("x").Authorize("x"))
	assert.False(t, SharedSecret("x").Authorize("y"))
	assert.False(t, SharedSecret("").Authorize(""), "empty secret never authorizes")
}
