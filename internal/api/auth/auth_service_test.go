package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

// MockUserStore is a mock implementation of the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*types.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) FindByProvider(ctx context.Context, provider, providerID string) (*types.User, error) {
	args := m.Called(ctx, provider, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*types.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, user *types.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) RecordLogin(ctx context.Context, userID int64, provider string) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		user := &types.User{ID: 1, Username: "alice", Password: hashed(t, "secret"), Role: types.RoleUser, Provider: types.ProviderLocal}

		store.On("FindByUsername", mock.Anything, "alice").Return(user, nil).Once()
		store.On("RecordLogin", mock.Anything, int64(1), types.ProviderLocal).Return(nil).Once()

		p, err := service.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		assert.Equal(t, types.KindLocal, p.Kind())
		assert.Equal(t, "alice", p.Name())
		assert.Equal(t, []string{types.RoleUser}, p.Authorities())
		store.AssertExpectations(t)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		store.On("FindByUsername", mock.Anything, "ghost").Return(nil, nil).Once()

		p, err := service.Login(ctx, "ghost", "secret")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		assert.Nil(t, p)
		store.AssertNotCalled(t, "RecordLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		user := &types.User{ID: 1, Username: "alice", Password: hashed(t, "secret"), Provider: types.ProviderLocal}
		store.On("FindByUsername", mock.Anything, "alice").Return(user, nil).Once()

		_, err := service.Login(ctx, "alice", "nope")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("OAuthAccountCannotUsePassword", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		user := &types.User{ID: 1, Username: "google_1", Password: hashed(t, "secret"), Provider: "google"}
		store.On("FindByUsername", mock.Anything, "google_1").Return(user, nil).Once()

		_, err := service.Login(ctx, "google_1", "secret")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("LockedAccount", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		until := time.Now().Add(time.Hour)
		user := &types.User{ID: 1, Username: "alice", Password: hashed(t, "secret"), Provider: types.ProviderLocal, LockedUntil: &until}
		store.On("FindByUsername", mock.Anything, "alice").Return(user, nil).Once()

		_, err := service.Login(ctx, "alice", "secret")
		assert.ErrorIs(t, err, types.ErrAccountUnavailable)
	})

	t.Run("StoreError", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		dbErr := errors.New("connection refused")
		store.On("FindByUsername", mock.Anything, "alice").Return(nil, dbErr).Once()

		_, err := service.Login(ctx, "alice", "secret")
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("RecordLoginFailureDoesNotFailLogin", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		user := &types.User{ID: 1, Username: "alice", Password: hashed(t, "secret"), Provider: types.ProviderLocal}
		store.On("FindByUsername", mock.Anything, "alice").Return(user, nil).Once()
		store.On("RecordLogin", mock.Anything, int64(1), types.ProviderLocal).Return(errors.New("boom")).Once()

		_, err := service.Login(ctx, "alice", "secret")
		assert.NoError(t, err)
	})
}

func TestLoginOAuth(t *testing.T) {
	ctx := context.Background()
	gu := goth.User{
		Provider: "google",
		UserID:   "1034",
		Email:    "bob@example.com",
		Name:     "Bob",
		RawData:  map[string]interface{}{"locale": "en"},
	}

	t.Run("ProvisionsNewUser", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)

		store.On("FindByProvider", mock.Anything, "google", "1034").Return(nil, nil).Once()
		store.On("Create", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
			return u.Username == "google_1034" && u.Provider == "google" && u.ProviderID == "1034" &&
				u.Role == types.RoleUser && u.Email == "bob@example.com" && u.Password != ""
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*types.User).ID = 9
		}).Return(nil).Once()
		store.On("RecordLogin", mock.Anything, int64(9), "google").Return(nil).Once()

		p, err := service.LoginOAuth(ctx, gu)
		require.NoError(t, err)
		assert.Equal(t, types.KindOAuth, p.Kind())
		assert.Equal(t, "1034", p.Name())
		assert.Equal(t, "google_1034", p.Username())
		attrs, ok := p.Attributes()
		require.True(t, ok)
		assert.Equal(t, "en", attrs["locale"])
		assert.Equal(t, "bob@example.com", attrs["email"])
		store.AssertExpectations(t)
	})

	t.Run("ExistingUser", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		existing := &types.User{ID: 9, Username: "google_1034", Provider: "google", ProviderID: "1034", Role: types.RoleAdmin}

		store.On("FindByProvider", mock.Anything, "google", "1034").Return(existing, nil).Once()
		store.On("RecordLogin", mock.Anything, int64(9), "google").Return(nil).Once()

		p, err := service.LoginOAuth(ctx, gu)
		require.NoError(t, err)
		assert.True(t, p.HasRole(types.RoleAdmin))
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("LocalAccountHoldsUsername", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)

		store.On("FindByProvider", mock.Anything, "google", "1034").Return(nil, nil).Once()
		store.On("Create", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
			return u.Username == "google_1034"
		})).Return(types.ErrConflict).Once()
		store.On("Create", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
			return strings.HasPrefix(u.Username, "google_1034_") && u.Provider == "google" && u.ProviderID == "1034"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*types.User).ID = 12
		}).Return(nil).Once()
		store.On("RecordLogin", mock.Anything, int64(12), "google").Return(nil).Once()

		p, err := service.LoginOAuth(ctx, gu)
		require.NoError(t, err)
		assert.Equal(t, int64(12), p.UserID())
		assert.Equal(t, "1034", p.Name())
		store.AssertExpectations(t)
	})

	t.Run("LookupError", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		dbErr := errors.New("connection reset")
		store.On("FindByProvider", mock.Anything, "google", "1034").Return(nil, dbErr).Once()

		_, err := service.LoginOAuth(ctx, gu)
		assert.ErrorIs(t, err, dbErr)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("IncompleteIdentity", func(t *testing.T) {
		service := newAuthService(new(MockUserStore), nil, discardLogger(), bcrypt.MinCost)
		_, err := service.LoginOAuth(ctx, goth.User{Provider: "google"})
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)

		var stored *types.User
		store.On("Create", mock.Anything, mock.AnythingOfType("*types.User")).Run(func(args mock.Arguments) {
			stored = args.Get(1).(*types.User)
			stored.ID = 5
		}).Return(nil).Once()

		u, err := service.Register(ctx, types.RegisterRequest{Username: " carol ", Password: "pass1234", Email: "c@example.com"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), u.ID)
		assert.Equal(t, "carol", stored.Username)
		assert.Equal(t, types.RoleUser, stored.Role)
		assert.NotEqual(t, "pass1234", stored.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("pass1234")))
	})

	t.Run("Conflict", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		store.On("Create", mock.Anything, mock.Anything).Return(types.ErrConflict).Once()

		_, err := service.Register(ctx, types.RegisterRequest{Username: "carol", Password: "pass1234"})
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		service := newAuthService(new(MockUserStore), nil, discardLogger(), bcrypt.MinCost)
		cases := []types.RegisterRequest{
			{Username: "", Password: "pass1234"},
			{Username: "ab", Password: "pass1234"},
			{Username: "has space", Password: "pass1234"},
			{Username: "carol", Password: "x"},
			{Username: "carol", Password: "pass1234", Email: "not-an-email"},
			{Username: strings.Repeat("가", 51), Password: "pass1234"},
		}
		for _, req := range cases {
			_, err := service.Register(ctx, req)
			assert.ErrorIs(t, err, types.ErrInvalidInput, "request %+v", req)
		}
	})

	t.Run("UsernameLengthCountsCharacters", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		store.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()

		// 3 characters, 9 bytes.
		_, err := service.Register(ctx, types.RegisterRequest{Username: "홍길동", Password: "pass1234"})
		assert.NoError(t, err)
		// 50 characters, 150 bytes.
		_, err = service.Register(ctx, types.RegisterRequest{Username: strings.Repeat("가", 50), Password: "pass1234"})
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("LocalPrincipal", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		store.On("GetByID", mock.Anything, int64(1)).Return(&types.User{ID: 1, Username: "alice"}, nil).Once()

		p, err := service.Resolve(ctx, 1, types.KindLocal, nil)
		require.NoError(t, err)
		assert.Equal(t, types.KindLocal, p.Kind())
	})

	t.Run("OAuthPrincipalKeepsAttributes", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		store.On("GetByID", mock.Anything, int64(9)).Return(&types.User{ID: 9, Username: "google_1034"}, nil).Once()

		p, err := service.Resolve(ctx, 9, types.KindOAuth, map[string]any{"sub": "1034"})
		require.NoError(t, err)
		assert.Equal(t, "1034", p.Name())
	})

	t.Run("DeletedUser", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		store.On("GetByID", mock.Anything, int64(1)).Return(nil, nil).Once()

		_, err := service.Resolve(ctx, 1, types.KindLocal, nil)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("DisabledUser", func(t *testing.T) {
		store := new(MockUserStore)
		service := newAuthService(store, nil, discardLogger(), bcrypt.MinCost)
		now := time.Now()
		store.On("GetByID", mock.Anything, int64(1)).Return(&types.User{ID: 1, DisabledAt: &now}, nil).Once()

		_, err := service.Resolve(ctx, 1, types.KindLocal, nil)
		assert.ErrorIs(t, err, types.ErrAccountUnavailable)
	})
}
