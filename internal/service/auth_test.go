package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmarjanovic/tasklist-api/internal/auth"
	"github.com/dmarjanovic/tasklist-api/internal/model"
	"github.com/dmarjanovic/tasklist-api/internal/repo"

	"github.com/google/uuid"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func newTestAuthService(users repo.UserRepository) (*AuthService, *auth.TokenManager) {
	tm := auth.NewTokenManager("test-secret", 7*24*time.Hour)
	return NewAuthService(users, tm), tm
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		email     string
		password  string
		setupMock func(*MockUserRepository)
		wantErr   error
	}{
		{
			name:     "successful registration",
			username: "alice",
			email:    "a@x.com",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
					// пароль никогда не сохраняется открытым текстом
					return u.Username == "alice" && u.Email == "a@x.com" &&
						u.PasswordHash != "pw123456" &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw123456")) == nil
				})).Return(model.User{ID: uuid.New(), Username: "alice", Email: "a@x.com"}, nil)
			},
			wantErr: nil,
		},
		{
			name:      "empty username",
			username:  " ",
			email:     "a@x.com",
			password:  "pw123456",
			setupMock: func(m *MockUserRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "empty email",
			username:  "alice",
			email:     "",
			password:  "pw123456",
			setupMock: func(m *MockUserRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "empty password",
			username:  "alice",
			email:     "a@x.com",
			password:  "",
			setupMock: func(m *MockUserRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:     "duplicate email",
			username: "alice",
			email:    "a@x.com",
			password: "pw123456",
			setupMock: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(model.User{}, repo.ErrorConflict)
			},
			wantErr: repo.ErrorConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service, tm := newTestAuthService(mockRepo)
			token, err := service.Register(context.Background(), tt.username, tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				_, ok := tm.Verify(token)
				assert.True(t, ok, "register should return a verifiable token")
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	userID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := model.User{ID: userID, Username: "alice", Email: "a@x.com", PasswordHash: string(hash)}

	t.Run("successful login returns identity token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		service, tm := newTestAuthService(mockRepo)
		token, err := service.Login(context.Background(), "a@x.com", "pw123456")

		require.NoError(t, err)
		got, ok := tm.Verify(token)
		assert.True(t, ok)
		assert.Equal(t, userID, got)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByEmail", mock.Anything, "nobody@x.com").Return(model.User{}, repo.ErrorNotFound)
		mockRepo.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		service, _ := newTestAuthService(mockRepo)

		_, errUnknown := service.Login(context.Background(), "nobody@x.com", "pw123456")
		_, errWrongPw := service.Login(context.Background(), "a@x.com", "wrong-password")

		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
		assert.Equal(t, errUnknown, errWrongPw)
	})
}
