package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"partystream/internal/domain"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if u != nil {
		u.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(userID int64, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func TestService_Register_LowercasesEmail(t *testing.T) {
	users := new(MockUserRepository)
	issuer := new(MockTokenIssuer)
	svc := NewService(users, issuer)

	users.On("EmailExists", mock.Anything, "host@example.com").Return(false, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	issuer.On("GenerateToken", int64(999), "host").Return("tok", nil)

	res, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "  HOST@Example.COM ",
		Password: "secret123",
		Name:     "Host",
		Role:     "host",
	})

	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "host@example.com", res.User.Email)
	assert.Empty(t, res.User.PasswordHash)
}

func TestService_Register_RejectsAdminRole(t *testing.T) {
	users := new(MockUserRepository)
	issuer := new(MockTokenIssuer)
	svc := NewService(users, issuer)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "x@example.com",
		Password: "secret123",
		Name:     "X",
		Role:     "admin",
	})
	assert.ErrorIs(t, err, ErrValidation)
	users.AssertNotCalled(t, "Create")
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	issuer := new(MockTokenIssuer)
	svc := NewService(users, issuer)

	users.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "taken@example.com",
		Password: "secret123",
		Name:     "X",
		Role:     "dj",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Login(t *testing.T) {
	users := new(MockUserRepository)
	issuer := new(MockTokenIssuer)
	svc := NewService(users, issuer)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := func() *domain.User {
		return &domain.User{ID: 7, Email: "host@example.com", PasswordHash: string(hash), Role: domain.RoleHost}
	}

	users.On("GetByEmail", mock.Anything, "host@example.com").Return(stored(), nil)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
	issuer.On("GenerateToken", int64(7), "host").Return("tok", nil)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "Host@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Empty(t, res.User.PasswordHash)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "host@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Me_StripsHash(t *testing.T) {
	users := new(MockUserRepository)
	issuer := new(MockTokenIssuer)
	svc := NewService(users, issuer)

	users.On("GetByID", mock.Anything, int64(7)).
		Return(&domain.User{ID: 7, Email: "host@example.com", PasswordHash: "hash"}, nil)

	u, err := svc.Me(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
}
