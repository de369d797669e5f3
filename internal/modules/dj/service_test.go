package dj

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"partystream/internal/domain"
	"partystream/internal/repository"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, p *domain.DJProfile) error {
	args := m.Called(ctx, p)
	if p != nil {
		p.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockProfileRepository) Update(ctx context.Context, p *domain.DJProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id int64) (*domain.DJProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DJProfile), args.Error(1)
}

func (m *MockProfileRepository) GetByUserID(ctx context.Context, userID int64) (*domain.DJProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DJProfile), args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context, limit, offset int) ([]domain.DJProfile, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.DJProfile), args.Error(1)
}

func (m *MockProfileRepository) Search(ctx context.Context, f repository.SearchFilter, limit, offset int) ([]domain.DJProfile, error) {
	args := m.Called(ctx, f, limit, offset)
	return args.Get(0).([]domain.DJProfile), args.Error(1)
}

func TestService_CreateProfile_DefaultsLanguage(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewService(profiles)

	profiles.On("GetByUserID", mock.Anything, int64(42)).Return(nil, gorm.ErrRecordNotFound)
	profiles.On("Create", mock.Anything, mock.AnythingOfType("*domain.DJProfile")).Return(nil)

	p, err := svc.CreateProfile(context.Background(), 42, UpsertProfileRequest{
		StageName:  " DJ Nova ",
		HourlyRate: 75,
		Genres:     []string{"house", " house ", "techno", ""},
	})

	require.NoError(t, err)
	assert.Equal(t, "DJ Nova", p.StageName)
	assert.Equal(t, []string{"house", "techno"}, p.Genres)
	assert.Equal(t, []string{"English"}, p.Languages)
}

func TestService_CreateProfile_OnePerUser(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewService(profiles)

	profiles.On("GetByUserID", mock.Anything, int64(42)).Return(&domain.DJProfile{ID: 5, UserID: 42}, nil)

	_, err := svc.CreateProfile(context.Background(), 42, UpsertProfileRequest{
		StageName:  "DJ Nova",
		HourlyRate: 75,
	})
	assert.ErrorIs(t, err, ErrProfileExists)
	profiles.AssertNotCalled(t, "Create")
}

func TestService_CreateProfile_Validation(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewService(profiles)

	cases := []UpsertProfileRequest{
		{StageName: "", HourlyRate: 75},
		{StageName: "   ", HourlyRate: 75},
		{StageName: "DJ Nova", HourlyRate: 0},
		{StageName: "DJ Nova", HourlyRate: -5},
	}
	for _, req := range cases {
		_, err := svc.CreateProfile(context.Background(), 42, req)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestService_UpdateProfile_KeepsLanguagesWhenOmitted(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewService(profiles)

	existing := &domain.DJProfile{
		ID: 5, UserID: 42, StageName: "DJ Nova", HourlyRate: 75,
		Languages: []string{"Spanish"},
	}
	profiles.On("GetByUserID", mock.Anything, int64(42)).Return(existing, nil)
	profiles.On("Update", mock.Anything, mock.AnythingOfType("*domain.DJProfile")).Return(nil)

	p, err := svc.UpdateProfile(context.Background(), 42, UpsertProfileRequest{
		StageName:  "DJ Supernova",
		HourlyRate: 90,
	})

	require.NoError(t, err)
	assert.Equal(t, "DJ Supernova", p.StageName)
	assert.Equal(t, 90.0, p.HourlyRate)
	assert.Equal(t, []string{"Spanish"}, p.Languages)
}

func TestService_UpdateProfile_NotFound(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewService(profiles)

	profiles.On("GetByUserID", mock.Anything, int64(42)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.UpdateProfile(context.Background(), 42, UpsertProfileRequest{
		StageName:  "DJ Nova",
		HourlyRate: 75,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Search_ValidatesRateRange(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewService(profiles)

	_, err := svc.Search(context.Background(), SearchQuery{MinRate: 100, MaxRate: 50})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Search(context.Background(), SearchQuery{MinRate: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Search_ClampsPaging(t *testing.T) {
	profiles := new(MockProfileRepository)
	svc := NewService(profiles)

	profiles.On("Search", mock.Anything, repository.SearchFilter{Genre: "house"}, 100, 0).
		Return([]domain.DJProfile{}, nil)

	_, err := svc.Search(context.Background(), SearchQuery{Genre: " house ", Limit: 5000, Offset: -3})
	assert.NoError(t, err)
	profiles.AssertExpectations(t)
}
