package dj

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"partystream/internal/domain"
	"partystream/internal/repository"
)

type Service struct {
	profiles ProfileRepository
}

func NewService(profiles ProfileRepository) *Service {
	return &Service{profiles: profiles}
}

// CreateProfile creates the single profile of a dj user. Languages
// default to English when omitted.
func (s *Service) CreateProfile(ctx context.Context, userID int64, req UpsertProfileRequest) (*domain.DJProfile, error) {
	if err := validateProfile(req); err != nil {
		return nil, err
	}

	if _, err := s.profiles.GetByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p := &domain.DJProfile{
		UserID:     userID,
		StageName:  strings.TrimSpace(req.StageName),
		Bio:        req.Bio,
		HourlyRate: req.HourlyRate,
		Genres:     normalizeSet(req.Genres),
		Languages:  normalizeSet(req.Languages),
	}
	if len(p.Languages) == 0 {
		p.Languages = []string{"English"}
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpsertProfileRequest) (*domain.DJProfile, error) {
	if err := validateProfile(req); err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.StageName = strings.TrimSpace(req.StageName)
	p.Bio = req.Bio
	p.HourlyRate = req.HourlyRate
	p.Genres = normalizeSet(req.Genres)
	if langs := normalizeSet(req.Languages); len(langs) > 0 {
		p.Languages = langs
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, id int64) (*domain.DJProfile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) GetOwnProfile(ctx context.Context, userID int64) (*domain.DJProfile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.DJProfile, error) {
	limit, offset = clampPage(limit, offset)
	return s.profiles.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, q SearchQuery) ([]domain.DJProfile, error) {
	if q.MinRate < 0 || q.MaxRate < 0 || (q.MaxRate > 0 && q.MinRate > q.MaxRate) {
		return nil, ErrValidation
	}
	limit, offset := clampPage(q.Limit, q.Offset)
	return s.profiles.Search(ctx, repository.SearchFilter{
		Genre:    strings.TrimSpace(q.Genre),
		Language: strings.TrimSpace(q.Language),
		MinRate:  q.MinRate,
		MaxRate:  q.MaxRate,
	}, limit, offset)
}

func validateProfile(req UpsertProfileRequest) error {
	if strings.TrimSpace(req.StageName) == "" || req.HourlyRate <= 0 {
		return ErrValidation
	}
	return nil
}

func normalizeSet(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
