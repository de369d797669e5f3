package dj

import (
	"context"

	"partystream/internal/domain"
	"partystream/internal/repository"
)

type ProfileRepository interface {
	Create(ctx context.Context, p *domain.DJProfile) error
	Update(ctx context.Context, p *domain.DJProfile) error
	GetByID(ctx context.Context, id int64) (*domain.DJProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.DJProfile, error)
	List(ctx context.Context, limit, offset int) ([]domain.DJProfile, error)
	Search(ctx context.Context, f repository.SearchFilter, limit, offset int) ([]domain.DJProfile, error)
}
