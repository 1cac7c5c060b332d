package service

import (
	"context"
	"errors"
	"strings"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/repository"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// SectorService manages the sector registry.
type SectorService struct {
	sectors repository.SectorRepository
}

// NewSectorService constructs the service.
func NewSectorService(repo repository.SectorRepository) *SectorService {
	return &SectorService{sectors: repo}
}

// CreateSector registers a new sector name.
func (s *SectorService) CreateSector(ctx context.Context, name string) (*domain.Sector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	sector := &domain.Sector{Name: name}
	if err := s.sectors.Create(ctx, sector); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("sector already exists", map[string]any{"name": name})
		}
		return nil, err
	}
	return sector, nil
}

// ListSectors returns all sectors ordered by name.
func (s *SectorService) ListSectors(ctx context.Context) ([]domain.Sector, error) {
	return s.sectors.List(ctx)
}

// SectorNames returns the registry names in display order.
func (s *SectorService) SectorNames(ctx context.Context) ([]string, error) {
	sectors, err := s.sectors.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sectors))
	for i, sector := range sectors {
		names[i] = sector.Name
	}
	return names, nil
}

// GetSector fetches a sector by id.
func (s *SectorService) GetSector(ctx context.Context, id int64) (*domain.Sector, error) {
	if err := requirePositiveID(id, "id"); err != nil {
		return nil, err
	}
	sector, err := s.sectors.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "sector", id)
	}
	return sector, nil
}

// DeleteSector removes a sector. Tickets keep their department text.
func (s *SectorService) DeleteSector(ctx context.Context, id int64) error {
	if err := requirePositiveID(id, "id"); err != nil {
		return err
	}
	return notFoundOr(s.sectors.Delete(ctx, id), "sector", id)
}
