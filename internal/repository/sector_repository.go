package repository

import (
	"context"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/persistence"
)

// SectorRepository manages sector persistence.
type SectorRepository interface {
	Create(ctx context.Context, sector *domain.Sector) error
	GetByID(ctx context.Context, id int64) (*domain.Sector, error)
	List(ctx context.Context) ([]domain.Sector, error)
	Delete(ctx context.Context, id int64) error
}

type sectorRepository struct {
	db *persistence.Database
}

// NewSectorRepository builds the repository.
func NewSectorRepository(db *persistence.Database) SectorRepository {
	return &sectorRepository{db: db}
}

// Create inserts the sector. A taken name yields ErrDuplicate.
func (r *sectorRepository) Create(ctx context.Context, sector *domain.Sector) error {
	const query = `INSERT INTO sectors (name) VALUES (?) RETURNING id`
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), sector.Name).Scan(&sector.ID)
	return translate(err)
}

func (r *sectorRepository) GetByID(ctx context.Context, id int64) (*domain.Sector, error) {
	const query = `SELECT id, name FROM sectors WHERE id=?`
	var sector domain.Sector
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(query), id).Scan(&sector.ID, &sector.Name); err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *sectorRepository) List(ctx context.Context) ([]domain.Sector, error) {
	const query = `SELECT id, name FROM sectors ORDER BY name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Sector{}
	for rows.Next() {
		var sector domain.Sector
		if err := rows.Scan(&sector.ID, &sector.Name); err != nil {
			return nil, err
		}
		result = append(result, sector)
	}
	return result, rows.Err()
}

func (r *sectorRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sectors WHERE id=?`), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
