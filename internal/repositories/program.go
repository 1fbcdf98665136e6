package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fundmatch/ai-fund-matcher/internal/models"
)

// ProgramRepository is a read-only view over the funding-program catalog
// populated by the upstream ingestion pipeline.
type ProgramRepository interface {
	FindByID(id uuid.UUID) (*models.FundingProgram, error)
	ListOpen(now time.Time, limit int) ([]models.FundingProgram, error)
}

type programRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

// FindByID implements ProgramRepository.
func (r *programRepository) FindByID(id uuid.UUID) (*models.FundingProgram, error) {
	var program models.FundingProgram
	if err := r.db.Where("id = ?", id).First(&program).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("program not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find program: %w", err)
	}

	return &program, nil
}

// ListOpen implements ProgramRepository. Programs past their application
// deadline are excluded from match batches.
func (r *programRepository) ListOpen(now time.Time, limit int) ([]models.FundingProgram, error) {
	var programs []models.FundingProgram
	query := r.db.
		Where("deadline > ?", now).
		Order("deadline ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("failed to list open programs: %w", err)
	}

	return programs, nil
}
