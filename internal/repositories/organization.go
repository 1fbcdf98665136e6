package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fundmatch/ai-fund-matcher/internal/models"
)

// OrganizationRepository is a read-only view over the profile store owned by
// the upstream CRUD service.
type OrganizationRepository interface {
	FindByID(id uuid.UUID) (*models.OrganizationProfile, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

// FindByID implements OrganizationRepository.
func (r *organizationRepository) FindByID(id uuid.UUID) (*models.OrganizationProfile, error) {
	var profile models.OrganizationProfile
	if err := r.db.Where("id = ?", id).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("organization not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	return &profile, nil
}
