package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fundmatch/ai-fund-matcher/internal/models"
	"fundmatch/ai-fund-matcher/internal/repositories"
	"fundmatch/ai-fund-matcher/internal/services"
)

type MatchHandler struct {
	orgRepo     repositories.OrganizationRepository
	programRepo repositories.ProgramRepository
	scorer      *services.BatchScorer
}

func NewMatchHandler(
	orgRepo repositories.OrganizationRepository,
	programRepo repositories.ProgramRepository,
	scorer *services.BatchScorer,
) *MatchHandler {
	return &MatchHandler{
		orgRepo:     orgRepo,
		programRepo: programRepo,
		scorer:      scorer,
	}
}

// HandleMatch handles POST /api/v1/matches
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	var req models.MatchRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.OrganizationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "organization_id is required",
		})
	}

	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid organization_id format",
		})
	}

	profile, err := h.orgRepo.FindByID(orgID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Organization not found",
		})
	}

	programs, err := h.programRepo.ListOpen(time.Now().UTC(), 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load funding programs",
		})
	}

	matches, err := h.scorer.ScoreBatch(c.Context(), profile, programs, req.TopN)
	if err != nil {
		if services.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to score matches",
		})
	}

	return c.JSON(models.MatchResponse{
		OrganizationID: req.OrganizationID,
		Matches:        matches,
		Total:          len(matches),
	})
}
