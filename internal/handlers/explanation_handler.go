package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fundmatch/ai-fund-matcher/internal/models"
	"fundmatch/ai-fund-matcher/internal/repositories"
	"fundmatch/ai-fund-matcher/internal/services"
)

type ExplanationHandler struct {
	orgRepo      repositories.OrganizationRepository
	programRepo  repositories.ProgramRepository
	orchestrator services.Orchestrator
}

func NewExplanationHandler(
	orgRepo repositories.OrganizationRepository,
	programRepo repositories.ProgramRepository,
	orchestrator services.Orchestrator,
) *ExplanationHandler {
	return &ExplanationHandler{
		orgRepo:      orgRepo,
		programRepo:  programRepo,
		orchestrator: orchestrator,
	}
}

// HandleExplanation handles GET /api/v1/matches/:programID/explanation
func (h *ExplanationHandler) HandleExplanation(c *fiber.Ctx) error {
	programID, err := uuid.Parse(c.Params("programID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid program ID format",
		})
	}

	orgParam := c.Query("organization_id")
	if orgParam == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "organization_id is required",
		})
	}
	orgID, err := uuid.Parse(orgParam)
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

	program, err := h.programRepo.FindByID(programID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Program not found",
		})
	}

	breakdown, verdict, err := services.Score(profile, program)
	if err != nil {
		if services.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to score match",
		})
	}

	content, cached, err := h.orchestrator.Explain(c.Context(), callerIdentity(c), callerPlan(c), profile, program, breakdown, verdict)
	if err != nil {
		if denied, resp := quotaDenied(c, err); denied {
			return resp
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate explanation",
		})
	}

	return c.JSON(models.ExplanationResponse{
		Content: *content,
		Cached:  cached,
	})
}
