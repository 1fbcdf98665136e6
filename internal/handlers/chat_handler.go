package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fundmatch/ai-fund-matcher/internal/models"
	"fundmatch/ai-fund-matcher/internal/repositories"
	"fundmatch/ai-fund-matcher/internal/services"
)

type ChatHandler struct {
	orgRepo      repositories.OrganizationRepository
	programRepo  repositories.ProgramRepository
	orchestrator services.Orchestrator
}

func NewChatHandler(
	orgRepo repositories.OrganizationRepository,
	programRepo repositories.ProgramRepository,
	orchestrator services.Orchestrator,
) *ChatHandler {
	return &ChatHandler{
		orgRepo:      orgRepo,
		programRepo:  programRepo,
		orchestrator: orchestrator,
	}
}

// HandleChat handles POST /api/v1/matches/:programID/chat
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	programID, err := uuid.Parse(c.Params("programID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid program ID format",
		})
	}

	var req models.ChatRequest
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
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
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

	content, conversationID, err := h.orchestrator.Chat(c.Context(), callerIdentity(c), callerPlan(c), req.ConversationID, profile, program, breakdown, verdict, req.Message)
	if err != nil {
		if denied, resp := quotaDenied(c, err); denied {
			return resp
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate reply",
		})
	}

	return c.JSON(models.ChatResponse{
		ConversationID: conversationID,
		Content:        *content,
	})
}
