package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fundmatch/ai-fund-matcher/internal/services"
)

// callerIdentity resolves the rate-limit and cost-ledger identity. The
// gateway sets X-Identity for authenticated tenants; anonymous traffic is
// keyed by client IP.
func callerIdentity(c *fiber.Ctx) string {
	if id := c.Get("X-Identity"); id != "" {
		return id
	}
	return c.IP()
}

func callerPlan(c *fiber.Ctx) services.QuotaPlan {
	return services.ParseQuotaPlan(c.Get("X-Plan"))
}

// quotaDenied maps quota errors to 429 responses with a machine-readable
// reason, so clients can tell "come back tomorrow" from "upgrade your plan".
// Returns false when err is not a quota denial.
func quotaDenied(c *fiber.Ctx, err error) (bool, error) {
	switch {
	case errors.Is(err, services.ErrRateLimited):
		return true, c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":  "Daily AI request limit reached for your plan",
			"reason": "rate_limited",
		})
	case errors.Is(err, services.ErrBudgetExceeded):
		return true, c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":  "Daily AI budget exhausted",
			"reason": "budget_exceeded",
		})
	}
	return false, nil
}
