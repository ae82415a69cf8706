package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/middleware/requestid"
	"github.com/AIS170/SENG3011-OMEGA/internal/ticker"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

type TickerHandler struct {
	client *ticker.Client
}

func NewTickerHandler(client *ticker.Client) *TickerHandler {
	return &TickerHandler{client: client}
}

func (h *TickerHandler) Lookup(c *fiber.Ctx) error {
	company := c.Query("company")
	if company == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please provide a company name.",
		})
	}

	symbol, err := h.client.Resolve(c.Context(), company)
	if errors.Is(err, ticker.ErrTickerNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Could not find a stock ticker for '" + company + "'.",
		})
	}
	if err != nil {
		logger.Error("Ticker lookup failed",
			zap.String("company", company),
			zap.String("request_id", requestid.FromCtx(c)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"InternalError": "Something has gone wrong on our end. Please report",
		})
	}

	return c.JSON(fiber.Map{
		"company": company,
		"ticker":  symbol,
	})
}
