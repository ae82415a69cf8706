package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/middleware/requestid"
	"github.com/AIS170/SENG3011-OMEGA/internal/middleware/validation"
	"github.com/AIS170/SENG3011-OMEGA/internal/retrieval"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

type RetrievalHandler struct {
	service *retrieval.Service
}

func NewRetrievalHandler(service *retrieval.Service) *RetrievalHandler {
	return &RetrievalHandler{service: service}
}

func (h *RetrievalHandler) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}

	if err := c.BodyParser(&req); err != nil {
		return validation.BadRequest(c, "Invalid request body")
	}

	username, ok := validation.Username(req.Username)
	if !ok {
		return validation.BadRequest(c, "Username is required.")
	}

	err := h.service.Register(c.Context(), username)
	if errors.Is(err, retrieval.ErrUserAlreadyExists) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"UserTakenError": "Username taken",
		})
	}
	if err != nil {
		return h.internalError(c, "register", err)
	}

	return c.JSON(fiber.Map{
		"Success": "User " + username + " registered successfully",
	})
}

// RetrieveV1 is the legacy finance-only route; it shares the v2
// filename convention so both routes hit the same cache entries.
func (h *RetrievalHandler) RetrieveV1(c *fiber.Ctx) error {
	return h.retrieve(c, string(dataset.KindFinance), c.Params("stockname"))
}

func (h *RetrievalHandler) RetrieveV2(c *fiber.Ctx) error {
	return h.retrieve(c, c.Params("kind"), c.Params("stockname"))
}

func (h *RetrievalHandler) retrieve(c *fiber.Ctx, rawKind, rawName string) error {
	username, ok := validation.Username(c.Params("username"))
	if !ok {
		return validation.BadRequest(c, "Invalid username")
	}
	name, ok := validation.DatasetName(rawName)
	if !ok {
		return validation.BadRequest(c, "Invalid dataset name")
	}
	date, ok := validation.Date(c.Query("date"))
	if !ok {
		return validation.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
	}

	kind, err := dataset.ParseKind(rawKind)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"InvalidDataKey": err.Error(),
		})
	}

	envelope, err := h.service.Retrieve(c.Context(), username, kind, name, date)
	switch {
	case err == nil:
		return c.JSON(envelope)
	case errors.Is(err, retrieval.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"UserNotFound": "Username not found; ensure you have registered",
		})
	case errors.Is(err, retrieval.ErrDatasetNotFoundUpstream):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"StockNotFound": "It appears that you do not have access to stock " + name + ". " +
				"Ensure you have collected the stock before attempting retrieval",
		})
	case errors.Is(err, dataset.ErrInvalidKind):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"InvalidDataKey": err.Error(),
		})
	case errors.Is(err, dataset.ErrMalformedRow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"MalformedData": err.Error(),
		})
	default:
		return h.internalError(c, "retrieve", err)
	}
}

func (h *RetrievalHandler) Delete(c *fiber.Ctx) error {
	username, ok := validation.Username(c.Params("username"))
	if !ok {
		return validation.BadRequest(c, "Invalid username")
	}
	filename, ok := validation.DatasetName(c.Params("filename"))
	if !ok {
		return validation.BadRequest(c, "Invalid filename")
	}

	err := h.service.Delete(c.Context(), username, filename)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"Success": "Deleted " + filename,
		})
	case errors.Is(err, retrieval.ErrDatasetNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"FileNotFound": "No File for stock " + filename + " exists for deletion",
		})
	case errors.Is(err, retrieval.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"UserNotFound": "No user with username " + username + " exists, ensure you have registered",
		})
	default:
		return h.internalError(c, "delete", err)
	}
}

func (h *RetrievalHandler) List(c *fiber.Ctx) error {
	username, ok := validation.Username(c.Params("username"))
	if !ok {
		return validation.BadRequest(c, "Invalid username")
	}

	filenames, err := h.service.List(c.Context(), username)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"Success": filenames,
		})
	case errors.Is(err, retrieval.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"UserNotFound": "User does not appear to exist, ensure you have registered",
		})
	default:
		return h.internalError(c, "list", err)
	}
}

func (h *RetrievalHandler) internalError(c *fiber.Ctx, op string, err error) error {
	logger.Error("Request failed",
		zap.String("op", op),
		zap.String("request_id", requestid.FromCtx(c)),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"InternalError": "Something has gone wrong on our end. Please report",
	})
}
