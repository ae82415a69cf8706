package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/ingest"
	"github.com/AIS170/SENG3011-OMEGA/internal/middleware/requestid"
	"github.com/AIS170/SENG3011-OMEGA/internal/middleware/validation"
	"github.com/AIS170/SENG3011-OMEGA/pkg/logger"
)

// IngestHandler exposes the collection side: raw CSV blobs in and out
// of cold storage, under the key convention the retrieval side joins
// on.
type IngestHandler struct {
	service *ingest.Service
}

func NewIngestHandler(service *ingest.Service) *IngestHandler {
	return &IngestHandler{service: service}
}

type collectParams struct {
	username string
	kind     dataset.Kind
	name     string
	date     string
}

// params validates the collect route parameters. When ok is false the
// 400 response has already been written and the handler must return
// err without touching the service; fiber's response writers return
// nil on success, so the write result alone cannot signal rejection.
func (h *IngestHandler) params(c *fiber.Ctx) (collectParams, bool, error) {
	username, ok := validation.Username(c.Params("username"))
	if !ok {
		return collectParams{}, false, validation.BadRequest(c, "Invalid username")
	}
	name, ok := validation.DatasetName(c.Params("stockname"))
	if !ok {
		return collectParams{}, false, validation.BadRequest(c, "Invalid dataset name")
	}
	date, ok := validation.Date(c.Query("date"))
	if !ok {
		return collectParams{}, false, validation.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
	}

	kind, err := dataset.ParseKind(c.Params("kind"))
	if err != nil {
		return collectParams{}, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"InvalidDataKey": err.Error(),
		})
	}
	return collectParams{username: username, kind: kind, name: name, date: date}, true, nil
}

func (h *IngestHandler) Upload(c *fiber.Ctx) error {
	p, ok, err := h.params(c)
	if !ok {
		return err
	}

	body := c.Body()
	if len(body) == 0 {
		return validation.BadRequest(c, "Request body must contain CSV content")
	}

	key, storeErr := h.service.StoreRaw(c.Context(), p.username, p.kind, p.name, p.date, body)
	if storeErr != nil {
		return h.internalError(c, "upload", storeErr)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"Success": "Raw dataset stored",
		"key":     key,
	})
}

func (h *IngestHandler) Delete(c *fiber.Ctx) error {
	p, ok, err := h.params(c)
	if !ok {
		return err
	}

	if delErr := h.service.DeleteRaw(c.Context(), p.username, p.kind, p.name, p.date); delErr != nil {
		return h.internalError(c, "delete raw", delErr)
	}

	return c.JSON(fiber.Map{
		"Success": "Raw dataset deleted",
	})
}

func (h *IngestHandler) List(c *fiber.Ctx) error {
	username, ok := validation.Username(c.Params("username"))
	if !ok {
		return validation.BadRequest(c, "Invalid username")
	}
	kind, err := dataset.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"InvalidDataKey": err.Error(),
		})
	}

	keys, listErr := h.service.ListRaw(c.Context(), username, kind)
	if listErr != nil {
		return h.internalError(c, "list raw", listErr)
	}

	return c.JSON(fiber.Map{
		"Success": keys,
	})
}

func (h *IngestHandler) internalError(c *fiber.Ctx, op string, err error) error {
	logger.Error("Ingest request failed",
		zap.String("op", op),
		zap.String("request_id", requestid.FromCtx(c)),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"InternalError": "Something has gone wrong on our end. Please report",
	})
}
