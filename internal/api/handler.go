// Package api exposes the HTTP surface: statement upload, listing,
// transactions, analytics, export and health.
package api

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-pipeline/internal/analytics"
	"github.com/insightdelivered/statement-pipeline/internal/bank"
	"github.com/insightdelivered/statement-pipeline/internal/export"
	"github.com/insightdelivered/statement-pipeline/internal/extractor"
	"github.com/insightdelivered/statement-pipeline/internal/models"
	"github.com/insightdelivered/statement-pipeline/internal/normalize"
	"github.com/insightdelivered/statement-pipeline/internal/pipeline"
	"github.com/insightdelivered/statement-pipeline/internal/store"
)

// userHeader identifies the caller. Authentication happens upstream;
// the gateway injects this header on every request it forwards.
const userHeader = "X-User-ID"

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	Ingestor  *pipeline.Ingestor
	Store     store.Store
	Analytics *analytics.Service
	Log       zerolog.Logger
}

// RegisterRoutes mounts every endpoint on the app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	apiGroup := app.Group("/api")

	apiGroup.Get("/health", h.handleHealth)

	apiGroup.Post("/statements", h.handleUpload)
	apiGroup.Get("/statements", h.handleListStatements)
	apiGroup.Get("/statements/:id", h.handleGetStatement)
	apiGroup.Delete("/statements/:id", h.handleDeleteStatement)
	apiGroup.Get("/statements/:id/transactions", h.handleStatementTransactions)
	apiGroup.Get("/statements/:id/export", h.handleExport)

	apiGroup.Get("/transactions", h.handleListTransactions)

	apiGroup.Get("/analytics/categories", h.handleCategorySpend)
	apiGroup.Get("/analytics/banks", h.handleBankSpend)
	apiGroup.Get("/analytics/summary", h.handleSummary)
}

// userID extracts the caller identity; every data endpoint requires it.
func userID(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Get(userHeader))
	if id == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing "+userHeader+" header")
	}
	return id, nil
}

// writeError maps domain errors onto HTTP statuses. Parse and format
// failures are 422: the request was well-formed, the document wasn't.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, pipeline.ErrFileTooLarge):
		status = fiber.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrEmptyFile),
		errors.Is(err, store.ErrValidationFailed),
		errors.Is(err, analytics.ErrInvalidBankFilter):
		status = fiber.StatusBadRequest
	case errors.Is(err, bank.ErrUnrecognizedBankFormat),
		errors.Is(err, bank.ErrMalformedStatement),
		errors.Is(err, bank.ErrNoTransactionsFound),
		errors.Is(err, normalize.ErrMalformedTransaction),
		errors.Is(err, extractor.ErrNoReadableText):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, store.ErrStoreUnavailable):
		status = fiber.StatusServiceUnavailable
	}

	if status >= 500 {
		h.Log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(errorResponse{Success: false, Error: err.Error()})
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	if err := h.Store.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "store": "down"})
	}
	return c.JSON(fiber.Map{"status": "ok", "store": "up"})
}

func (h *Handler) handleUpload(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "no file uploaded, use form field 'file'"))
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "only PDF files are supported"))
	}
	if fileHeader.Size > pipeline.MaxUploadBytes {
		return h.writeError(c, fmt.Errorf("%w: %d bytes", pipeline.ErrFileTooLarge, fileHeader.Size))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.writeError(c, fmt.Errorf("opening upload: %w", err))
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return h.writeError(c, fmt.Errorf("reading upload: %w", err))
	}

	result, err := h.Ingestor.Ingest(c.Context(), uid, fileHeader.Filename, data)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// bankQuery validates the optional ?bank= filter.
func bankQuery(c *fiber.Ctx) (models.BankType, error) {
	raw := c.Query("bank")
	if raw == "" {
		return "", nil
	}
	bankType, err := models.ParseBankType(raw)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return bankType, nil
}

func (h *Handler) handleListStatements(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	bankType, err := bankQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}

	stmts, err := h.Store.Statements(c.Context(), uid, bankType)
	if err != nil {
		return h.writeError(c, err)
	}
	if stmts == nil {
		stmts = []models.Statement{}
	}
	return c.JSON(fiber.Map{"statements": stmts, "count": len(stmts)})
}

func (h *Handler) handleGetStatement(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	stmt, err := h.Store.Statement(c.Context(), uid, c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(stmt)
}

func (h *Handler) handleDeleteStatement(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := h.Store.Delete(c.Context(), uid, c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler) handleStatementTransactions(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	txns, err := h.Store.Transactions(c.Context(), uid, store.TransactionFilter{StatementID: c.Params("id")})
	if err != nil {
		return h.writeError(c, err)
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return c.JSON(fiber.Map{"transactions": txns, "count": len(txns)})
}

func (h *Handler) handleListTransactions(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	bankType, err := bankQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}

	txns, err := h.Store.Transactions(c.Context(), uid, store.TransactionFilter{
		StatementID: c.Query("statementId"),
		BankType:    bankType,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return c.JSON(fiber.Map{"transactions": txns, "count": len(txns)})
}

func (h *Handler) handleExport(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	id := c.Params("id")

	stmt, err := h.Store.Statement(c.Context(), uid, id)
	if err != nil {
		return h.writeError(c, err)
	}
	txns, err := h.Store.Transactions(c.Context(), uid, store.TransactionFilter{StatementID: id})
	if err != nil {
		return h.writeError(c, err)
	}

	format := strings.ToLower(c.Query("format", "csv"))
	switch format {
	case "csv":
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", id+".csv"))
		w := &export.CSVWriter{IncludeMetadata: true}
		if err := w.Write(c.Response().BodyWriter(), stmt, txns); err != nil {
			return h.writeError(c, err)
		}
	case "xlsx":
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", id+".xlsx"))
		w := &export.XLSXWriter{}
		if err := w.Write(c.Response().BodyWriter(), stmt, txns); err != nil {
			return h.writeError(c, err)
		}
	default:
		return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "unknown format, use csv or xlsx"))
	}
	return nil
}

func (h *Handler) handleCategorySpend(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	rows, err := h.Analytics.CategorySpend(c.Context(), uid, c.Query("bank"))
	if err != nil {
		return h.writeError(c, err)
	}
	if rows == nil {
		rows = []store.CategorySpend{}
	}
	return c.JSON(fiber.Map{"categories": rows})
}

func (h *Handler) handleBankSpend(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	rows, err := h.Analytics.BankSpend(c.Context(), uid)
	if err != nil {
		return h.writeError(c, err)
	}
	if rows == nil {
		rows = []store.BankSpend{}
	}
	return c.JSON(fiber.Map{"banks": rows})
}

func (h *Handler) handleSummary(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	sum, err := h.Analytics.Summary(c.Context(), uid, c.Query("bank"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(sum)
}
