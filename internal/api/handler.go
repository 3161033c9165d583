// Package api exposes the extraction engine over HTTP with Fiber.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/insightdelivered/statement-extractor/internal/classify"
	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/statement"
	"github.com/insightdelivered/statement-extractor/internal/writer"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

// Error codes returned in ExtractResponse.Code.
const (
	CodeMissingFile       = "missing_file"
	CodeNotPDF            = "not_pdf"
	CodeInvalidPages      = "invalid_pages"
	CodePasswordProtected = "password_protected"
	CodeUnreadable        = "unreadable"
	CodeInternal          = "internal"
)

// ExtractResponse is the JSON response from the /api/extract endpoint.
type ExtractResponse struct {
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Code       string                 `json:"code,omitempty"`
	Statement  *models.StatementInfo  `json:"statement,omitempty"`
	Totals     *models.Totals         `json:"totals,omitempty"`
	Categories []models.LabeledRecord `json:"categories,omitempty"`
	CSV        string                 `json:"csv,omitempty"`
	Count      int                    `json:"count"`
	Version    string                 `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	engine  *statement.Engine
	runner  *classify.Runner
	metrics *Metrics
	// read turns upload bytes into a document.
	read func([]byte) (models.Document, error)
}

// NewHandler wires the engine, an optional classification runner and the
// metrics registry.
func NewHandler(engine *statement.Engine, runner *classify.Runner, metrics *Metrics) *Handler {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{engine: engine, runner: runner, metrics: metrics, read: extractor.ReadDocumentBytes}
}

// NewApp builds a Fiber app with the routes registered.
func NewApp(h *Handler, bodyLimitMB int) *fiber.App {
	if bodyLimitMB <= 0 {
		bodyLimitMB = 32
	}
	app := fiber.New(fiber.Config{
		AppName:               "statement-extractor",
		BodyLimit:             bodyLimitMB << 20,
		DisableStartupMessage: true,
	})
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/extract", h.HandleExtract)
	app.Get("/metrics", adaptor.HTTPHandler(h.metrics.Handler()))
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleExtract runs the engine on an uploaded PDF.
func (h *Handler) HandleExtract(c *fiber.Ctx) (err error) {
	// Recover from any panics to prevent server crash
	defer func() {
		if rec := recover(); rec != nil {
			h.metrics.Failed(CodeInternal)
			err = writeError(c, fiber.StatusInternalServerError, CodeInternal, fmt.Sprintf("internal server error: %v", rec))
		}
	}()

	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, CodeMissingFile, "No file uploaded. Use form field 'file'.")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, CodeNotPDF, "Only PDF files are supported.")
	}

	pages, err := statement.ParsePageRange(c.FormValue("pages"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, CodeInvalidPages, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, CodeMissingFile, "Failed to read uploaded file.")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, CodeMissingFile, "Failed to read uploaded file.")
	}

	log := logging.Logger().With(slog.String("file", fh.Filename))
	doc, err := h.read(data)
	if err != nil {
		code := CodeUnreadable
		if errors.Is(err, extractor.ErrPasswordProtected) {
			code = CodePasswordProtected
		}
		log.Info("document rejected", slog.String("code", code), slog.Any("error", err))
		h.metrics.Failed(code)
		return writeError(c, fiber.StatusUnprocessableEntity, code, err.Error())
	}

	info, err := h.engine.Extract(doc, statement.Options{
		Pages:      pages,
		Bank:       c.FormValue("bank"),
		DocumentID: fh.Filename,
	})
	if err != nil {
		h.metrics.Failed(CodeInvalidPages)
		return writeError(c, fiber.StatusBadRequest, CodeInvalidPages, err.Error())
	}

	var labels []models.LabeledRecord
	if h.runner != nil {
		res := h.runner.Run(c.UserContext(), info.Bank, info.Transactions)
		labels = res.Records
		for _, a := range res.Alerts {
			info.Diagnostics.Alert(a)
		}
	}
	h.metrics.Observe(info)

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: c.FormValue("header") != "false"}
	if err := csvWriter.Write(&csvBuf, info, labels); err != nil {
		return writeError(c, fiber.StatusInternalServerError, CodeInternal, fmt.Sprintf("CSV generation failed: %v", err))
	}

	totals := info.Totals()
	return c.JSON(ExtractResponse{
		Success:    true,
		Statement:  info,
		Totals:     &totals,
		Categories: labels,
		CSV:        csvBuf.String(),
		Count:      len(info.Transactions),
		Version:    Version,
	})
}

func writeError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(ExtractResponse{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}
