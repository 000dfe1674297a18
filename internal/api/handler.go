// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/common/validation"
	"art-of-prompting/internal/models"
	"art-of-prompting/internal/rolestore"
)

// Composer builds the prompt text from the request fields.
type Composer interface {
	Compose(req models.PromptRequest) (string, error)
}

// Comparer runs a prompt against every configured model.
type Comparer interface {
	Compare(ctx context.Context, prompt string) (*models.Comparison, error)
	Models() []models.ModelInfo
}

// ReportGenerator renders a comparison into a document.
type ReportGenerator interface {
	Generate(ctx context.Context, req models.ReportRequest) (*models.ReportDocument, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ModelLister lists the models installed on the inference server.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Dependencies are the collaborators a Handler needs. Database and Inference
// are optional.
type Dependencies struct {
	Roles     rolestore.Store
	Composer  Composer
	Comparer  Comparer
	Reports   ReportGenerator
	Database  Pinger
	Inference ModelLister
	Formats   []string
	Styles    []string
	Logger    logger.Logger
}

type Handler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewHandler returns a Handler serving deps. A nil Logger logs nothing.
func NewHandler(deps Dependencies) *Handler {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		deps:   deps,
		logger: log.With(map[string]interface{}{"component": "api"}),
	}
}

// RegisterRoutes mounts every endpoint on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	registerStatic(e)

	api := e.Group("/api")
	api.GET("/roles", h.ListRoles)
	api.GET("/context", h.GetContext)
	api.GET("/options", h.GetOptions)
	api.GET("/health", h.InferenceHealth)
	api.POST("/prompt", h.PreviewPrompt)
	api.POST("/generate", h.Generate)
	api.POST("/report", h.Report)

	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// ContextResponse is returned by the context lookup.
type ContextResponse struct {
	Role    string `json:"role"`
	Context string `json:"context"`
}

// ListRoles returns every role title, sorted.
func (h *Handler) ListRoles(c echo.Context) error {
	roles, err := h.deps.Roles.ListRoles(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

// GetContext returns the stored description for ?role=.
func (h *Handler) GetContext(c echo.Context) error {
	role := strings.TrimSpace(c.QueryParam("role"))
	if role == "" {
		return apperrors.NewValidationError("role query parameter is required")
	}

	text, err := h.deps.Roles.GetContext(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ContextResponse{Role: role, Context: text})
}

// GetOptions lists the choices offered by the front end.
func (h *Handler) GetOptions(c echo.Context) error {
	reportFormats := make([]string, 0, len(models.ReportFormats))
	for _, f := range models.ReportFormats {
		reportFormats = append(reportFormats, string(f))
	}
	return c.JSON(http.StatusOK, models.Options{
		Formats:       nonNil(h.deps.Formats),
		Styles:        nonNil(h.deps.Styles),
		ReportFormats: reportFormats,
		Models:        h.deps.Comparer.Models(),
	})
}

// PreviewPrompt composes the prompt without calling any model.
func (h *Handler) PreviewPrompt(c echo.Context) error {
	req, err := h.bindPromptRequest(c)
	if err != nil {
		return err
	}
	text, err := h.deps.Composer.Compose(req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.PromptResponse{Prompt: text})
}

// Generate composes the prompt and compares every configured model. Model
// failures are reported per result; the request itself succeeds.
func (h *Handler) Generate(c echo.Context) error {
	req, err := h.bindPromptRequest(c)
	if err != nil {
		return err
	}
	text, err := h.deps.Composer.Compose(req)
	if err != nil {
		return err
	}
	h.logger.Debug("prompt composed", map[string]interface{}{
		"chars":  len(text),
		"models": len(h.deps.Comparer.Models()),
	})

	cmp, err := h.deps.Comparer.Compare(c.Request().Context(), text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cmp)
}

// Report renders the comparison and sends it as an attachment.
func (h *Handler) Report(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	if err := checkSchema(reportRequestSchema, body); err != nil {
		return err
	}

	var req models.ReportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid report request: %v", err))
	}

	doc, err := h.deps.Reports.Generate(c.Request().Context(), req)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Blob(http.StatusOK, doc.ContentType, doc.Body)
}

// HealthResponse reports inference server reachability.
type HealthResponse struct {
	Status    string        `json:"status"`
	Models    []ModelHealth `json:"models"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// ModelHealth says whether a configured model is installed on the server.
// Installed is omitted when the server could not be asked.
type ModelHealth struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Installed *bool  `json:"installed,omitempty"`
}

// InferenceHealth checks that every configured model is installed.
func (h *Handler) InferenceHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", CheckedAt: time.Now().UTC()}

	configured := h.deps.Comparer.Models()
	var installed map[string]bool
	if h.deps.Inference != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		names, err := h.deps.Inference.ListModels(ctx)
		if err != nil {
			resp.Status = "unavailable"
			resp.Error = err.Error()
		} else {
			installed = make(map[string]bool, len(names))
			for _, n := range names {
				installed[n] = true
			}
		}
	}

	for _, m := range configured {
		mh := ModelHealth{ID: m.ID, Label: m.Label}
		if installed != nil {
			ok := installed[m.ID]
			mh.Installed = &ok
			if !ok {
				resp.Status = "degraded"
			}
		}
		resp.Models = append(resp.Models, mh)
	}
	return c.JSON(http.StatusOK, resp)
}

// Health is the liveness probe.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready reports whether the role store can be queried.
func (h *Handler) Ready(c echo.Context) error {
	if h.deps.Database != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.Database.Ping(ctx); err != nil {
			return apperrors.NewDatabaseConnectionFailedError(err)
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) bindPromptRequest(c echo.Context) (models.PromptRequest, error) {
	var req models.PromptRequest

	body, err := readBody(c)
	if err != nil {
		return req, err
	}
	if err := checkSchema(promptRequestSchema, body); err != nil {
		return req, err
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, apperrors.NewValidationError(fmt.Sprintf("invalid prompt request: %v", err))
	}
	return req, nil
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("read request body: %v", err))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, apperrors.NewValidationError("request body is required")
	}
	return body, nil
}

func checkSchema(schema *validation.Schema, body []byte) error {
	result, err := schema.ValidateBytes(body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return apperrors.NewValidationError(result.Summary()).
			WithMetadata("schema", schema.Name())
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
