package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/futig/docgen-gateway/internal/api/middleware"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/onboarding"
	"github.com/futig/docgen-gateway/internal/pkg/logger"
	"github.com/futig/docgen-gateway/internal/pkg/response"
	"github.com/futig/docgen-gateway/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   WorkspaceUsecase
	validator *validator.Validator
}

func NewHandler(usecase WorkspaceUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// GetWorkspace handles GET /workspace
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetWorkspace")

	dto, err := h.usecase.GetWorkspace(ctx, middleware.UserID(ctx))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, dto)
}

// Login handles POST /workspace/login - the body is optional
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Login")

	var req entity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateLogin(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	dto, err := h.usecase.Login(ctx, middleware.UserID(ctx), &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, dto)
}

// Logout handles POST /workspace/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Logout")

	if err := h.usecase.Logout(ctx, middleware.UserID(ctx)); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.NoContent(w)
}

// SwitchProject handles PUT /workspace/project
func (h *Handler) SwitchProject(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SwitchProject")

	var req entity.SwitchProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSwitchProject(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	dto, err := h.usecase.SwitchProject(ctx, middleware.UserID(ctx), &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, dto)
}

// CurrentTour handles GET /workspace/onboarding
func (h *Handler) CurrentTour(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CurrentTour")

	progress, err := h.usecase.CurrentTour(ctx, middleware.UserID(ctx))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, progress)
}

// StartTour handles POST /workspace/onboarding/{page}/start
func (h *Handler) StartTour(w http.ResponseWriter, r *http.Request) {
	page := onboarding.Page(chi.URLParam(r, "page"))
	ctx := logger.AddFields(r.Context(),
		zap.String("page", string(page)),
		zap.String("action", "StartTour"),
	)

	progress, err := h.usecase.StartTour(ctx, middleware.UserID(ctx), page)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, progress)
}

// NextTourStep handles POST /workspace/onboarding/next
func (h *Handler) NextTourStep(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "NextTourStep")

	progress, err := h.usecase.NextTourStep(ctx, middleware.UserID(ctx))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, progress)
}

// SkipTour handles POST /workspace/onboarding/skip
func (h *Handler) SkipTour(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SkipTour")

	progress, err := h.usecase.SkipTour(ctx, middleware.UserID(ctx))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, progress)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Error(w, status, http.StatusText(status), message+": "+err.Error())
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrUnknownTourPage) || errors.Is(err, entity.ErrProfileNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrTourNotStarted):
		h.respondError(ctx, w, http.StatusConflict, "onboarding tour not started", err)
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
