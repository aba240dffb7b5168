package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/futig/docgen-gateway/internal/api/middleware"
	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/pkg/logger"
	"github.com/futig/docgen-gateway/internal/pkg/response"
	"github.com/futig/docgen-gateway/internal/pkg/validator"
	pkghttp "github.com/futig/docgen-gateway/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   GenerationUsecase
	validator *validator.Validator
	uploadCfg config.FileUploadConfig
}

func NewHandler(usecase GenerationUsecase, validator *validator.Validator, uploadCfg config.FileUploadConfig) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
		uploadCfg: uploadCfg,
	}
}

// requestContext extracts the user and document type and scopes the logger to them
func requestContext(r *http.Request, action string) (context.Context, string, entity.DocumentType) {
	userID := middleware.UserID(r.Context())
	dt := entity.DocumentType(chi.URLParam(r, "type"))

	ctx := logger.WithDocument(r.Context(), dt, action)
	return ctx, userID, dt
}

func questionID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, fmt.Errorf("%w: question id must be an integer", entity.ErrInvalidParameter)
	}
	return id, nil
}

// GetSession handles GET /generation/{type}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "GetSession")

	session, err := h.usecase.GetSession(ctx, userID, dt)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// LoadQuestions handles POST /generation/{type}/questions/load
func (h *Handler) LoadQuestions(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "LoadQuestions")

	session, err := h.usecase.LoadQuestions(ctx, userID, dt)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// AnswerQuestion handles PUT /generation/{type}/questions/{id}/answer
func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "AnswerQuestion")

	id, err := questionID(r)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	var req entity.UpdateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateAnswer(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	session, err := h.usecase.AnswerQuestion(ctx, userID, dt, id, req.Answer)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// ConfirmAnswer handles POST /generation/{type}/questions/{id}/confirm
func (h *Handler) ConfirmAnswer(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "ConfirmAnswer")

	id, err := questionID(r)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	session, err := h.usecase.ConfirmAnswer(ctx, userID, dt, id)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// MoveCursor handles POST /generation/{type}/cursor
func (h *Handler) MoveCursor(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "MoveCursor")

	var req entity.MoveCursorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateMoveCursor(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	session, err := h.usecase.Navigate(ctx, userID, dt, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// SetView handles POST /generation/{type}/view
func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "SetView")

	var req entity.SetViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.usecase.SetView(ctx, userID, dt, req.View)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// UploadSource handles POST /generation/{type}/upload - multipart "files"
func (h *Handler) UploadSource(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "UploadSource")

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadCfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.uploadCfg.MaxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to parse form", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	ctxzap.Info(ctx, "uploading source files", zap.Int("file_count", len(files)))

	session, err := h.usecase.UploadSource(ctx, userID, dt, files)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// StartGeneration handles POST /generation/{type}/start
func (h *Handler) StartGeneration(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "StartGeneration")

	session, err := h.usecase.StartGeneration(ctx, userID, dt)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, session)
}

// StopGeneration handles POST /generation/{type}/stop
func (h *Handler) StopGeneration(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "StopGeneration")

	session, err := h.usecase.StopGeneration(ctx, userID, dt)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

func resultFormat(r *http.Request) (entity.ResultFormat, error) {
	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(entity.FormatMarkdown)
	}

	format := entity.ResultFormat(formatParam)
	if !format.IsValid() {
		return "", fmt.Errorf("%w: format must be one of: markdown, docx, pdf", entity.ErrInvalidFormat)
	}
	return format, nil
}

// BuildPreview handles POST /generation/{type}/preview?format=
func (h *Handler) BuildPreview(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "BuildPreview")

	format, err := resultFormat(r)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	payload, err := h.usecase.BuildPreview(ctx, userID, dt, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, payload)
}

// DownloadPreview handles GET /generation/{type}/preview/download - the rendered file of the last preview
func (h *Handler) DownloadPreview(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "DownloadPreview")

	session, err := h.usecase.GetSession(ctx, userID, dt)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	if session.PreviewPayload == nil {
		h.respondError(ctx, w, http.StatusNotFound, "no preview built", entity.ErrGenerationNotComplete)
		return
	}

	content, err := base64.StdEncoding.DecodeString(session.PreviewPayload.Base64Content)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "corrupt preview", err)
		return
	}

	response.File(w, session.PreviewPayload.ContentType, session.PreviewPayload.FileName, content)
}

// ResetDocument handles POST /generation/{type}/reset
func (h *Handler) ResetDocument(w http.ResponseWriter, r *http.Request) {
	ctx, userID, dt := requestContext(r, "ResetDocument")

	session, err := h.usecase.ResetDocument(ctx, userID, dt)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
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
	case errors.Is(err, entity.ErrUnknownDocumentType) || errors.Is(err, entity.ErrQuestionNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrInvalidFormat) ||
		errors.Is(err, entity.ErrMissingField) || errors.Is(err, entity.ErrEmptyAnswer) || errors.Is(err, entity.ErrInvalidView):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrGenerationInProgress) || errors.Is(err, entity.ErrGenerationNotStarted) ||
		errors.Is(err, entity.ErrGenerationNotComplete) || errors.Is(err, entity.ErrUploadNotRequired):
		h.respondError(ctx, w, http.StatusConflict, "invalid session state", err)
	case errors.Is(err, entity.ErrInvalidExtension) || errors.Is(err, entity.ErrFileTooLarge) ||
		errors.Is(err, entity.ErrTooManyFiles) || errors.Is(err, entity.ErrTotalSizeTooLarge) || errors.Is(err, entity.ErrInvalidFile):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	case pkghttp.IsUpstream(err):
		h.respondError(ctx, w, http.StatusBadGateway, "upstream request failed", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
