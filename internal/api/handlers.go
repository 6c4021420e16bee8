package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/quizhive/mimir/internal/config"
	"github.com/quizhive/mimir/internal/dedup"
	"github.com/quizhive/mimir/internal/models"
	"github.com/quizhive/mimir/internal/quiz"
)

// Handler holds dependencies for handlers
type Handler struct {
	cfg *config.Config
	svc *quiz.Service
}

// NewHandler creates a new handler
func NewHandler(cfg *config.Config, svc *quiz.Service) *Handler {
	return &Handler{
		cfg: cfg,
		svc: svc,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) CreateQuestion(c *gin.Context) {
	var input models.QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	userID := c.GetString("user_id")
	question, err := h.svc.CreateQuestion(c.Request.Context(), userID, &input)
	if err != nil {
		var dup *quiz.DuplicateQuestionError
		if errors.As(err, &dup) {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:      "Question duplicates an existing question",
				Code:       "DUPLICATE_QUESTION",
				ExistingID: dup.ExistingID,
			})
			return
		}
		log.Error().Err(err).Str("userId", userID).Msg("Failed to create question")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to create question",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusCreated, question)
}

func (h *Handler) UpdateQuestion(c *gin.Context) {
	var input models.QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	userID := c.GetString("user_id")
	id := c.Param("id")

	question, err := h.svc.UpdateQuestion(c.Request.Context(), userID, id, &input)
	if err != nil {
		var dup *quiz.DuplicateQuestionError
		switch {
		case errors.As(err, &dup):
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:      "Question duplicates an existing question",
				Code:       "DUPLICATE_QUESTION",
				ExistingID: dup.ExistingID,
			})
		case errors.Is(err, quiz.ErrQuestionNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: "Question not found",
				Code:  "NOT_FOUND",
			})
		default:
			log.Error().Err(err).Str("userId", userID).Str("questionId", id).Msg("Failed to update question")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: "Failed to update question",
				Code:  "INTERNAL_ERROR",
			})
		}
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *Handler) DeleteQuestion(c *gin.Context) {
	userID := c.GetString("user_id")
	id := c.Param("id")

	if err := h.svc.DeleteQuestion(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, quiz.ErrQuestionNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: "Question not found",
				Code:  "NOT_FOUND",
			})
			return
		}
		log.Error().Err(err).Str("userId", userID).Str("questionId", id).Msg("Failed to delete question")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to delete question",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ImportQuestions(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if len(req.Items) > h.cfg.ImportMaxItems {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Import batch exceeds the configured item limit",
			Code:  "IMPORT_TOO_LARGE",
		})
		return
	}

	userID := c.GetString("user_id")
	report, err := h.svc.ImportQuestions(c.Request.Context(), userID, req.Items)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("Import failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Import failed",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetImportStatus(c *gin.Context) {
	jobID := c.Param("id")

	step, err := h.svc.ImportStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, dedup.ErrStatusNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: "Unknown import job",
				Code:  "NOT_FOUND",
			})
			return
		}
		log.Error().Err(err).Str("jobId", jobID).Msg("Failed to read import status")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to read import status",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId": jobID,
		"step":  step,
	})
}

func (h *Handler) UploadCollection(c *gin.Context) {
	var req models.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	userID := c.GetString("user_id")
	result, err := h.svc.UploadCollection(c.Request.Context(), userID, req.Payload)
	if err != nil {
		var dup *quiz.DuplicateUploadError
		switch {
		case errors.As(err, &dup):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:      "Payload was already uploaded by this user",
				Code:       "DUPLICATE_UPLOAD",
				ExistingID: dup.ExistingUploadID,
			})
		case errors.Is(err, quiz.ErrInvalidPayload):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "Payload is not a valid question collection",
				Code:  "INVALID_PAYLOAD",
			})
		default:
			log.Error().Err(err).Str("userId", userID).Msg("Upload failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: "Upload failed",
				Code:  "INTERNAL_ERROR",
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
