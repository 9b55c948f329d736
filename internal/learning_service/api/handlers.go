package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	learnerapi "smartlearn/internal/learner_service/api"
	"smartlearn/internal/learning"
	"smartlearn/internal/learning_service/service"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

// maxUploadSize caps PDF uploads at 50 MiB.
const maxUploadSize = 50 << 20

// Handler holds the study endpoints.
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a new Handler.
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// learnerKey pulls the authenticated learner out of the request context in
// the string form the stores use.
func learnerKey(c *gin.Context) (string, bool) {
	id, ok := learnerapi.LearnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return "", false
	}
	return strconv.FormatUint(uint64(id), 10), true
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, learning.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, learning.ErrDocumentUnreadable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, learning.ErrQuizAlreadyAttempted),
		errors.Is(err, learning.ErrConcurrentUpdateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, learning.ErrEmbeddingUnavailable),
		errors.Is(err, learning.ErrIndexProvisioningTimeout),
		errors.Is(err, learning.ErrGenerationFailed),
		errors.Is(err, learning.ErrQuizValidationFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// UploadDocument handles the multipart PDF upload.
func (h *Handler) UploadDocument(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}

	doc, err := h.service.UploadDocument(c.Request.Context(), learnerID, title, c.PostForm("description"), fileHeader.Filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// The full page texts are large; echo the document without them.
	doc.Pages = nil
	c.JSON(http.StatusCreated, doc)
}

// ListDocuments returns the learner's documents.
func (h *Handler) ListDocuments(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	docs, err := h.service.ListDocuments(c.Request.Context(), learnerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// GetDocument returns one document in full.
func (h *Handler) GetDocument(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	doc, err := h.service.GetDocument(c.Request.Context(), learnerID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteDocument removes a document and everything derived from it.
func (h *Handler) DeleteDocument(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDocument(c.Request.Context(), learnerID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChatRequest is the body of a chat turn.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question" binding:"required"`
}

// Chat answers a question about the document.
func (h *Handler) Chat(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, sessionID, err := h.service.Ask(c.Request.Context(), learnerID, c.Param("id"), req.SessionID, req.Question)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"answer":    reply.Content,
		"citations": reply.Citations,
	})
}

// GenerateQuizRequest is the body of a quiz generation request.
type GenerateQuizRequest struct {
	QuizType     models.QuizType `json:"quizType" binding:"required"`
	NumQuestions int             `json:"numQuestions"`
}

// GenerateQuiz creates a new quiz over the document.
func (h *Handler) GenerateQuiz(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	var req GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidQuizType(req.QuizType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quizType must be mcq, saq or laq"})
		return
	}

	generated, err := h.service.GenerateQuiz(c.Request.Context(), learnerID, c.Param("id"), req.QuizType, req.NumQuestions)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, generated)
}

// ListQuizzes returns the document's quiz history.
func (h *Handler) ListQuizzes(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	quizzes, err := h.service.ListQuizzes(c.Request.Context(), learnerID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes, "total": len(quizzes)})
}

// LatestQuiz returns the most recently created quiz of the document.
func (h *Handler) LatestQuiz(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	q, err := h.service.LatestQuiz(c.Request.Context(), learnerID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetQuiz returns one quiz with its grading state.
func (h *Handler) GetQuiz(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	q, err := h.service.GetQuiz(c.Request.Context(), learnerID, c.Param("id"), c.Param("quizId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// SubmitQuizRequest is the body of a quiz attempt. Answers line up with the
// quiz questions by position; null marks a skipped question.
type SubmitQuizRequest struct {
	Answers []models.AnswerValue `json:"answers" binding:"required"`
}

// SubmitQuiz grades an attempt.
func (h *Handler) SubmitQuiz(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	var req SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	graded, err := h.service.SubmitQuiz(c.Request.Context(), learnerID, c.Param("id"), c.Param("quizId"), req.Answers)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, graded)
}

// GetDashboard returns the learner's aggregated study state.
func (h *Handler) GetDashboard(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	dashboard, err := h.service.GetDashboard(c.Request.Context(), learnerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// RecommendVideos suggests videos for one page of the document.
func (h *Handler) RecommendVideos(c *gin.Context) {
	learnerID, ok := learnerKey(c)
	if !ok {
		return
	}
	pageNumber, err := strconv.Atoi(c.Param("page"))
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page number"})
		return
	}

	videos, analysis, err := h.service.RecommendVideos(c.Request.Context(), learnerID, c.Param("id"), pageNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos, "analysis": analysis})
}
