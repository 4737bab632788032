package handlers

import (
	"log"
	"net/http"

	"anonq/services"

	"github.com/gin-gonic/gin"
)

type SubmitQuestionRequest struct {
	Content string `json:"content" binding:"required,notblank,trimmax=1000"`
}

type RegenerateRequest struct {
	Content string `json:"content" binding:"required,notblank,trimmax=1000"`
}

var submitMessages = map[string]string{
	"Content.trimmax": "Question must be less than 1000 characters",
	"Content":         "Question content is required",
}

var regenerateMessages = map[string]string{
	"Content.trimmax": "Content must be less than 1000 characters",
	"Content":         "Content is required",
}

type QuestionHandler struct {
	questionService *services.QuestionService
	grammarService  *services.GrammarService
	notifier        *services.Notifier
	hub             *services.Hub
}

func NewQuestionHandler(
	questionService *services.QuestionService,
	grammarService *services.GrammarService,
	notifier *services.Notifier,
	hub *services.Hub,
) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		grammarService:  grammarService,
		notifier:        notifier,
		hub:             hub,
	}
}

func (h *QuestionHandler) SubmitQuestion(c *gin.Context) {
	var req SubmitQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, submitMessages, "Question content is required")})
		return
	}

	question, err := h.questionService.AddQuestion(c.Request.Context(), req.Content)
	if err != nil {
		internalError(c, "storing question", err)
		return
	}

	h.notifier.Notify(c.Request.Context(), "New Anonymous Question", question.Content)
	if h.hub != nil {
		h.hub.QuestionSubmitted(*question)
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Question submitted successfully"})
}

func (h *QuestionHandler) GetQA(c *gin.Context) {
	qa, err := h.questionService.GetAllQA(c.Request.Context())
	if err != nil {
		internalError(c, "fetching Q&A", err)
		return
	}

	c.JSON(http.StatusOK, qa)
}

func (h *QuestionHandler) Regenerate(c *gin.Context) {
	var req RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, regenerateMessages, "Content is required")})
		return
	}

	result := h.grammarService.Correct(c.Request.Context(), req.Content)
	if result.Error != "" {
		log.Printf("Grammar correction service unavailable: %s", result.Error)
	}

	c.JSON(http.StatusOK, gin.H{"corrected": result.Corrected})
}
