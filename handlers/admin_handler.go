package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"anonq/middleware"
	"anonq/models"
	"anonq/services"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type AnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Content    string `json:"content" binding:"required,notblank,trimmax=2000"`
}

var answerMessages = map[string]string{
	"QuestionID":       "Question ID and content are required",
	"Content.required": "Question ID and content are required",
	"Content.notblank": "Answer content cannot be empty",
	"Content.trimmax":  "Answer must be less than 2000 characters",
}

// CookieOptions controls the admin session cookie.
type CookieOptions struct {
	Path   string
	Secure bool
}

type AdminHandler struct {
	questionService *services.QuestionService
	sessionService  *services.SessionService
	passwords       *services.PasswordVerifier
	hub             *services.Hub
	cookie          CookieOptions
}

func NewAdminHandler(
	questionService *services.QuestionService,
	sessionService *services.SessionService,
	passwords *services.PasswordVerifier,
	hub *services.Hub,
	cookie CookieOptions,
) *AdminHandler {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &AdminHandler{
		questionService: questionService,
		sessionService:  sessionService,
		passwords:       passwords,
		hub:             hub,
		cookie:          cookie,
	}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}

	ok, err := h.passwords.Verify(req.Password)
	if err != nil {
		internalError(c, "verifying admin password", err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := h.sessionService.Create(c.Request.Context())
	if err != nil {
		internalError(c, "creating session", err)
		return
	}

	h.setSessionCookie(c, token, int(services.SessionDuration.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
	})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	if token := services.SessionToken(c.Request); token != "" {
		if err := h.sessionService.Invalidate(c.Request.Context(), token); err != nil {
			log.Printf("Failed to invalidate session: %v", err)
		}
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AdminHandler) ListQuestions(c *gin.Context) {
	ctx := c.Request.Context()

	questions, err := h.questionService.GetAllQuestions(ctx)
	if err != nil {
		internalError(c, "fetching questions", err)
		return
	}

	answered, err := h.questionService.GetAllQA(ctx)
	if err != nil {
		internalError(c, "fetching Q&A", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions, "answered": answered})
}

func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question ID required"})
		return
	}

	err := h.questionService.DeleteQuestion(c.Request.Context(), id)
	if errors.Is(err, services.ErrInvalidID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
		return
	}
	if err != nil {
		internalError(c, "deleting question", err)
		return
	}

	if h.hub != nil {
		h.hub.QuestionDeleted(id)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, answerMessages, "Question ID and content are required")})
		return
	}

	ctx := c.Request.Context()
	answer, err := h.questionService.AddAnswer(ctx, req.QuestionID, req.Content)
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	case errors.Is(err, services.ErrAlreadyAnswered):
		c.JSON(http.StatusConflict, gin.H{"error": "Question has already been answered"})
		return
	case err != nil:
		internalError(c, "posting answer", err)
		return
	}

	if p := middleware.Principal(c); p != nil {
		log.Printf("Question %s answered by %s admin %s", req.QuestionID, p.Method, p.Email)
	}

	if h.hub != nil {
		if question, err := h.questionService.GetQuestionByID(ctx, req.QuestionID); err == nil {
			h.hub.QuestionAnswered(models.QA{Question: *question, Answer: *answer})
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Answer posted successfully", "answer": answer})
}

func (h *AdminHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(services.SessionCookieName, token, maxAge, h.cookie.Path, "", h.cookie.Secure, true)
}
