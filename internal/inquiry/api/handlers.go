package api

import (
	"errors"
	"net/http"

	"socratic/internal/inquiry/service"
	"socratic/internal/models"
	"socratic/internal/session"
	"socratic/pkg/logger"

	"github.com/gin-gonic/gin"
)

// API provides the HTTP handlers of the questioning engine.
type API struct {
	service *service.InquiryService
	logger  *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(svc *service.InquiryService, log *logger.Logger) *API {
	return &API{service: svc, logger: log}
}

// TurnHandler processes one questioning turn. The session id comes from the
// path; the reserved id "new" starts a fresh session.
func (a *API) TurnHandler(c *gin.Context) {
	var payload struct {
		UserText string `json:"user_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("invalid turn payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_text is required"})
		return
	}

	sessionID := c.Param("id")
	if sessionID == "new" {
		sessionID = ""
	}

	result, err := a.service.ProcessTurn(c.Request.Context(), models.TurnRequest{
		SessionID: sessionID,
		UserText:  payload.UserText,
	})
	if err != nil {
		if errors.Is(err, service.ErrSuperseded) {
			c.JSON(http.StatusConflict, gin.H{"error": "a newer input for this session replaced this one"})
			return
		}
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("turn processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process turn"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSessionHandler returns the live state of one session.
func (a *API) GetSessionHandler(c *gin.Context) {
	sess, err := a.service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("session lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// CompleteHandler closes a session and returns the hand-off artifact.
func (a *API) CompleteHandler(c *gin.Context) {
	artifact, err := a.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("session completion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete session"})
		return
	}
	c.JSON(http.StatusOK, artifact)
}
