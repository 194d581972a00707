package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
	"github.com/LeMaitre4523/quelquechose-v6/internal/service"
)

// DiscussionController exposes the discussion operations to the
// presentation layer.
type DiscussionController struct {
	svc *service.Service
}

func NewDiscussionController(svc *service.Service) *DiscussionController {
	return &DiscussionController{svc: svc}
}

// List handles GET /discussions - returns all normalized threads.
func (dc *DiscussionController) List(c *gin.Context) {
	logger.WithComponent("discussion-controller").Debug("GET /discussions")
	c.JSON(http.StatusOK, dc.svc.LoadDiscussions(c.Request.Context()))
}

type replyRequest struct {
	Content string `json:"content" binding:"required"`
}

// Reply handles POST /discussions/:localID/reply. A nil result from the
// core (unknown thread or provider failure) maps to 404; the two cases
// are indistinguishable at this boundary.
func (dc *DiscussionController) Reply(c *gin.Context) {
	localID := c.Param("localID")
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	logger.WithComponent("discussion-controller").Debugf("POST /discussions/%s/reply", localID)

	messages := dc.svc.ReplyToDiscussion(c.Request.Context(), localID, req.Content)
	if messages == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "discussion not found or unreachable"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Recipients handles GET /discussions/:localID/recipients - returns the
// display names of everyone in the thread.
func (dc *DiscussionController) Recipients(c *gin.Context) {
	localID := c.Param("localID")
	logger.WithComponent("discussion-controller").Debugf("GET /discussions/%s/recipients", localID)
	c.JSON(http.StatusOK, dc.svc.DiscussionRecipients(c.Request.Context(), localID))
}

// CreationRecipients handles GET /recipients - lists everyone a new
// discussion may be addressed to under the session's authorizations.
func (dc *DiscussionController) CreationRecipients(c *gin.Context) {
	logger.WithComponent("discussion-controller").Debug("GET /recipients")
	c.JSON(http.StatusOK, dc.svc.CreationRecipients(c.Request.Context()))
}

type createDiscussionRequest struct {
	Subject    string             `json:"subject" binding:"required"`
	Content    string             `json:"content" binding:"required"`
	Recipients []entity.Recipient `json:"recipients" binding:"required,min=1"`
}

// Create handles POST /discussions - opens a new thread.
func (dc *DiscussionController) Create(c *gin.Context) {
	var req createDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	logger.WithComponent("discussion-controller").Debugf("POST /discussions %q", req.Subject)

	success := dc.svc.CreateDiscussion(c.Request.Context(), req.Subject, req.Content, req.Recipients)
	status := http.StatusOK
	if !success {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"success": success})
}
