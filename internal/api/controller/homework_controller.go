package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LeMaitre4523/quelquechose-v6/internal/entity"
	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
	"github.com/LeMaitre4523/quelquechose-v6/internal/service"
)

// HomeworkController exposes the homework operations to the
// presentation layer.
type HomeworkController struct {
	svc *service.Service
}

func NewHomeworkController(svc *service.Service) *HomeworkController {
	return &HomeworkController{svc: svc}
}

// List handles GET /homeworks. The force query parameter bypasses the
// daily cache. The response is always a JSON array; fetch failures
// degrade to the cached or empty collection, never to an error status.
func (hc *HomeworkController) List(c *gin.Context) {
	force := c.Query("force") == "true"
	logger.WithComponent("homework-controller").Debugf("GET /homeworks force=%v", force)

	homeworks := hc.svc.LoadHomeworks(c.Request.Context(), force)
	c.JSON(http.StatusOK, homeworks)
}

type setDoneRequest struct {
	LocalID string `json:"localID" binding:"required"`
	Done    *bool  `json:"done" binding:"required"`
}

// SetDone handles POST /homeworks/status - flips one homework's
// completion state through the optimistic coordinator.
func (hc *HomeworkController) SetDone(c *gin.Context) {
	var req setDoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	logger.WithComponent("homework-controller").Debugf("POST /homeworks/status %s done=%v", req.LocalID, *req.Done)

	// Resolve the cached session tag from the shared collection when
	// the item is known; an unknown item keeps an empty tag, which the
	// coordinator treats as a session mismatch and refetches.
	target := entity.Homework{LocalID: req.LocalID}
	for _, hw := range hc.svc.Holder().Get() {
		if hw.LocalID == req.LocalID {
			target = hw
			break
		}
	}

	success := hc.svc.SetHomeworkDone(c.Request.Context(), target, *req.Done)
	status := http.StatusOK
	if !success {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"success": success})
}
