package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
	"github.com/LeMaitre4523/quelquechose-v6/internal/service"
)

// VieScolaireController exposes the vie-scolaire document to the
// presentation layer.
type VieScolaireController struct {
	svc *service.Service
}

func NewVieScolaireController(svc *service.Service) *VieScolaireController {
	return &VieScolaireController{svc: svc}
}

// Get handles GET /viescolaire. force bypasses the daily cache.
func (vc *VieScolaireController) Get(c *gin.Context) {
	force := c.Query("force") == "true"
	logger.WithComponent("viescolaire-controller").Debugf("GET /viescolaire force=%v", force)
	c.JSON(http.StatusOK, vc.svc.LoadVieScolaire(c.Request.Context(), force))
}
