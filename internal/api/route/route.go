package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/LeMaitre4523/quelquechose-v6/internal/api/controller"
	"github.com/LeMaitre4523/quelquechose-v6/internal/api/middleware"
	"github.com/LeMaitre4523/quelquechose-v6/internal/app"
)

// SetupRoutes builds the gin engine with the full middleware chain and
// every published endpoint.
func SetupRoutes(appCtx *app.App, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(log))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))
	r.Use(middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	hc := controller.NewHomeworkController(appCtx.Service)
	dc := controller.NewDiscussionController(appCtx.Service)
	vc := controller.NewVieScolaireController(appCtx.Service)
	cc := controller.NewConfigurationController(appCtx.Config)

	r.GET("/homeworks", hc.List)
	r.POST("/homeworks/status", hc.SetDone)

	r.GET("/discussions", dc.List)
	r.POST("/discussions", dc.Create)
	r.POST("/discussions/:localID/reply", dc.Reply)
	r.GET("/discussions/:localID/recipients", dc.Recipients)
	r.GET("/recipients", dc.CreationRecipients)

	r.GET("/viescolaire", vc.Get)

	r.GET("/configuration", cc.GetConfiguration)

	return r
}
