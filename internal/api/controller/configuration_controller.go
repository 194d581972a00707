package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LeMaitre4523/quelquechose-v6/internal/config"
)

// ConfigurationResponse is the sanitized configuration exposed to the
// frontend. The provider token never leaves the process.
type ConfigurationResponse struct {
	ProviderType    string `json:"providerType"`
	RefreshPollSecs int    `json:"refreshPollSecs"`
	RefreshTZ       string `json:"refreshTz"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config *config.Config
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(cfg *config.Config) *ConfigurationController {
	return &ConfigurationController{
		config: cfg,
	}
}

// GetConfiguration returns the application configuration for the frontend.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	response := ConfigurationResponse{
		ProviderType:    cc.config.Provider.Type,
		RefreshPollSecs: int(cc.config.Cache.RefreshPoll.Seconds()),
		RefreshTZ:       cc.config.Cache.RefreshTZ,
	}
	c.JSON(http.StatusOK, response)
}
