// controllers/service.go
package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbook-backend/services"
)

// CreateServiceInput defines the expected JSON structure for creating a service
type CreateServiceInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	PriceCents      *int64 `json:"priceCents" binding:"required"`
	DurationMinutes int    `json:"durationMinutes"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	PriceCents      *int64  `json:"priceCents"`
	DurationMinutes *int    `json:"durationMinutes"`
}

type ServiceController struct {
	Catalog *services.Catalog
	Logger  *slog.Logger
}

// CreateService adds a service to the catalog
func (sc *ServiceController) CreateService(c *gin.Context) {
	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	service, err := sc.Catalog.CreateService(c.Request.Context(), services.CreateServiceInput{
		Name:            input.Name,
		Description:     input.Description,
		PriceCents:      *input.PriceCents,
		DurationMinutes: input.DurationMinutes,
	})
	if err != nil {
		writeError(c, sc.Logger, err)
		return
	}

	c.JSON(http.StatusCreated, service)
}

// GetServices lists the catalog in the order services were added
func (sc *ServiceController) GetServices(c *gin.Context) {
	list, err := sc.Catalog.ListServices(c.Request.Context())
	if err != nil {
		writeError(c, sc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (sc *ServiceController) GetService(c *gin.Context) {
	id, ok := paramID(c, "service")
	if !ok {
		return
	}
	service, err := sc.Catalog.GetService(c.Request.Context(), id)
	if err != nil {
		writeError(c, sc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, service)
}

// UpdateService changes the fields present in the body
func (sc *ServiceController) UpdateService(c *gin.Context) {
	id, ok := paramID(c, "service")
	if !ok {
		return
	}
	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	service, err := sc.Catalog.UpdateService(c.Request.Context(), id, services.ServicePatch{
		Name:            input.Name,
		Description:     input.Description,
		PriceCents:      input.PriceCents,
		DurationMinutes: input.DurationMinutes,
	})
	if err != nil {
		writeError(c, sc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, service)
}

func (sc *ServiceController) DeleteService(c *gin.Context) {
	id, ok := paramID(c, "service")
	if !ok {
		return
	}
	if err := sc.Catalog.DeleteService(c.Request.Context(), id); err != nil {
		writeError(c, sc.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
