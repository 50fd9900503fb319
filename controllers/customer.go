package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonbook-backend/models"
	"salonbook-backend/services"
)

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	Name                string      `json:"name"`
	Phone               string      `json:"phone"`
	Email               string      `json:"email"`
	PreferredServiceIDs []uuid.UUID `json:"preferredServiceIds"`
	Notes               string      `json:"notes"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer.
// Visit counters are not accepted here.
type UpdateCustomerInput struct {
	Name                *string                `json:"name"`
	Phone               *string                `json:"phone"`
	Email               *string                `json:"email"`
	PreferredServiceIDs *[]uuid.UUID           `json:"preferredServiceIds"`
	Notes               *string                `json:"notes"`
	Status              *models.CustomerStatus `json:"status"`
}

type CustomerController struct {
	Directory *services.Directory
	Logger    *slog.Logger
}

// CreateCustomer registers a new customer
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	customer, err := cc.Directory.CreateCustomer(c.Request.Context(), services.CreateCustomerInput{
		Name:                input.Name,
		Phone:               input.Phone,
		Email:               input.Email,
		PreferredServiceIDs: input.PreferredServiceIDs,
		Notes:               input.Notes,
	})
	if err != nil {
		writeError(c, cc.Logger, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers lists customers, filtered by ?q= when present
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	list, err := cc.Directory.SearchCustomers(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, cc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := paramID(c, "customer")
	if !ok {
		return
	}
	customer, err := cc.Directory.GetCustomer(c.Request.Context(), id)
	if err != nil {
		writeError(c, cc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	id, ok := paramID(c, "customer")
	if !ok {
		return
	}
	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	customer, err := cc.Directory.UpdateCustomer(c.Request.Context(), id, services.CustomerPatch{
		Name:                input.Name,
		Phone:               input.Phone,
		Email:               input.Email,
		PreferredServiceIDs: input.PreferredServiceIDs,
		Notes:               input.Notes,
		Status:              input.Status,
	})
	if err != nil {
		writeError(c, cc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer removes a customer with no open appointments
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	id, ok := paramID(c, "customer")
	if !ok {
		return
	}
	if err := cc.Directory.DeleteCustomer(c.Request.Context(), id); err != nil {
		writeError(c, cc.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
