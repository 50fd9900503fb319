package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonbook-backend/models"
	"salonbook-backend/services"
)

type CreateAppointmentInput struct {
	CustomerID uuid.UUID   `json:"customerId" binding:"required"`
	ServiceID  uuid.UUID   `json:"serviceId" binding:"required"`
	Date       models.Date `json:"date"`
	TimeSlot   string      `json:"timeSlot"`
}

type CancelAppointmentInput struct {
	Reason string `json:"reason"`
}

// GuestBookingInput is the public booking form.
type GuestBookingInput struct {
	Name      string      `json:"name"`
	Phone     string      `json:"phone"`
	Email     string      `json:"email"`
	Notes     string      `json:"notes"`
	ServiceID uuid.UUID   `json:"serviceId" binding:"required"`
	Date      models.Date `json:"date"`
	TimeSlot  string      `json:"timeSlot"`
}

type AppointmentController struct {
	Scheduler *services.Scheduler
	Logger    *slog.Logger
}

// CreateAppointment books a slot for a known customer
func (ac *AppointmentController) CreateAppointment(c *gin.Context) {
	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	appt, err := ac.Scheduler.CreateAppointment(c.Request.Context(), services.CreateAppointmentInput{
		CustomerID: input.CustomerID,
		ServiceID:  input.ServiceID,
		Date:       input.Date,
		TimeSlot:   input.TimeSlot,
	})
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// GetAppointments supports ?date= as a shortcut for from=to=date
func (ac *AppointmentController) GetAppointments(c *gin.Context) {
	var q services.AppointmentQuery
	var err error
	if q.From, err = optionalDate(c, "from"); err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	if q.To, err = optionalDate(c, "to"); err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	day, err := optionalDate(c, "date")
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	if day != nil {
		q.From, q.To = day, day
	}
	q.Status = models.AppointmentStatus(c.Query("status"))
	if raw := c.Query("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(c, ac.Logger, &services.ValidationError{Field: "customerId", Message: "invalid id format"})
			return
		}
		q.CustomerID = id
	}

	list, err := ac.Scheduler.ListAppointments(c.Request.Context(), q)
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ac *AppointmentController) GetAppointment(c *gin.Context) {
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	appt, err := ac.Scheduler.GetAppointment(c.Request.Context(), id)
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) ConfirmAppointment(c *gin.Context) {
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	appt, err := ac.Scheduler.ConfirmAppointment(c.Request.Context(), id)
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) CompleteAppointment(c *gin.Context) {
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	appt, err := ac.Scheduler.CompleteAppointment(c.Request.Context(), id)
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// CancelAppointment accepts an optional {"reason": "..."} body
func (ac *AppointmentController) CancelAppointment(c *gin.Context) {
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	var input CancelAppointmentInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
	}
	appt, err := ac.Scheduler.CancelAppointment(c.Request.Context(), id, input.Reason)
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// GetAvailability lists free slots for ?date=
func (ac *AppointmentController) GetAvailability(c *gin.Context) {
	date, err := optionalDate(c, "date")
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	if date == nil {
		writeError(c, ac.Logger, &services.ValidationError{Field: "date", Message: "is required"})
		return
	}
	slots, err := ac.Scheduler.AvailableSlots(c.Request.Context(), *date)
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

// CreateBooking handles the public booking form
func (ac *AppointmentController) CreateBooking(c *gin.Context) {
	var input GuestBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	appt, err := ac.Scheduler.BookAsGuest(c.Request.Context(), services.GuestBookingInput{
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Notes:     input.Notes,
		ServiceID: input.ServiceID,
		Date:      input.Date,
		TimeSlot:  input.TimeSlot,
	})
	if err != nil {
		writeError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func optionalDate(c *gin.Context, key string) (*models.Date, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, &services.ValidationError{Field: key, Message: "must be YYYY-MM-DD"}
	}
	return &d, nil
}
