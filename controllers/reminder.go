package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbook-backend/services"
)

type ReminderController struct {
	Reminders *services.ReminderService
	Scheduler *services.Scheduler
	Logger    *slog.Logger
}

// GetAppointmentReminders lists the notifications sent for one appointment
func (rc *ReminderController) GetAppointmentReminders(c *gin.Context) {
	id, ok := paramID(c, "appointment")
	if !ok {
		return
	}
	if _, err := rc.Scheduler.GetAppointment(c.Request.Context(), id); err != nil {
		writeError(c, rc.Logger, err)
		return
	}
	logs, err := rc.Reminders.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, rc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// SendDayAheadReminders runs the daily reminder job now
func (rc *ReminderController) SendDayAheadReminders(c *gin.Context) {
	sent, err := rc.Reminders.SendDayAheadReminders(c.Request.Context())
	if err != nil {
		writeError(c, rc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
