package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbook-backend/models"
	"salonbook-backend/services"
)

// DashboardOverview is the admin landing page: the summary cards plus the
// agenda for today and tomorrow.
type DashboardOverview struct {
	Summary  services.Summary     `json:"summary"`
	Today    []models.Appointment `json:"today"`
	Tomorrow []models.Appointment `json:"tomorrow"`
}

type DashboardController struct {
	Scheduler *services.Scheduler
	Reporting *services.Reporting
	Logger    *slog.Logger
}

func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	ctx := c.Request.Context()
	today := dc.Reporting.Today()
	tomorrow := today.AddDays(1)

	summary, err := dc.Reporting.Summary(ctx, services.SummaryQuery{
		AsOf:       today,
		Start:      models.NewDate(today.Year(), today.Month(), 1),
		End:        today,
		WindowDays: services.DefaultActiveWindowDays,
	})
	if err != nil {
		writeError(c, dc.Logger, err)
		return
	}

	overview := DashboardOverview{Summary: summary}
	if overview.Today, err = dc.Scheduler.ListAppointments(ctx, services.AppointmentQuery{From: &today, To: &today}); err != nil {
		writeError(c, dc.Logger, err)
		return
	}
	if overview.Tomorrow, err = dc.Scheduler.ListAppointments(ctx, services.AppointmentQuery{From: &tomorrow, To: &tomorrow}); err != nil {
		writeError(c, dc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
