// controllers/report.go
package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salonbook-backend/models"
	"salonbook-backend/services"
)

// ReportController serves the dashboard figures
type ReportController struct {
	Reporting *services.Reporting
	Logger    *slog.Logger
}

// GetSummary returns the dashboard summary.
// Defaults: date = today, start = first of date's month, end = date,
// window = 30 days.
func (rc *ReportController) GetSummary(c *gin.Context) {
	asOf, err := dateOr(c, "date", rc.Reporting.Today())
	if err != nil {
		writeError(c, rc.Logger, err)
		return
	}
	firstOfMonth := models.NewDate(asOf.Year(), asOf.Month(), 1)
	start, err := dateOr(c, "start", firstOfMonth)
	if err != nil {
		writeError(c, rc.Logger, err)
		return
	}
	end, err := dateOr(c, "end", asOf)
	if err != nil {
		writeError(c, rc.Logger, err)
		return
	}
	window := services.DefaultActiveWindowDays
	if raw := c.Query("window"); raw != "" {
		if window, err = strconv.Atoi(raw); err != nil {
			writeError(c, rc.Logger, &services.ValidationError{Field: "window", Message: "must be a whole number of days"})
			return
		}
	}

	summary, err := rc.Reporting.Summary(c.Request.Context(), services.SummaryQuery{
		AsOf:       asOf,
		Start:      start,
		End:        end,
		WindowDays: window,
	})
	if err != nil {
		writeError(c, rc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func dateOr(c *gin.Context, key string, fallback models.Date) (models.Date, error) {
	d, err := optionalDate(c, key)
	if err != nil {
		return models.Date{}, err
	}
	if d == nil {
		return fallback, nil
	}
	return *d, nil
}
