package routes

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salonbook-backend/config"
	"salonbook-backend/controllers"
	"salonbook-backend/metrics"
	"salonbook-backend/services"
	"salonbook-backend/utils"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	Catalog     *services.Catalog
	Directory   *services.Directory
	Scheduler   *services.Scheduler
	Reporting   *services.Reporting
	Reminders   *services.ReminderService
	Registry    *prometheus.Registry
	RateLimiter utils.RateLimiter
	FailOpen    bool
	CORSOrigins []string
	ReadyChecks []controllers.ReadyCheck
	Logger      *slog.Logger
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(config.CORSConfig(deps.CORSOrigins)))

	r.Use(config.PerformanceLogger(deps.Logger))
	if deps.Registry != nil {
		r.Use(metrics.HTTPMiddleware(deps.Registry))
	}

	health := &controllers.HealthController{Checks: deps.ReadyChecks}
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	serviceController := &controllers.ServiceController{Catalog: deps.Catalog, Logger: deps.Logger}
	customerController := &controllers.CustomerController{Directory: deps.Directory, Logger: deps.Logger}
	appointmentController := &controllers.AppointmentController{Scheduler: deps.Scheduler, Logger: deps.Logger}
	reportController := &controllers.ReportController{Reporting: deps.Reporting, Logger: deps.Logger}
	dashboardController := &controllers.DashboardController{Scheduler: deps.Scheduler, Reporting: deps.Reporting, Logger: deps.Logger}

	api := r.Group("/api")
	{
		// Service routes
		svc := api.Group("/services")
		{
			svc.POST("", serviceController.CreateService)
			svc.GET("", serviceController.GetServices)
			svc.GET("/:id", serviceController.GetService)
			svc.PUT("/:id", serviceController.UpdateService)
			svc.DELETE("/:id", serviceController.DeleteService)
		}

		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", customerController.CreateCustomer)
			customers.GET("", customerController.GetCustomers)
			customers.GET("/:id", customerController.GetCustomer)
			customers.PUT("/:id", customerController.UpdateCustomer)
			customers.DELETE("/:id", customerController.DeleteCustomer)
		}

		// Appointment routes
		appointments := api.Group("/appointments")
		{
			appointments.POST("", appointmentController.CreateAppointment)
			appointments.GET("", appointmentController.GetAppointments)
			appointments.GET("/:id", appointmentController.GetAppointment)
			appointments.POST("/:id/confirm", appointmentController.ConfirmAppointment)
			appointments.POST("/:id/complete", appointmentController.CompleteAppointment)
			appointments.POST("/:id/cancel", appointmentController.CancelAppointment)
		}

		api.GET("/availability", appointmentController.GetAvailability)

		booking := []gin.HandlerFunc{}
		if deps.RateLimiter != nil {
			booking = append(booking, utils.RateLimit(deps.RateLimiter, deps.Logger, deps.FailOpen))
		}
		booking = append(booking, appointmentController.CreateBooking)
		api.POST("/bookings", booking...)

		// Reports routes
		api.GET("/reports/summary", reportController.GetSummary)
		api.GET("/dashboard", dashboardController.GetDashboardOverview)

		if deps.Reminders != nil {
			reminderController := &controllers.ReminderController{Reminders: deps.Reminders, Scheduler: deps.Scheduler, Logger: deps.Logger}
			appointments.GET("/:id/reminders", reminderController.GetAppointmentReminders)
			api.POST("/reminders/day-ahead", reminderController.SendDayAheadReminders)
		}
	}

	return r
}
