package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonbook-backend/services"
	"salonbook-backend/utils"
)

// writeError maps service errors onto HTTP statuses. Anything unexpected is
// logged and reported as a generic 500.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		validation *services.ValidationError
		notFound   *services.NotFoundError
		conflict   *services.ConflictError
		slot       *services.SlotConflictError
		transition *services.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		utils.RespondWithErrorBody(c, http.StatusBadRequest, utils.ErrorBody{
			Error: err.Error(), Code: "validation", Field: validation.Field,
		})
	case errors.As(err, &notFound):
		utils.RespondWithErrorBody(c, http.StatusNotFound, utils.ErrorBody{
			Error: err.Error(), Code: "not_found", ID: notFound.ID,
		})
	case errors.As(err, &slot):
		utils.RespondWithErrorBody(c, http.StatusConflict, utils.ErrorBody{
			Error: err.Error(), Code: "slot_conflict",
		})
	case errors.As(err, &transition):
		utils.RespondWithErrorBody(c, http.StatusConflict, utils.ErrorBody{
			Error: err.Error(), Code: "invalid_transition", ID: transition.ID,
		})
	case errors.As(err, &conflict):
		utils.RespondWithErrorBody(c, http.StatusConflict, utils.ErrorBody{
			Error: err.Error(), Code: "conflict", ID: conflict.ID,
		})
	default:
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString("requestId"),
			"err", err,
		)
		utils.RespondWithError(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindError(c *gin.Context, err error) {
	utils.RespondWithErrorBody(c, http.StatusBadRequest, utils.ErrorBody{
		Error: "Invalid input: " + err.Error(), Code: "validation",
	})
}

// paramID parses the :id path parameter, answering 400 itself on failure.
func paramID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithErrorBody(c, http.StatusBadRequest, utils.ErrorBody{
			Error: "Invalid " + entity + " ID format", Code: "validation", Field: "id",
		})
		return uuid.Nil, false
	}
	return id, true
}
