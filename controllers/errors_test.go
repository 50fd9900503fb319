package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"salonbook-backend/services"
	"salonbook-backend/utils"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Field: "date", Message: "is required"}, http.StatusBadRequest, "validation"},
		{"not found", &services.NotFoundError{Entity: "service", ID: "x"}, http.StatusNotFound, "not_found"},
		{"slot", fmt.Errorf("create: %w", &services.SlotConflictError{Date: "2026-03-05", TimeSlot: "10:00 AM"}), http.StatusConflict, "slot_conflict"},
		{"transition", &services.InvalidTransitionError{ID: "a", From: "completed", Action: "cancel"}, http.StatusConflict, "invalid_transition"},
		{"conflict", &services.ConflictError{Entity: "customer", ID: "c", Reason: "busy"}, http.StatusConflict, "conflict"},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, logger, tc.err)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			var body utils.ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, body.Code)
			}
			if tc.status == http.StatusInternalServerError && body.Error != "internal server error" {
				t.Fatalf("internal details must not leak, got %q", body.Error)
			}
		})
	}
}
