package utils

import "github.com/gin-gonic/gin"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
	ID    string `json:"id,omitempty"`
}

func RespondWithError(c *gin.Context, status int, message string) {
	RespondWithErrorBody(c, status, ErrorBody{Error: message, Code: codeForStatus(status)})
}

func RespondWithErrorBody(c *gin.Context, status int, body ErrorBody) {
	if body.Code == "" {
		body.Code = codeForStatus(status)
	}
	c.AbortWithStatusJSON(status, body)
}

func codeForStatus(status int) string {
	switch {
	case status == 400:
		return "validation"
	case status == 404:
		return "not_found"
	case status == 409:
		return "conflict"
	case status == 429:
		return "rate_limited"
	case status == 503:
		return "unavailable"
	default:
		return "internal"
	}
}
