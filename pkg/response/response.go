package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
	Meta  interface{}      `json:"meta,omitempty"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data})
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
