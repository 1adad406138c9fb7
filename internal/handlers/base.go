package handlers

import (
	"errors"
	"log"
	"net/http"

	"glyde/internal/middleware"
	"glyde/internal/services"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, err error) {
	code, message := errorStatus(err)
	Render(c, code, "error.html", gin.H{"Error": message})
}

// errorStatus maps service errors to an HTTP status and a message safe to show.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrDuplicateIdentity):
		return http.StatusConflict, "Username or email already exists."
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "Post not found."
	case errors.Is(err, services.ErrThrottled):
		return http.StatusTooManyRequests, "Please wait before attempting to login again."
	case errors.Is(err, services.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, "Only mp4, avi and mov videos can be uploaded."
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	default:
		log.Printf("internal error: %v", err)
		return http.StatusInternalServerError, "Something went wrong."
	}
}
