package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"glyde/internal/middleware"
	"glyde/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *services.Services
}

func NewAuthHandler(svc *services.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "auth/register.html", gin.H{"Title": "Sign Up"})
}

func (h *AuthHandler) Register(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")
	confirm := c.PostForm("confirm_password")

	form := gin.H{"Title": "Sign Up", "Username": username, "Email": email}

	if password != confirm {
		form["Error"] = "Passwords do not match."
		Render(c, http.StatusBadRequest, "auth/register.html", form)
		return
	}

	if _, err := h.svc.Accounts.Register(c.Request.Context(), username, email, password); err != nil {
		code, message := errorStatus(err)
		form["Error"] = message
		Render(c, code, "auth/register.html", form)
		return
	}

	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Title":   "Login",
		"Success": "Registration successful! Please login.",
	})
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	data := gin.H{"Title": "Login"}
	if wait := h.svc.Throttle.Remaining(c.ClientIP()); wait > 0 {
		data["Warning"] = cooldownMessage(h.svc.Throttle)
	}
	Render(c, http.StatusOK, "auth/login.html", data)
}

func (h *AuthHandler) Login(c *gin.Context) {
	key := c.ClientIP()
	if err := h.svc.Throttle.Allow(key); err != nil {
		Render(c, http.StatusTooManyRequests, "auth/login.html", gin.H{
			"Title":   "Login",
			"Warning": cooldownMessage(h.svc.Throttle),
		})
		return
	}

	email := c.PostForm("email")
	user, err := h.svc.Accounts.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.svc.Throttle.Fail(key)
		}
		code, message := errorStatus(err)
		Render(c, code, "auth/login.html", gin.H{"Title": "Login", "Error": message, "Email": email})
		return
	}
	h.svc.Throttle.Reset(key)

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		RenderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

func cooldownMessage(t *services.LoginThrottle) string {
	return fmt.Sprintf("Please wait for %d seconds before attempting to login again.", int(t.Delay().Seconds()))
}
