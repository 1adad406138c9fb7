package main

import (
	"log"

	"glyde/internal/config"
	"glyde/internal/db"
	"glyde/internal/middleware"
	"glyde/internal/router"
	"glyde/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// Initialize Database
	db.Init(cfg)

	svc := services.New(db.DB, services.Options{
		UploadDir:  cfg.UploadDir,
		LoginDelay: cfg.LoginDelay,
	})

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("glyde_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	renderer, err := router.LoadTemplates("./web/templates")
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	r.HTMLRender = renderer

	router.RegisterRoutes(r, router.Deps{
		Services: svc,
		Tokens:   middleware.NewTokenIssuer(cfg.JWTSecret, middleware.TokenTTL),
		DB:       db.DB,
		PageSize: cfg.PageSize,
	})

	log.Printf("Glyde server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
