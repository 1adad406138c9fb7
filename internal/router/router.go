package router

import (
	"net/http"
	"time"

	"glyde/internal/db"
	"glyde/internal/handlers"
	"glyde/internal/middleware"
	"glyde/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps is everything the routes need from main.
type Deps struct {
	Services *services.Services
	Tokens   *middleware.TokenIssuer
	DB       *gorm.DB
	PageSize int
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	svc := deps.Services

	// Handlers
	authHandler := handlers.NewAuthHandler(svc)
	storyHandler := handlers.NewStoryHandler(svc, deps.PageSize)
	voteHandler := handlers.NewVoteHandler(svc)
	apiHandler := handlers.NewAPIHandler(svc, deps.Tokens, deps.PageSize)

	// CORS configuration, for API clients served from other origins
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	// 上传的视频 (Uploaded media)
	r.Static("/"+services.MediaPrefix, svc.Media.Dir())

	r.GET("/health", func(c *gin.Context) {
		stats := db.Health(c.Request.Context(), deps.DB)
		code := http.StatusOK
		if stats["status"] != "up" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, stats)
	})

	// 公共路由 (Public Routes)
	site := r.Group("/")
	site.Use(middleware.LoadUser(svc.Accounts))
	{
		site.GET("/", storyHandler.List) // 首页

		site.GET("/signup", authHandler.ShowRegister) // 注册页面
		site.POST("/signup", authHandler.Register)    // 提交注册
		site.GET("/login", authHandler.ShowLogin)     // 登录页面
		site.POST("/login", authHandler.Login)        // 提交登录
		site.GET("/logout", authHandler.Logout)       // 退出登录
	}

	// 受保护路由 (Protected Routes)
	authorized := site.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/submit", storyHandler.ShowCreate)            // 发布页面
		authorized.POST("/submit", storyHandler.Create)               // 提交发布
		authorized.POST("/p/:id/upvote", voteHandler.Upvote)          // 赞成
		authorized.POST("/p/:id/downvote", voteHandler.Downvote)      // 反对
		authorized.POST("/p/:id/comment", storyHandler.CreateComment) // 发表评论
	}

	// JSON API
	api := r.Group("/api")
	{
		api.POST("/register", apiHandler.Register)
		api.POST("/login", apiHandler.Login)
		api.GET("/posts", apiHandler.ListPosts)
		api.GET("/posts/:id", apiHandler.GetPost)
		api.GET("/posts/:id/comments", apiHandler.ListComments)
	}

	protected := api.Group("/")
	protected.Use(middleware.APIAuth(deps.Tokens, svc.Accounts))
	{
		protected.GET("/me", apiHandler.Me)
		protected.POST("/posts", apiHandler.CreatePost)
		protected.POST("/posts/:id/upvote", apiHandler.Upvote)
		protected.POST("/posts/:id/downvote", apiHandler.Downvote)
		protected.POST("/posts/:id/comments", apiHandler.CreateComment)
	}
}
