package router

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/handler"
	"github.com/kodkids/site-api/internal/middleware"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/logger"
	corsmiddleware "github.com/kodkids/site-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kodkids/site-api/pkg/middleware/requestid"
)

// Options configures the HTTP surface.
type Options struct {
	APIPrefix       string
	AllowedOrigins  []string
	EnableDocs      bool
	PublicRateLimit int
}

// Handlers bundles every endpoint group.
type Handlers struct {
	Courses       *handler.CourseHandler
	Registrations *handler.RegistrationHandler
	Lessons       *handler.LessonHandler
	Forum         *handler.ForumHandler
	Chat          *handler.ChatHandler
	Contact       *handler.ContactHandler
	SiteContent   *handler.SiteContentHandler
	Auth          *handler.AuthHandler
	Checkout      *handler.CheckoutHandler
	Materials     *handler.MaterialHandler
	Metrics       *handler.MetricsHandler
}

// New builds the gin engine with all routes mounted under opts.APIPrefix.
func New(opts Options, h Handlers, tokens middleware.TokenValidator, observer middleware.RequestObserver, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(observer))

	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	formLimit := middleware.RateLimit("forms", opts.PublicRateLimit, time.Minute)
	authed := middleware.JWT(tokens)
	admin := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(opts.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	api.GET("/courses", h.Courses.List)
	api.GET("/courses/:id", h.Courses.Get)
	api.GET("/courses/:id/registration-options", h.Registrations.Options)
	api.POST("/registrations", formLimit, h.Registrations.Submit)
	api.POST("/contact", formLimit, h.Contact.Submit)
	api.GET("/site-content", h.SiteContent.Get)
	api.POST("/checkout", formLimit, h.Checkout.Start)
	api.POST("/checkout/notifications", h.Checkout.Notification)

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", formLimit, h.Auth.Signup)
	authGroup.POST("/login", formLimit, h.Auth.Login)
	authGroup.GET("/me", authed, h.Auth.Me)

	learning := api.Group("")
	learning.Use(middleware.OptionalJWT(tokens))
	learning.GET("/courses/:id/lessons", h.Lessons.ListByCourse)
	learning.GET("/lessons/:lessonId", h.Lessons.Get)
	learning.GET("/lessons/:lessonId/threads", h.Forum.ListThreads)

	api.GET("/lessons/:lessonId/materials", authed, h.Materials.List)
	api.GET("/materials/:materialId/download", h.Materials.Download)

	forum := api.Group("")
	forum.Use(authed)
	forum.POST("/lessons/:lessonId/threads", h.Forum.CreateThread)
	forum.PUT("/threads/:threadId", h.Forum.UpdateThread)
	forum.DELETE("/threads/:threadId", h.Forum.DeleteThread)
	forum.POST("/threads/:threadId/replies", h.Forum.Reply)
	forum.DELETE("/replies/:replyId", h.Forum.DeleteReply)

	chat := api.Group("/chat/sessions")
	chat.POST("", formLimit, h.Chat.Start)
	chat.GET("/:sessionId/messages", h.Chat.History)
	chat.POST("/:sessionId/messages", h.Chat.PostMessage)
	chat.GET("/:sessionId/stream", h.Chat.Stream)

	back := api.Group("/admin")
	back.Use(authed, admin)

	back.GET("/courses", h.Courses.ListAll)
	back.POST("/courses", h.Courses.Create)
	back.PUT("/courses/:id", h.Courses.Update)
	back.DELETE("/courses/:id", h.Courses.Delete)
	back.POST("/courses/:id/schedules", h.Courses.AddSchedule)
	back.DELETE("/courses/:id/schedules/:slotId", h.Courses.DeleteSchedule)
	back.GET("/courses/:id/periods", h.Courses.ListPeriods)
	back.POST("/courses/:id/periods", h.Courses.CreatePeriod)
	back.PUT("/courses/:id/periods/:periodId", h.Courses.UpdatePeriod)
	back.DELETE("/courses/:id/periods/:periodId", h.Courses.DeletePeriod)
	back.POST("/courses/:id/lessons", h.Lessons.Create)
	back.PUT("/lessons/:lessonId", h.Lessons.Update)
	back.DELETE("/lessons/:lessonId", h.Lessons.Delete)
	back.POST("/lessons/:lessonId/materials", h.Materials.Upload)
	back.DELETE("/materials/:materialId", h.Materials.Delete)

	back.GET("/registrations", h.Registrations.List)
	back.GET("/registrations/export", h.Registrations.Export)
	back.GET("/registrations/:id", h.Registrations.Get)
	back.PATCH("/registrations/:id/status", h.Registrations.UpdateStatus)

	back.GET("/chat/sessions", h.Chat.ListOpen)
	back.GET("/chat/sessions/:sessionId/messages", h.Chat.History)
	back.GET("/chat/sessions/:sessionId/stream", h.Chat.Stream)
	back.POST("/chat/sessions/:sessionId/messages", h.Chat.Reply)
	back.POST("/chat/sessions/:sessionId/close", h.Chat.Close)

	back.GET("/contact-messages", h.Contact.List)
	back.PUT("/site-content", h.SiteContent.Update)

	return r
}
