package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	_ "passgate/docs"
	"passgate/internal/logger"
	"passgate/internal/service"
	"passgate/internal/throttle"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options configures the session cookie and CORS for the JSON API.
type Options struct {
	SessionName   string
	SessionSecret string
	SessionMaxAge time.Duration
	SecureCookie  bool
	CORSOrigins   []string
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	limiter  throttle.Limiter
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies. A nil limiter
// disables login throttling and a nil logger discards output.
func NewHandler(services *service.Service, limiter throttle.Limiter, log *logger.Logger, opts Options) *Handler {
	if limiter == nil {
		limiter = throttle.NewMemory(throttle.Config{})
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.SessionName == "" {
		opts.SessionName = "passgate_session"
	}
	return &Handler{services: services, limiter: limiter, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestID, h.requestLogger)
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.Use(sessions.Sessions(h.opts.SessionName, h.sessionStore()), h.identity)

	if len(h.opts.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = h.opts.CORSOrigins
		corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader}
		corsCfg.ExposeHeaders = []string{requestIDHeader}
		router.Use(cors.New(corsCfg))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Server-rendered pages
	h.registerWebRoutes(router)

	// JSON API
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) sessionStore() sessions.Store {
	store := cookie.NewStore([]byte(h.opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(h.opts.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func (h *Handler) registerWebRoutes(r *gin.Engine) {
	r.GET("/", h.home)
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.GET("/dashboard", h.requireIdentity, h.dashboard)
	r.GET("/logout", h.logout)
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/sign-up", h.signUp)
			auth.POST("/sign-in", h.signIn)
		}
		api.GET("/me", h.bearerMiddleware, h.me)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
