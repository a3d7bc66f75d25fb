package httpserver

import (
	"filmly/internal/admin"
	"filmly/internal/auth"
	"filmly/internal/health"
	"filmly/internal/monitoring"
	"filmly/internal/rating"
	"filmly/internal/recommend"

	"github.com/gin-gonic/gin"
)

// Deps bundles the handlers the router mounts. Wiring stays in cmd/api so the
// router can be built against fakes in tests.
type Deps struct {
	Tokens     auth.TokenManager
	Auth       *auth.Handler
	Rating     *rating.Handler
	Recommend  *recommend.Handler
	Admin      *admin.Handler
	Health     *health.Handler
	Monitoring *monitoring.Handler
}

// NewRouter assembles the gin engine and mounts every route group.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	api := r.Group("/api")

	d.Auth.RegisterRoutes(api.Group("/auth"))
	d.Health.RegisterRoutes(api.Group(""))
	d.Monitoring.RegisterRoutes(api.Group(""))
	d.Admin.RegisterRoutes(api.Group("/admin"))

	protected := api.Group("")
	protected.Use(auth.Middleware(d.Tokens))
	d.Rating.RegisterRoutes(protected.Group("/ratings"))
	d.Recommend.RegisterRoutes(protected.Group("/recs"))

	// Similar-movies lookups need no session.
	d.Recommend.RegisterMovieRoutes(api.Group("/movies"))

	return r
}
