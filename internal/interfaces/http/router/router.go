package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. Registrars added with Register go
// behind the group middleware (session auth); open registrars do not.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
	open       []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithGroupMiddleware sets middleware applied to all protected routes
func WithGroupMiddleware(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = middleware
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
		open:       make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar behind the group middleware
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// RegisterOpen adds a RouteRegistrar that skips the group middleware
func (r *Router) RegisterOpen(registrar RouteRegistrar) *Router {
	r.open = append(r.open, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.open {
		registrar.RegisterRoutes(api)
	}

	protected := api.Group("", r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(protected)
	}
}
