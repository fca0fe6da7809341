package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/roundtable-games/avalon/internal/httpapi/handler"
	"github.com/roundtable-games/avalon/internal/lobby"
	"github.com/roundtable-games/avalon/internal/ratelimit"
	"github.com/roundtable-games/avalon/internal/store"
	"github.com/roundtable-games/avalon/internal/websocket"

	_ "github.com/roundtable-games/avalon/docs" // swag-generated docs
)

// Deps carries everything the router wires together. The caller owns the
// hub lifecycle (hub.Run) and the game handler; the router only mounts
// HTTP surfaces on top of them.
type Deps struct {
	Registry *lobby.Registry
	Records  *store.RecordStore // nil disables /api/stats and /api/records data
	WS       *websocket.WSHandler

	TokenSecret []byte
	TokenExpiry time.Duration

	// RoomLimiter throttles create/join by IP. Nil disables limiting.
	RoomLimiter ratelimit.Limiter

	// AllowedOrigins configures CORS. Empty means no CORS headers.
	AllowedOrigins []string

	// PublicBaseURL is the origin join links (and their QR codes) point at.
	PublicBaseURL string
}

// NewRouter builds the root HTTP router with basic middleware, the room
// API, the records API, and the per-room WebSocket endpoint.
//
// @title            Round Table API
// @version          1.0
// @description      API for social-deduction game rooms, live play over WebSocket, and match records.
// @BasePath         /
// @SecurityDefinitions.apikey  BearerAuth
// @in               header
// @name             Authorization
func NewRouter(d Deps) http.Handler {
	limiter := d.RoomLimiter
	if limiter == nil {
		limiter = &ratelimit.Noop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", handler.Healthz)

	// Swagger UI and generated spec (from swag comments)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// Per-room WebSocket (token auth, chat, commands, sync_state)
	r.Get("/ws/rooms/{code}", d.WS.HandleRoomWebSocket)

	rateLimitByIP := RateLimitMiddleware(limiter, RateLimitKeyByIP)

	// Room routes (body size limited to 1MB for JSON)
	roomHandler := handler.NewRoomHandler(d.Registry, d.TokenSecret, d.TokenExpiry)
	qrHandler := handler.NewQRHandler(d.Registry, d.PublicBaseURL)
	r.Route("/api/rooms", func(r chi.Router) {
		r.Use(LimitRequestBody(DefaultMaxBodyBytes))
		r.With(rateLimitByIP).Post("/", roomHandler.CreateRoom)
		r.Get("/{code}", roomHandler.GetRoom)
		r.With(rateLimitByIP).Post("/{code}/join", roomHandler.JoinRoom)
		r.Get("/{code}/qr", qrHandler.RoomQR)
	})

	statsHandler := handler.NewStatsHandler(d.Records)
	r.Get("/api/stats", statsHandler.Stats)
	r.Get("/api/records", statsHandler.Records)

	return r
}

// DefaultRateLimiter returns an in-memory rate limiter for create/join:
// 20 requests per minute per IP. For multi-instance deployments, replace
// with a shared backend.
func DefaultRateLimiter() ratelimit.Limiter {
	return ratelimit.NewInMemory(20, time.Minute)
}
