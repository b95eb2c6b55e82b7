package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/handlers"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/middleware"
)

type Handlers struct {
	League    *handlers.LeagueHandler
	Event     *handlers.EventHandler
	Member    *handlers.MemberHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, auth *middleware.Authenticator, allowedOrigins []string, log *zap.Logger) {
	log = logger.OrNop(log)

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(requestLogger(log))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mountDocs(router)

	adminOnly := func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.Authorize(middleware.RoleAdmin))
	}

	router.Route("/fixtures", func(r chi.Router) {
		r.Get("/", h.League.ListFixtures)
		r.Post("/{fixtureID}/result", h.League.SubmitResult)
	})

	router.Get("/standings", h.League.GetStandings)
	router.Get("/games", h.League.ListGames)

	router.Route("/members", func(r chi.Router) {
		r.Get("/", h.Member.ListMembers)
		r.Get("/{memberID}", h.Member.GetMember)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Post("/", h.Member.CreateMember)
			r.Post("/import", h.Member.ImportMembers)
		})
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", h.Event.ListEvents)
		r.Get("/{eventID}", h.Event.GetEventByID)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Post("/", h.Event.CreateEvent)
			r.Post("/{eventID}/fixtures", h.Event.GenerateFixtures)
			r.Patch("/{eventID}/active", h.Event.SetActive)
		})
	})

	router.Route("/ws", func(r chi.Router) {
		r.Get("/league", h.WebSocket.ServeLeague)
		r.Get("/events/{eventID}", h.WebSocket.ServeEvent)
	})
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
