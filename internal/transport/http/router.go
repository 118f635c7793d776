package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/notify"
)

// NewRouter wires the REST command endpoints, the websocket event feed and
// the operational endpoints into one handler.
func NewRouter(coordinator *app.Coordinator, hub *notify.Hub, log *zap.Logger) http.Handler {
	h := NewHandler(coordinator, log)
	ws := NewWSHandler(coordinator, hub, log)

	r := chi.NewRouter()
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Post("/join", h.JoinSession)
		r.Post("/ping", h.PingSession)
		r.Get("/{code}", h.GetSession)
		r.Get("/{code}/leaderboard", h.GetLeaderboard)
		r.Get("/{code}/results", h.GetResults)
		r.Post("/{id}/start", h.StartSession)
		r.Post("/{id}/advance", h.AdvanceQuestion)
		r.Post("/{id}/end", h.EndSession)
		r.Post("/{id}/answers", h.SubmitAnswer)
		r.Post("/{id}/leave", h.LeaveSession)
	})

	r.Get("/ws", ws.ServeWS)

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}
