package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/room-relay/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler        *Handler
	WS             http.HandlerFunc
	Metrics        http.Handler
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httpmw.RequestLogger)
	r.Use(middlewareChi.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// WS endpoint
	if d.WS != nil {
		r.Get("/ws", d.WS)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Get("/", d.Handler.ListRooms)
			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", d.Handler.GetRoom)
				rr.Get("/members", d.Handler.GetMembers)
			})
		})
	})

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
