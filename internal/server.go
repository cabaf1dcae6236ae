package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/hostelops/turnkey/internal/config"
	"github.com/hostelops/turnkey/internal/driver"
	"github.com/hostelops/turnkey/internal/history"
	"github.com/hostelops/turnkey/internal/operator"
	"github.com/hostelops/turnkey/internal/pushsubscription"
	"github.com/hostelops/turnkey/internal/task"
	"github.com/hostelops/turnkey/pkg/cerr"
	"github.com/hostelops/turnkey/pkg/clog"
)

type Server struct {
	server                 *http.Server
	env                    *config.Env
	taskServer             *task.Server
	historyServer          *history.Server
	driverServer           *driver.Server
	operatorServer         *operator.Server
	pushSubscriptionServer *pushsubscription.Server
}

func NewServer(
	env *config.Env,
	taskServer *task.Server,
	historyServer *history.Server,
	driverServer *driver.Server,
	operatorServer *operator.Server,
	pushSubscriptionServer *pushsubscription.Server,
) *Server {
	return &Server{
		env:                    env,
		taskServer:             taskServer,
		historyServer:          historyServer,
		driverServer:           driverServer,
		operatorServer:         operatorServer,
		pushSubscriptionServer: pushSubscriptionServer,
	}
}

// ListenAndServe starts the HTTP server. The provided context is the base
// context for all incoming requests, so cancelling it on shutdown also
// cancels every in-flight handler.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
			committerMiddleware,
		)
		s.taskServer.Routes(r)
		s.historyServer.Routes(r)
		s.driverServer.Routes(r)
		s.operatorServer.Routes(r)
		s.pushSubscriptionServer.Routes(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// committerMiddleware reads the acting identity from request headers so that
// downstream history writes know who made the change. Requests without the
// headers run as an anonymous guest.
func committerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		committer := history.Committer{
			ID:   r.Header.Get("X-Committer-Id"),
			Name: r.Header.Get("X-Committer-Name"),
			Role: history.ParseRole(r.Header.Get("X-Committer-Role")),
		}
		ctx := history.ContextWithCommitter(r.Context(), committer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip API key check for the health endpoint.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.Header.Get("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}
		if apiKey != s.env.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
