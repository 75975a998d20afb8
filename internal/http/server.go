// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "finledger/internal/log"
	"finledger/internal/middleware/ratelimit"
	"finledger/internal/middleware/security"
	"finledger/internal/middleware/trace"
	"finledger/internal/services"
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
	// Ready reports whether dependencies such as the database are usable.
	Ready func(context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server
	ledger   *services.Ledger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	access   *trace.AccessLog
	ready    func(context.Context) error
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *services.Ledger, opts Options) *Server {
	if opts.Logger == nil {
		cfg := applog.DefaultConfig()
		cfg.Component = applog.ComponentHTTP
		opts.Logger = applog.New(cfg)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		ledger:   ledger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		ready:    opts.Ready,
		now:      opts.Now,
	}
	s.access = trace.NewAccessLog(s.detector.ExtractClientIP, userFromHeader)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /accounts", requireUser(s.handleListAccounts))
	mux.HandleFunc("POST /accounts", requireUser(s.handleCreateAccount))
	mux.HandleFunc("POST /accounts/hybrid", requireUser(s.handleCreateHybridAccount))
	mux.HandleFunc("GET /accounts/{id}", requireUser(s.handleGetAccount))
	mux.HandleFunc("PATCH /accounts/{id}", requireUser(s.handleUpdateAccount))
	mux.HandleFunc("PUT /accounts/{id}/balance", requireUser(s.handleSetBalance))
	mux.HandleFunc("DELETE /accounts/{id}", requireUser(s.handleDeleteAccount))

	mux.HandleFunc("GET /categories", requireUser(s.handleListCategories))
	mux.HandleFunc("POST /categories", requireUser(s.handleCreateCategory))
	mux.HandleFunc("GET /categories/{id}", requireUser(s.handleGetCategory))
	mux.HandleFunc("PATCH /categories/{id}", requireUser(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", requireUser(s.handleDeleteCategory))

	mux.HandleFunc("GET /bills", requireUser(s.handleListBills))
	mux.HandleFunc("POST /bills", requireUser(s.handleGetOrCreateBill))
	mux.HandleFunc("GET /bills/{id}", requireUser(s.handleGetBill))
	mux.HandleFunc("PATCH /bills/{id}", requireUser(s.handleUpdateBill))
	mux.HandleFunc("PUT /bills/{id}/status", requireUser(s.handleUpdateBillStatus))
	mux.HandleFunc("DELETE /bills/{id}", requireUser(s.handleDeleteBill))
	mux.HandleFunc("POST /bills/{id}/pay", requireUser(s.handlePayBill))
	mux.HandleFunc("POST /bills/{id}/revert", requireUser(s.handleRevertBillPayment))

	mux.HandleFunc("GET /transactions", requireUser(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", requireUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", requireUser(s.handleGetTransaction))
	mux.HandleFunc("PATCH /transactions/{id}", requireUser(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", requireUser(s.handleDeleteTransaction))

	mux.HandleFunc("GET /reports/overview", requireUser(s.handleMonthOverview))
	mux.HandleFunc("GET /reports/forecast", requireUser(s.handleForecast))

	// Outermost first: logger, request id, access log, probe filter,
	// headers, per-user rate limit.
	var handler http.Handler = mux
	handler = s.limiter.Middleware(userFromHeader, tooManyRequests)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.access.Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = trace.Middleware(handler)
	handler = applog.Middleware(opts.Logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

// fail logs err at a level matching its class and writes the mapped response.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := FromError(err)
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, errorType(err), op, applog.NewFields().WithComponent(applog.ComponentHTTP))
	} else {
		logger.InfoContext(ctx, "Request rejected",
			applog.FieldOperation, op,
			applog.FieldErrorType, errorType(err),
			applog.FieldError, err.Error())
	}
	resp.Write(w)
}
