package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marqueehq/marquee/internal/domain"
	"github.com/marqueehq/marquee/internal/service/account"
	"github.com/marqueehq/marquee/internal/service/auth"
	"github.com/marqueehq/marquee/internal/service/catalog"
	"github.com/marqueehq/marquee/internal/validator"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	auth    auth.Service
	account account.Service
	catalog catalog.Service
	limiter RateLimiter
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitTokenMail = 5
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, accountSvc account.Service, catalogSvc catalog.Service, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		account:  accountSvc,
		catalog:  catalogSvc,
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	searchMovies := r.requirePermission(domain.PermissionMoviesRead,
		r.withRateLimit("movies_search", rateLimitUserRead, rateWindowDefault, rateLimitKeyUser, r.handleSearchMovies))
	createMovie := r.requirePermission(domain.PermissionMoviesWrite,
		r.withRateLimit("movies_create", rateLimitUserWrite, rateWindowDefault, rateLimitKeyUser, r.handleCreateMovie))
	getMovie := r.requirePermission(domain.PermissionMoviesRead,
		r.withRateLimit("movies_get", rateLimitUserRead, rateWindowDefault, rateLimitKeyUser, r.handleGetMovie))
	updateMovie := r.requirePermission(domain.PermissionMoviesWrite,
		r.withRateLimit("movies_update", rateLimitUserWrite, rateWindowDefault, rateLimitKeyUser, r.handleUpdateMovie))
	deleteMovie := r.requirePermission(domain.PermissionMoviesWrite,
		r.withRateLimit("movies_delete", rateLimitUserWrite, rateWindowDefault, rateLimitKeyUser, r.handleDeleteMovie))

	r.mux.HandleFunc("/healthz", r.audit("healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())

	r.mux.HandleFunc("/v1/movies", r.audit("movies", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			searchMovies(w, req)
		case http.MethodPost:
			createMovie(w, req)
		default:
			methodNotAllowed(w)
		}
	}))
	r.mux.HandleFunc("/v1/movies/", r.audit("movies_by_id", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			getMovie(w, req)
		case http.MethodPatch:
			updateMovie(w, req)
		case http.MethodDelete:
			deleteMovie(w, req)
		default:
			methodNotAllowed(w)
		}
	}))

	r.mux.HandleFunc("/v1/users", r.audit("users_register",
		r.withRateLimit("users_register", rateLimitSignup, rateWindowDefault, rateLimitKeyIP,
			postOnly(r.handleRegisterUser))))
	r.mux.HandleFunc("/v1/users/activated", r.audit("users_activate",
		r.withRateLimit("users_activate", rateLimitUserWrite, rateWindowDefault, rateLimitKeyIP,
			putOnly(r.handleActivateUser))))
	r.mux.HandleFunc("/v1/users/password", r.audit("users_password",
		r.withRateLimit("users_password", rateLimitUserWrite, rateWindowDefault, rateLimitKeyIP,
			putOnly(r.handleResetPassword))))

	r.mux.HandleFunc("/v1/tokens/authentication", r.audit("tokens_authentication",
		r.withRateLimit("tokens_authentication", rateLimitLogin, rateWindowDefault, rateLimitKeyIP,
			postOnly(r.handleAuthenticationToken))))
	r.mux.HandleFunc("/v1/tokens/activation", r.audit("tokens_activation",
		r.withRateLimit("tokens_activation", rateLimitTokenMail, rateWindowDefault, rateLimitKeyIP,
			postOnly(r.handleActivationToken))))
	r.mux.HandleFunc("/v1/tokens/password-reset", r.audit("tokens_password_reset",
		r.withRateLimit("tokens_password_reset", rateLimitTokenMail, rateWindowDefault, rateLimitKeyIP,
			postOnly(r.handlePasswordResetToken))))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()
	if r.dbHealth != nil {
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, envelope{"status": "available"})
}

func (r *Router) handleCreateMovie(w http.ResponseWriter, req *http.Request) {
	var input domain.MovieInput
	if err := readJSON(w, req, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	movie, err := r.catalog.Create(req.Context(), input)
	if err != nil {
		r.mapError(w, req, err)
		return
	}

	w.Header().Set("Location", "/v1/movies/"+strconv.FormatInt(movie.ID, 10))
	writeJSON(w, http.StatusCreated, envelope{"movie": movie})
}

func (r *Router) handleGetMovie(w http.ResponseWriter, req *http.Request) {
	id, ok := movieIDParam(req)
	if !ok {
		writeError(w, http.StatusNotFound, "the requested resource could not be found")
		return
	}

	movie, err := r.catalog.Get(req.Context(), id)
	if err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"movie": movie})
}

func (r *Router) handleUpdateMovie(w http.ResponseWriter, req *http.Request) {
	id, ok := movieIDParam(req)
	if !ok {
		writeError(w, http.StatusNotFound, "the requested resource could not be found")
		return
	}

	var input domain.MovieInput
	if err := readJSON(w, req, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	movie, err := r.catalog.Update(req.Context(), id, input)
	if err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"movie": movie})
}

func (r *Router) handleDeleteMovie(w http.ResponseWriter, req *http.Request) {
	id, ok := movieIDParam(req)
	if !ok {
		writeError(w, http.StatusNotFound, "the requested resource could not be found")
		return
	}

	if err := r.catalog.Delete(req.Context(), id); err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "movie successfully deleted"})
}

func (r *Router) handleSearchMovies(w http.ResponseWriter, req *http.Request) {
	qs := req.URL.Query()
	v := validator.New()

	title := qs.Get("title")
	var genres []string
	if raw := qs.Get("genres"); raw != "" {
		genres = strings.Split(raw, ",")
	}
	page := readInt(qs.Get("page"), 1, "page", v)
	pageSize := readInt(qs.Get("page_size"), 20, "page_size", v)
	sort := qs.Get("sort")
	if sort == "" {
		sort = "id"
	}
	if !v.Valid() {
		writeError(w, http.StatusUnprocessableEntity, v.Errors())
		return
	}

	movies, metadata, err := r.catalog.Search(req.Context(), title, genres, page, pageSize, sort)
	if err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"metadata": metadata, "movies": movies})
}

func (r *Router) handleRegisterUser(w http.ResponseWriter, req *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, req, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := r.account.Register(req.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusAccepted, envelope{"user": user})
}

func (r *Router) handleActivateUser(w http.ResponseWriter, req *http.Request) {
	var input struct {
		Token string `json:"token"`
	}
	if err := readJSON(w, req, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := r.account.Activate(req.Context(), input.Token)
	if err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

func (r *Router) handleResetPassword(w http.ResponseWriter, req *http.Request) {
	var input struct {
		Password string `json:"password"`
		Token    string `json:"token"`
	}
	if err := readJSON(w, req, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.account.ResetPassword(req.Context(), input.Password, input.Token); err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "your password was successfully reset"})
}

func (r *Router) handleAuthenticationToken(w http.ResponseWriter, req *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, req, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := r.account.CreateAuthenticationToken(req.Context(), input.Email, input.Password)
	if err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"authentication_token": token})
}

func (r *Router) handleActivationToken(w http.ResponseWriter, req *http.Request) {
	email, ok := readEmailBody(w, req)
	if !ok {
		return
	}
	if err := r.account.RequestActivationToken(req.Context(), email); err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusAccepted, envelope{"message": "an email will be sent to you containing activation instructions"})
}

func (r *Router) handlePasswordResetToken(w http.ResponseWriter, req *http.Request) {
	email, ok := readEmailBody(w, req)
	if !ok {
		return
	}
	if err := r.account.RequestPasswordReset(req.Context(), email); err != nil {
		r.mapError(w, req, err)
		return
	}
	writeJSON(w, http.StatusAccepted, envelope{"message": "an email will be sent to you containing password reset instructions"})
}

func readEmailBody(w http.ResponseWriter, req *http.Request) (string, bool) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, req, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return input.Email, true
}

// movieIDParam extracts the trailing id from /v1/movies/{id}.
func movieIDParam(req *http.Request) (int64, bool) {
	raw := strings.TrimPrefix(req.URL.Path, "/v1/movies/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// readInt parses a query integer with a default, recording a validation
// failure on garbage.
func readInt(raw string, fallback int, field string, v *validator.Validator) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.AddError(field, "must be an integer value")
		return fallback
	}
	return n
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return allowMethod(http.MethodPost, next)
}

func putOnly(next http.HandlerFunc) http.HandlerFunc {
	return allowMethod(http.MethodPut, next)
}

func allowMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			methodNotAllowed(w)
			return
		}
		next(w, req)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "the method is not supported for this resource")
}

// statusRecorder captures status and body size for the audit log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Write(p []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(p)
	sr.bytes += n
	return n, err
}

// audit wraps a handler with request logging and metrics. Every request
// carries a request id, generated when the client did not send one.
func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reqID := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", reqID,
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

func clientIP(req *http.Request) string {
	host := req.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
