package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/steadyhq/steady/internal/repository"
	"github.com/steadyhq/steady/internal/service/access"
	"github.com/steadyhq/steady/internal/service/ai"
	"github.com/steadyhq/steady/internal/service/auth"
	"github.com/steadyhq/steady/internal/service/contact"
	"github.com/steadyhq/steady/internal/service/domains"
	"github.com/steadyhq/steady/internal/service/payment"
	"github.com/steadyhq/steady/internal/service/quality"
	"github.com/steadyhq/steady/internal/service/shortlink"
	"github.com/steadyhq/steady/internal/settings"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	contact  contact.Service
	links    *shortlink.Service
	quality  quality.Service
	prompts  ai.Service
	payments payment.Service
	domains  domains.Service
	settings *settings.Service
	upgrader websocket.Upgrader
	limiter  RateLimiter
	dbHealth func(context.Context) error

	heartbeat     time.Duration
	backfillLimit int

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	redirectTotal      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitContact   = 10
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitPrompt    = 30
	rateLimitStream    = 30
	healthCheckTimeout = 2 * time.Second

	defaultHeartbeat     = 15 * time.Second
	defaultBackfillLimit = 50
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, contactSvc contact.Service, linkSvc *shortlink.Service, qualitySvc quality.Service, promptSvc ai.Service, paymentSvc payment.Service, domainSvc domains.Service, settingSvc *settings.Service, limiter RateLimiter, heartbeat time.Duration, backfillLimit int, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		contact:  contactSvc,
		links:    linkSvc,
		quality:  qualitySvc,
		prompts:  promptSvc,
		payments: paymentSvc,
		domains:  domainSvc,
		settings: settingSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:       limiter,
		dbHealth:      dbHealth,
		heartbeat:     heartbeat,
		backfillLimit: backfillLimit,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	if r.heartbeat <= 0 {
		r.heartbeat = defaultHeartbeat
	}
	if r.backfillLimit <= 0 {
		r.backfillLimit = defaultBackfillLimit
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
	r.mux.HandleFunc("/healthz", r.audit("healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/signup", r.audit("auth_signup", r.withRateLimit("auth_signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup)))
	r.mux.HandleFunc("/auth/login", r.audit("auth_login", r.withRateLimit("auth_login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/contact", r.audit("contact", r.handleContact))
	r.mux.HandleFunc("/contact/", r.audit("contact_status", r.handlerAuthRate("contact_status", access.ActionManageContacts, rateLimitUserWrite, rateWindowDefault, r.handleContactStatus)))
	r.mux.HandleFunc("/links", r.audit("links", r.handleLinks))
	r.mux.HandleFunc("/links/", r.audit("link_clicks", r.handlerAuthRate("link_clicks", access.ActionReadLinks, rateLimitUserRead, rateWindowDefault, r.handleLinkClicks)))
	r.mux.HandleFunc("/r/", r.audit("redirect", r.handleRedirect))
	r.mux.HandleFunc("/streams/clicks", r.audit("click_stream", r.handlerAuthRate("click_stream", access.ActionReadLinks, rateLimitStream, rateWindowRealtime, r.handleClickStream)))
	r.mux.HandleFunc("/ws/clicks", r.audit("click_ws", r.handlerAuthRate("click_ws", access.ActionReadLinks, rateLimitStream, rateWindowRealtime, r.handleClickWS)))
	r.mux.HandleFunc("/payments/preferences", r.audit("payment_preferences", r.handlerAuthRate("payment_preferences", access.ActionManagePayments, rateLimitUserWrite, rateWindowDefault, r.handlePaymentPreferences)))
	r.mux.HandleFunc("/payments/webhook", r.audit("payment_webhook", r.handlePaymentWebhook))
	r.mux.HandleFunc("/ai/prompt", r.audit("ai_prompt", r.handlerAuthRate("ai_prompt", access.ActionUsePrompts, rateLimitPrompt, rateWindowDefault, r.handlePrompt)))
	r.mux.HandleFunc("/ai/analyze", r.audit("ai_analyze", r.handlerAuthRate("ai_analyze", access.ActionRunAnalysis, rateLimitUserWrite, rateWindowDefault, r.handleAnalyze)))
	r.mux.HandleFunc("/scores", r.audit("scores", r.handlerAuthRate("scores", access.ActionReadScores, rateLimitUserRead, rateWindowDefault, r.handleScores)))
	r.mux.HandleFunc("/domains/search", r.audit("domain_search", r.handlerAuthRate("domain_search", access.ActionManageDomains, rateLimitUserRead, rateWindowDefault, r.handleDomainSearch)))
	r.mux.HandleFunc("/domains/purchase", r.audit("domain_purchase", r.handlerAuthRate("domain_purchase", access.ActionManageDomains, rateLimitUserWrite, rateWindowDefault, r.handleDomainPurchase)))
	r.mux.HandleFunc("/settings", r.audit("settings", r.handlerAuthRate("settings", access.ActionReadSettings, rateLimitUserRead, rateWindowDefault, r.handleSettings)))
	r.mux.HandleFunc("/settings/", r.audit("setting_override", r.handlerAuthRate("setting_override", access.ActionWriteSettings, rateLimitUserWrite, rateWindowDefault, r.handleSettingOverride)))
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, tokens, err := r.auth.Signup(req.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
			"tier":  user.Tier,
		},
		"tokens": tokens,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, tokens, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
			"tier":  user.Tier,
		},
		"tokens": tokens,
	})
}

func (r *Router) handleContact(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		r.withRateLimit("contact", rateLimitContact, rateWindowDefault, rateLimitKeyIP, r.handleContactSubmit)(w, req)
	case http.MethodGet:
		r.handlerAuthRate("contact", access.ActionReadContacts, rateLimitUserRead, rateWindowDefault, r.handleContactList)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleContactSubmit(w http.ResponseWriter, req *http.Request) {
	var payload contact.SubmitInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	submission, err := r.contact.Submit(req.Context(), payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, marshalSubmission(submission))
}

func (r *Router) handleContactList(w http.ResponseWriter, req *http.Request) {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
	submissions, err := r.contact.List(req.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, marshalSubmissions(submissions))
}

func (r *Router) handleContactStatus(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPatch {
		r.methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(req.URL.Path, "/contact/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	submission, err := r.contact.UpdateStatus(req.Context(), id, payload.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.notFound(w)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, marshalSubmission(submission))
}

func (r *Router) handleLinks(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		r.handlerAuthRate("links", access.ActionManageLinks, rateLimitUserWrite, rateWindowDefault, r.handleLinkCreate)(w, req)
	case http.MethodGet:
		r.handlerAuthRate("links", access.ActionReadLinks, rateLimitUserRead, rateWindowDefault, r.handleLinkList)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleLinkCreate(w http.ResponseWriter, req *http.Request) {
	var payload shortlink.CreateInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for link creation", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	payload.CreatedBy = info.UserID
	link, err := r.links.Create(req.Context(), payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, marshalLink(link))
}

func (r *Router) handleLinkList(w http.ResponseWriter, req *http.Request) {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	links, err := r.links.List(req.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, marshalLinksWithStats(links))
}

func (r *Router) handleLinkClicks(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/links/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "clicks" {
		r.notFound(w)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
	clicks, err := r.links.ListClicks(req.Context(), parts[0], limit, offset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.notFound(w)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, marshalClicks(clicks))
}

// handleRedirect serves short link visits. It never fails: unknown or
// broken codes send the visitor to the configured fallback URL.
func (r *Router) handleRedirect(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		r.methodNotAllowed(w)
		return
	}
	code := strings.TrimPrefix(req.URL.Path, "/r/")
	destination, hit := r.links.Resolve(req.Context(), code, shortlink.ClickContext{
		Referrer:  req.Header.Get("Referer"),
		UserAgent: req.Header.Get("User-Agent"),
		IP:        clientIP(req),
	})
	outcome := "hit"
	if !hit {
		outcome = "fallback"
	}
	r.recordRedirect(outcome)
	http.Redirect(w, req, destination, http.StatusFound)
}

func (r *Router) handlePaymentPreferences(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload payment.PreferenceInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	pref, err := r.payments.CreatePreference(req.Context(), payload)
	if err != nil {
		if errors.Is(err, payment.ErrProvider) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, marshalPreference(pref))
}

func (r *Router) handlePaymentWebhook(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	signature := req.Header.Get("X-Signature")
	if err := r.payments.ProcessWebhook(req.Context(), body, signature); err != nil {
		if payment.IsSignatureError(err) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (r *Router) handlePrompt(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, err := r.prompts.Prompt(req.Context(), payload.Prompt)
	if err != nil {
		if errors.Is(err, ai.ErrProvider) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Component string `json:"component"`
		Source    string `json:"source"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	score, err := r.quality.Analyze(req.Context(), payload.Component, payload.Source)
	if err != nil {
		if errors.Is(err, ai.ErrProvider) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, marshalScore(score))
}

func (r *Router) handleScores(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	scores, err := r.quality.List(req.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, marshalScores(scores))
}

func (r *Router) handleDomainSearch(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	results, err := r.domains.Search(req.Context(), req.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, domains.ErrRegistrar) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (r *Router) handleDomainPurchase(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order, err := r.domains.Purchase(req.Context(), payload.Domain)
	if err != nil {
		if errors.Is(err, domains.ErrRegistrar) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (r *Router) handleSettings(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, r.settings.All())
}

func (r *Router) handleSettingOverride(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPut {
		r.methodNotAllowed(w)
		return
	}
	key := strings.TrimPrefix(req.URL.Path, "/settings/")
	if key == "" || strings.Contains(key, "/") {
		r.notFound(w)
		return
	}
	var payload struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	row, err := r.settings.Override(req.Context(), key, payload.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, marshalSetting(row))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID, "role", info.Role)
		}
		fields = append(fields, "actor", actor)

		r.recordRequestMetrics(req.Method, route, status, duration)

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

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
