package httpx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/steadyhq/steady/internal/config"
	"github.com/steadyhq/steady/internal/domain"
	jwtpkg "github.com/steadyhq/steady/internal/jwt"
	"github.com/steadyhq/steady/internal/repository"
	"github.com/steadyhq/steady/internal/service/access"
	"github.com/steadyhq/steady/internal/service/auth"
	"github.com/steadyhq/steady/internal/service/contact"
	"github.com/steadyhq/steady/internal/service/payment"
	"github.com/steadyhq/steady/internal/service/shortlink"
	"github.com/steadyhq/steady/internal/stream"
)

const testWebhookSecret = "hook-secret"

func TestHandleRedirectKnownCode(t *testing.T) {
	links := newLinkRepoStub()
	links.links["launch"] = &domain.ShortLink{
		ID:             "link-1",
		Code:           "launch",
		DestinationURL: "https://example.com/product",
		Active:         true,
	}
	router, _ := setupRouter(t, routerDeps{links: links})

	req := httptest.NewRequest(http.MethodGet, "/r/launch", nil)
	rr := httptest.NewRecorder()
	router.handleRedirect(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "https://example.com/product" {
		t.Fatalf("unexpected redirect target %q", loc)
	}
}

func TestHandleRedirectUnknownCodeFallsBack(t *testing.T) {
	router, _ := setupRouter(t, routerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/r/missing", nil)
	rr := httptest.NewRecorder()
	router.handleRedirect(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "https://steady.page" {
		t.Fatalf("expected fallback redirect, got %q", loc)
	}
}

func TestHandleRedirectInactiveCodeFallsBack(t *testing.T) {
	links := newLinkRepoStub()
	links.links["paused"] = &domain.ShortLink{
		ID:             "link-2",
		Code:           "paused",
		DestinationURL: "https://example.com/paused",
		Active:         false,
	}
	router, _ := setupRouter(t, routerDeps{links: links})

	req := httptest.NewRequest(http.MethodGet, "/r/paused", nil)
	rr := httptest.NewRecorder()
	router.handleRedirect(rr, req)

	if loc := rr.Header().Get("Location"); loc != "https://steady.page" {
		t.Fatalf("expected fallback redirect, got %q", loc)
	}
}

func TestHandleContactSubmitRejectsInvalidBody(t *testing.T) {
	contacts := newContactRepoStub()
	router, _ := setupRouter(t, routerDeps{contacts: contacts})

	body := `{"name":"Ada","message":"hello there, I need a site"}`
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.handleContact(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if len(contacts.created) != 0 {
		t.Fatalf("expected no submission stored, got %d", len(contacts.created))
	}
}

func TestHandleContactSubmitStoresSubmission(t *testing.T) {
	contacts := newContactRepoStub()
	router, _ := setupRouter(t, routerDeps{contacts: contacts})

	body := `{"name":" Ada ","email":"ada@example.com","company":"Lovelace Ltd","message":"hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.handleContact(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(contacts.created) != 1 {
		t.Fatalf("expected one submission, got %d", len(contacts.created))
	}
	stored := contacts.created[0]
	if stored.Name != "Ada" {
		t.Fatalf("expected name trimmed, got %q", stored.Name)
	}
	if stored.Status != domain.ContactStatusNew {
		t.Fatalf("expected status new, got %q", stored.Status)
	}
}

func TestHandleContactListRequiresAuth(t *testing.T) {
	router, _ := setupRouter(t, routerDeps{contacts: newContactRepoStub()})

	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	rr := httptest.NewRecorder()
	router.handleContact(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleContactStatusUpdatesRow(t *testing.T) {
	contacts := newContactRepoStub()
	contacts.rows["sub-1"] = &domain.ContactSubmission{
		ID:     "sub-1",
		Name:   "Ada",
		Email:  "ada@example.com",
		Status: domain.ContactStatusNew,
	}
	router, token := setupRouter(t, routerDeps{contacts: contacts})

	body := `{"status":"reviewed"}`
	req := httptest.NewRequest(http.MethodPatch, "/contact/sub-1", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.handlerAuthRate("contact_status", access.ActionManageContacts, rateLimitUserWrite, rateWindowDefault, router.handleContactStatus)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if contacts.rows["sub-1"].Status != domain.ContactStatusReviewed {
		t.Fatalf("expected status reviewed, got %q", contacts.rows["sub-1"].Status)
	}
}

func TestHandlePaymentWebhookRejectsBadSignature(t *testing.T) {
	payments := newPaymentRepoStub()
	router, _ := setupRouter(t, routerDeps{payments: payments})

	body := `{"id":"evt-1","type":"payment.approved","external_reference":"ref-1"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("X-Signature", "deadbeef")
	rr := httptest.NewRecorder()
	router.handlePaymentWebhook(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	if len(payments.events) != 0 {
		t.Fatalf("expected no events stored, got %d", len(payments.events))
	}
}

func TestHandlePaymentWebhookAppliesStatus(t *testing.T) {
	payments := newPaymentRepoStub()
	payments.prefs["ref-1"] = &domain.PaymentPreference{
		Reference: "ref-1",
		Status:    domain.PaymentStatusPending,
	}
	router, _ := setupRouter(t, routerDeps{payments: payments})

	body := `{"id":"evt-1","type":"payment.approved","external_reference":"ref-1"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("X-Signature", signBody(testWebhookSecret, body))
	rr := httptest.NewRecorder()
	router.handlePaymentWebhook(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(payments.events) != 1 {
		t.Fatalf("expected one event stored, got %d", len(payments.events))
	}
	if payments.prefs["ref-1"].Status != domain.PaymentStatusApproved {
		t.Fatalf("expected approved status, got %q", payments.prefs["ref-1"].Status)
	}
}

func TestHandlePaymentWebhookAcknowledgesUnknownType(t *testing.T) {
	payments := newPaymentRepoStub()
	router, _ := setupRouter(t, routerDeps{payments: payments})

	body := `{"id":"evt-9","type":"payment.created","external_reference":"ref-9"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("X-Signature", signBody(testWebhookSecret, body))
	rr := httptest.NewRecorder()
	router.handlePaymentWebhook(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(payments.events) != 1 {
		t.Fatalf("expected event stored even for unknown type, got %d", len(payments.events))
	}
}

func TestRateLimitedRequestGetsHeaders(t *testing.T) {
	limiter := newRateLimiterStub()
	reset := time.Unix(1_950_000_000, 0)
	limiter.allowFn = func(key string, limit int, window time.Duration) rateDecision {
		return rateDecision{allowed: false, count: limit, windowEnd: reset}
	}
	router, _ := setupRouter(t, routerDeps{contacts: newContactRepoStub(), limiter: limiter})

	body := `{"name":"Ada","email":"ada@example.com","message":"hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.handleContact(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "10" {
		t.Fatalf("unexpected limit header %q", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header %q", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if rr.Header().Get("X-RateLimit-Reset") != "1950000000" {
		t.Fatalf("unexpected reset header %q", rr.Header().Get("X-RateLimit-Reset"))
	}
}

func TestViewerCannotOverrideSettings(t *testing.T) {
	router, _ := setupRouter(t, routerDeps{})
	token := issueToken(t, "user-123", domain.RoleViewer, domain.TierFree)

	body := `{"value":"dark"}`
	req := httptest.NewRequest(http.MethodPut, "/settings/theme", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.handlerAuthRate("setting_override", access.ActionWriteSettings, rateLimitUserWrite, rateWindowDefault, router.handleSettingOverride)(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestHandleLinkCreateValidatesCode(t *testing.T) {
	links := newLinkRepoStub()
	router, token := setupRouter(t, routerDeps{links: links})

	body := `{"code":"Bad Slug!","destination_url":"https://example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/links", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.handleLinks(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if len(links.created) != 0 {
		t.Fatalf("expected no link stored, got %d", len(links.created))
	}
}

func TestHandleLinkCreateStampsCreator(t *testing.T) {
	links := newLinkRepoStub()
	router, token := setupRouter(t, routerDeps{links: links})

	body := `{"code":"launch","destination_url":"https://example.com/product","campaign":"q3"}`
	req := httptest.NewRequest(http.MethodPost, "/links", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.handleLinks(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(links.created) != 1 {
		t.Fatalf("expected one link stored, got %d", len(links.created))
	}
	if links.created[0].CreatedBy != "user-123" {
		t.Fatalf("expected creator stamped, got %q", links.created[0].CreatedBy)
	}

	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["code"] != "launch" {
		t.Fatalf("unexpected code in response: %v", payload["code"])
	}
}

type routerDeps struct {
	links    *linkRepoStub
	contacts *contactRepoStub
	payments *paymentRepoStub
	limiter  RateLimiter
}

func setupRouter(t *testing.T, deps routerDeps) (*Router, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if deps.links == nil {
		deps.links = newLinkRepoStub()
	}
	if deps.contacts == nil {
		deps.contacts = newContactRepoStub()
	}
	if deps.payments == nil {
		deps.payments = newPaymentRepoStub()
	}
	if deps.limiter == nil {
		deps.limiter = newRateLimiterStub()
	}

	users := newUserRepoStub()
	users.users["user-123"] = &domain.User{
		ID:    "user-123",
		Email: "user@example.com",
		Role:  domain.RoleAdmin,
		Tier:  domain.TierPro,
	}

	cfg := testConfig()
	authSvc := auth.New(users, logger, cfg)
	linkSvc := shortlink.New(deps.links, stream.NewHub(), logger, cfg.FallbackRedirectURL, 8)

	router := &Router{
		logger:        logger,
		auth:          authSvc,
		contact:       contact.New(deps.contacts, logger),
		links:         linkSvc,
		payments:      payment.New(deps.payments, logger, cfg),
		limiter:       deps.limiter,
		heartbeat:     defaultHeartbeat,
		backfillLimit: defaultBackfillLimit,
	}

	token := issueToken(t, "user-123", domain.RoleAdmin, domain.TierPro)
	return router, token
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.JWTSecret = "test-secret"
	cfg.PaymentWebhookSecret = testWebhookSecret
	return cfg
}

func issueToken(t *testing.T, userID, role, tier string) string {
	t.Helper()
	token, err := jwtpkg.GenerateToken(userID, role, tier, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func signBody(secret, body string) string {
	hasher := hmac.New(sha256.New, []byte(secret))
	hasher.Write([]byte(body))
	return hex.EncodeToString(hasher.Sum(nil))
}

type rateLimiterStub struct {
	mu      sync.Mutex
	calls   []rateLimitCall
	allowFn func(key string, limit int, window time.Duration) rateDecision
}

type rateLimitCall struct {
	key    string
	limit  int
	window time.Duration
}

func newRateLimiterStub() *rateLimiterStub {
	return &rateLimiterStub{}
}

func (rl *rateLimiterStub) Allow(key string, limit int, window time.Duration) rateDecision {
	rl.mu.Lock()
	rl.calls = append(rl.calls, rateLimitCall{key: key, limit: limit, window: window})
	fn := rl.allowFn
	rl.mu.Unlock()
	if fn != nil {
		return fn(key, limit, window)
	}
	return rateDecision{allowed: true, count: 1, windowEnd: time.Now().Add(window)}
}

func (rl *rateLimiterStub) Close() {}

type userRepoStub struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*domain.User)}
}

func (u *userRepoStub) CreateUser(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	clone := *user
	u.users[user.ID] = &clone
	return nil
}

func (u *userRepoStub) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *userRepoStub) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (u *userRepoStub) CountUsers(_ context.Context) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.users), nil
}

type linkRepoStub struct {
	mu       sync.Mutex
	links    map[string]*domain.ShortLink
	clicks   map[string][]domain.LinkClick
	created  []*domain.ShortLink
	inserted []domain.LinkClick
}

func newLinkRepoStub() *linkRepoStub {
	return &linkRepoStub{
		links:  make(map[string]*domain.ShortLink),
		clicks: make(map[string][]domain.LinkClick),
	}
}

func (l *linkRepoStub) CreateLink(_ context.Context, link *domain.ShortLink) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.links[link.Code]; ok {
		return repository.ErrInvalidArgument
	}
	clone := *link
	l.links[link.Code] = &clone
	l.created = append(l.created, &clone)
	return nil
}

func (l *linkRepoStub) GetLinkByCode(_ context.Context, code string) (*domain.ShortLink, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if link, ok := l.links[code]; ok {
		clone := *link
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (l *linkRepoStub) ListLinks(_ context.Context, limit int) ([]domain.LinkWithStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.LinkWithStats, 0, len(l.links))
	for _, link := range l.links {
		out = append(out, domain.LinkWithStats{ShortLink: *link, ClickCount: int64(len(l.clicks[link.ID]))})
	}
	return out, nil
}

func (l *linkRepoStub) InsertClick(_ context.Context, click *domain.LinkClick) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	click.ID = int64(len(l.inserted) + 1)
	l.inserted = append(l.inserted, *click)
	l.clicks[click.LinkID] = append(l.clicks[click.LinkID], *click)
	return nil
}

func (l *linkRepoStub) ListClicksByLink(_ context.Context, linkID string, limit, offset int) ([]domain.LinkClick, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := l.clicks[linkID]
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]domain.LinkClick, len(rows))
	copy(out, rows)
	return out, nil
}

type contactRepoStub struct {
	mu      sync.Mutex
	rows    map[string]*domain.ContactSubmission
	created []*domain.ContactSubmission
}

func newContactRepoStub() *contactRepoStub {
	return &contactRepoStub{rows: make(map[string]*domain.ContactSubmission)}
}

func (c *contactRepoStub) CreateSubmission(_ context.Context, submission *domain.ContactSubmission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *submission
	c.rows[submission.ID] = &clone
	c.created = append(c.created, &clone)
	return nil
}

func (c *contactRepoStub) GetSubmissionByID(_ context.Context, id string) (*domain.ContactSubmission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if row, ok := c.rows[id]; ok {
		clone := *row
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (c *contactRepoStub) ListSubmissions(_ context.Context, limit, offset int) ([]domain.ContactSubmission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ContactSubmission, 0, len(c.rows))
	for _, row := range c.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (c *contactRepoStub) UpdateSubmissionStatus(_ context.Context, id, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Status = status
	return nil
}

type paymentRepoStub struct {
	mu     sync.Mutex
	prefs  map[string]*domain.PaymentPreference
	events []*domain.PaymentEvent
}

func newPaymentRepoStub() *paymentRepoStub {
	return &paymentRepoStub{prefs: make(map[string]*domain.PaymentPreference)}
}

func (p *paymentRepoStub) CreatePreference(_ context.Context, pref *domain.PaymentPreference) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := *pref
	p.prefs[pref.Reference] = &clone
	return nil
}

func (p *paymentRepoStub) GetPreferenceByReference(_ context.Context, reference string) (*domain.PaymentPreference, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pref, ok := p.prefs[reference]; ok {
		clone := *pref
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (p *paymentRepoStub) UpdatePreferenceStatus(_ context.Context, reference, status string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pref, ok := p.prefs[reference]
	if !ok {
		return repository.ErrNotFound
	}
	pref.Status = status
	return nil
}

func (p *paymentRepoStub) InsertPaymentEvent(_ context.Context, event *domain.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := *event
	p.events = append(p.events, &clone)
	return nil
}
