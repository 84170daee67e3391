package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vivapicks/picks-platform/internal/picks/auth"
	"github.com/vivapicks/picks-platform/internal/picks/repo"
	"github.com/vivapicks/picks-platform/pkg/contracts/events"
)

const webhookSecret = "whsec_test"

type stubPublisher struct {
	published  []events.PickPublished
	updated    []events.PickPublished
	registered []events.UserRegistered
}

func (p *stubPublisher) PublishPickPublished(_ context.Context, e events.PickPublished) error {
	p.published = append(p.published, e)
	return nil
}

func (p *stubPublisher) PublishPickUpdated(_ context.Context, e events.PickPublished) error {
	p.updated = append(p.updated, e)
	return nil
}

func (p *stubPublisher) PublishUserRegistered(_ context.Context, e events.UserRegistered) error {
	p.registered = append(p.registered, e)
	return nil
}

type fixture struct {
	router http.Handler
	store  *repo.Memory
	tokens *auth.Manager
	publ   *stubPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repo.NewMemory()
	tokens := auth.NewManager("test_secret")
	publ := &stubPublisher{}
	s := NewServer(zap.NewNop(), store, tokens, publ, webhookSecret)
	return &fixture{router: s.Router(), store: store, tokens: tokens, publ: publ}
}

func (f *fixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// adminToken semeia o admin no store e devolve um token com papel admin.
func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	hash, err := auth.HashPassword("Admin123$")
	require.NoError(t, err)
	require.NoError(t, f.store.SeedAdmin(context.Background(), "admin@example.com", hash))

	u, err := f.store.GetUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	token, err := f.tokens.Generate(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return token
}

func (f *fixture) memberToken(t *testing.T, email string, active bool) string {
	t.Helper()
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	u, err := f.store.CreateUser(context.Background(), email, hash)
	require.NoError(t, err)
	if active {
		require.NoError(t, f.store.SetSubscription(context.Background(), email, repo.SubscriptionActive, ""))
	}
	token, err := f.tokens.Generate(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return token
}

func TestRegisterLoginMe(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: "new@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.publ.registered, 1)
	assert.Equal(t, "new@example.com", f.publ.registered[0].Email)

	// duplicado
	rec = f.request(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: "new@example.com", Password: "hunter22"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "new@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, repo.RoleMember, login.Role)

	// cookie httpOnly emitido junto
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.HttpOnly {
			found = true
		}
	}
	assert.True(t, found)

	rec = f.request(t, http.MethodGet, "/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me MeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, "new@example.com", me.Email)
	assert.Equal(t, repo.SubscriptionInactive, me.SubscriptionStatus)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.memberToken(t, "user@example.com", false)

	rec := f.request(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "user@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "ghost@example.com", Password: "hunter22"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: "not-an-email", Password: "hunter22"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: "ok@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	token := f.memberToken(t, "bye@example.com", false)

	rec := f.request(t, http.MethodDelete, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// conta sumiu; me agora é 404
	rec = f.request(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPicksSubscriptionGate(t *testing.T) {
	f := newFixture(t)

	// sem token
	assert.Equal(t, http.StatusUnauthorized, f.request(t, http.MethodGet, "/picks", "", nil).Code)

	// membro sem assinatura
	inactive := f.memberToken(t, "free@example.com", false)
	assert.Equal(t, http.StatusForbidden, f.request(t, http.MethodGet, "/picks", inactive, nil).Code)

	// assinante ativo
	active := f.memberToken(t, "paid@example.com", true)
	assert.Equal(t, http.StatusOK, f.request(t, http.MethodGet, "/picks", active, nil).Code)

	// admin passa sem assinatura checada
	admin := f.adminToken(t)
	assert.Equal(t, http.StatusOK, f.request(t, http.MethodGet, "/picks", admin, nil).Code)
}

func TestPickCRUDAdminOnly(t *testing.T) {
	f := newFixture(t)
	member := f.memberToken(t, "m@example.com", true)

	body := PickRequest{Sport: "NBA", Matchup: "LAL @ BOS", Pick: "LAL -4.5", Odds: "-110", Units: "2u", BetType: "Spread", Analysis: "Home fade"}
	assert.Equal(t, http.StatusForbidden, f.request(t, http.MethodPost, "/picks", member, body).Code)

	admin := f.adminToken(t)
	rec := f.request(t, http.MethodPost, "/picks", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var pk repo.Pick
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pk))
	assert.NotZero(t, pk.ID)
	assert.Empty(t, pk.Result)

	// criação publica evento com notify default true
	require.Len(t, f.publ.published, 1)
	assert.True(t, f.publ.published[0].Notify)
	assert.Equal(t, "LAL @ BOS", f.publ.published[0].Matchup)

	// graduação sem notify não dispara broadcast
	body.Result = repo.ResultWin
	rec = f.request(t, http.MethodPut, "/picks/"+itoa(pk.ID), admin, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.publ.updated)

	// update com notify=true dispara
	notify := true
	body.Notify = &notify
	rec = f.request(t, http.MethodPut, "/picks/"+itoa(pk.ID), admin, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.publ.updated, 1)
	assert.Equal(t, repo.ResultWin, f.publ.updated[0].Result)

	// delete
	assert.Equal(t, http.StatusOK, f.request(t, http.MethodDelete, "/picks/"+itoa(pk.ID), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.request(t, http.MethodDelete, "/picks/"+itoa(pk.ID), admin, nil).Code)
}

func TestUpdatePickValidatesResult(t *testing.T) {
	f := newFixture(t)
	admin := f.adminToken(t)

	body := PickRequest{Sport: "NFL", Matchup: "KC @ BUF", Pick: "Over 47.5"}
	rec := f.request(t, http.MethodPost, "/picks", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var pk repo.Pick
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pk))

	body.Result = "MAYBE"
	rec = f.request(t, http.MethodPut, "/picks/"+itoa(pk.ID), admin, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUserManagement(t *testing.T) {
	f := newFixture(t)
	admin := f.adminToken(t)
	f.memberToken(t, "target@example.com", false)

	rec := f.request(t, http.MethodGet, "/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []repo.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
	assert.Len(t, users, 2)

	target, err := f.store.GetUserByEmail(context.Background(), "target@example.com")
	require.NoError(t, err)

	// patch parcial de assinatura
	active := repo.SubscriptionActive
	rec = f.request(t, http.MethodPatch, "/admin/users/"+itoa(target.ID), admin, UserPatchRequest{SubscriptionStatus: &active})
	require.Equal(t, http.StatusOK, rec.Code)
	var patched repo.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&patched))
	assert.Equal(t, repo.SubscriptionActive, patched.SubscriptionStatus)
	assert.Equal(t, repo.RoleMember, patched.Role)

	// patch vazio
	rec = f.request(t, http.MethodPatch, "/admin/users/"+itoa(target.ID), admin, UserPatchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, f.request(t, http.MethodDelete, "/admin/users/"+itoa(target.ID), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.request(t, http.MethodDelete, "/admin/users/"+itoa(target.ID), admin, nil).Code)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func signWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBillingWebhook(t *testing.T) {
	f := newFixture(t)
	token := f.memberToken(t, "pay@example.com", false)

	body, _ := json.Marshal(BillingEvent{Type: "checkout.session.completed", Email: "pay@example.com", CustomerID: "cus_123"})

	t.Run("assinatura inválida", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(body))
		req.Header.Set("X-Billing-Signature", "deadbeef")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ativação", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(body))
		req.Header.Set("X-Billing-Signature", signWebhook(body))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		status := f.request(t, http.MethodGet, "/billing/status", token, nil)
		require.Equal(t, http.StatusOK, status.Code)
		var out map[string]string
		require.NoError(t, json.NewDecoder(status.Body).Decode(&out))
		assert.Equal(t, repo.SubscriptionActive, out["subscription_status"])

		u, err := f.store.GetUserByEmail(context.Background(), "pay@example.com")
		require.NoError(t, err)
		assert.Equal(t, "cus_123", u.BillingCustomerID)
	})

	t.Run("cancelamento", func(t *testing.T) {
		cancel, _ := json.Marshal(BillingEvent{Type: "subscription.cancelled", Email: "pay@example.com"})
		req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(cancel))
		req.Header.Set("X-Billing-Signature", signWebhook(cancel))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		u, err := f.store.GetUserByEmail(context.Background(), "pay@example.com")
		require.NoError(t, err)
		assert.Equal(t, repo.SubscriptionInactive, u.SubscriptionStatus)
	})

	t.Run("evento desconhecido é confirmado", func(t *testing.T) {
		other, _ := json.Marshal(BillingEvent{Type: "invoice.paid", Email: "pay@example.com"})
		req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(other))
		req.Header.Set("X-Billing-Signature", signWebhook(other))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
