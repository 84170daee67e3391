package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vivapicks/picks-platform/internal/picks/auth"
	"github.com/vivapicks/picks-platform/internal/picks/repo"
	"github.com/vivapicks/picks-platform/pkg/contracts/events"
)

// Store define a persistência usada pelos handlers do picks-service.
// Implementado por repo.Postgres e repo.Memory.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	GetUserByID(ctx context.Context, id int64) (repo.User, error)
	ListUsers(ctx context.Context) ([]repo.User, error)
	UpdateUser(ctx context.Context, id int64, role, subscriptionStatus *string) (repo.User, error)
	DeleteUser(ctx context.Context, id int64) error
	SetSubscription(ctx context.Context, email, status, customerID string) error

	CreatePick(ctx context.Context, pk repo.Pick) (repo.Pick, error)
	UpdatePick(ctx context.Context, pk repo.Pick) (repo.Pick, error)
	DeletePick(ctx context.Context, id int64) error
	ListPicks(ctx context.Context) ([]repo.Pick, error)
}

// Publisher emite os eventos consumidos pelo notifier-worker.
type Publisher interface {
	PublishPickPublished(ctx context.Context, e events.PickPublished) error
	PublishPickUpdated(ctx context.Context, e events.PickPublished) error
	PublishUserRegistered(ctx context.Context, e events.UserRegistered) error
}

// Server expõe a API REST do picks-service.
type Server struct {
	log           *zap.Logger
	store         Store
	tokens        *auth.Manager
	publ          Publisher
	webhookSecret string
}

func NewServer(log *zap.Logger, store Store, tokens *auth.Manager, publ Publisher, webhookSecret string) *Server {
	return &Server{log: log, store: store, tokens: tokens, publ: publ, webhookSecret: webhookSecret}
}

// Router retorna o roteador HTTP com os endpoints da API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "online"})
	})

	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)
	r.Post("/auth/logout", s.logout)

	// webhook assinado pelo segredo compartilhado, fora do middleware de sessão
	r.Post("/billing/webhook", s.billingWebhook)

	r.Group(func(r chi.Router) {
		r.Use(s.tokens.Middleware)

		r.Get("/auth/me", s.me)
		r.Delete("/auth/me", s.deleteMe)

		r.Get("/picks", s.listPicks)
		r.Get("/billing/status", s.billingStatus)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/picks", s.createPick)
			r.Put("/picks/{id}", s.updatePick)
			r.Delete("/picks/{id}", s.deletePick)

			r.Get("/admin/users", s.listUsers)
			r.Patch("/admin/users/{id}", s.patchUser)
			r.Delete("/admin/users/{id}", s.deleteUser)
		})
	})

	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// register cria a conta e dispara o e-mail de boas-vindas via Kafka.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	u, err := s.store.CreateUser(r.Context(), req.Email, hash)
	if errors.Is(err, repo.ErrDuplicateEmail) {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		s.log.Error("create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	usersRegisteredTotal.Inc()

	if s.publ != nil {
		if err := s.publ.PublishUserRegistered(r.Context(), events.UserRegistered{UserID: u.ID, Email: u.Email}); err != nil {
			s.log.Warn("user_registered publish", zap.Error(err)) // cadastro já concluído
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// login valida as credenciais e emite o token em cookie httpOnly + corpo.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	u, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !auth.CheckPassword(u.PasswordHash, req.Password)) {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	if err != nil {
		s.log.Error("get user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.tokens.Generate(u.ID, u.Email, u.Role)
	if err != nil {
		s.log.Error("sign token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(auth.TokenTTL),
	})
	writeJSON(w, http.StatusOK, LoginResponse{Message: "Logged in", Role: u.Role, Token: token})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", HttpOnly: true, MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	u, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.log.Error("get user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Role:               u.Role,
		SubscriptionStatus: u.SubscriptionStatus,
		BillingCustomerID:  u.BillingCustomerID,
	})
}

func (s *Server) deleteMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	if err := s.store.DeleteUser(r.Context(), claims.UserID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.log.Error("delete user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", HttpOnly: true, MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// listPicks exige assinatura ativa (admins passam direto).
func (s *Server) listPicks(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	u, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusForbidden, "Subscription required")
		return
	}
	if u.Role != repo.RoleAdmin && u.SubscriptionStatus != repo.SubscriptionActive {
		writeError(w, http.StatusForbidden, "Subscription required")
		return
	}

	picks, err := s.store.ListPicks(r.Context())
	if err != nil {
		s.log.Error("list picks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if picks == nil {
		picks = []repo.Pick{}
	}
	writeJSON(w, http.StatusOK, picks)
}

func pickEvent(pk repo.Pick, notify bool) events.PickPublished {
	return events.PickPublished{
		PickID:   pk.ID,
		Sport:    pk.Sport,
		Time:     pk.Time,
		Matchup:  pk.Matchup,
		Pick:     pk.Pick,
		Odds:     pk.Odds,
		Units:    pk.Units,
		BetType:  pk.BetType,
		Analysis: pk.Analysis,
		Result:   pk.Result,
		Notify:   notify,
	}
}

// createPick publica um novo pick e dispara o broadcast (salvo notify=false).
func (s *Server) createPick(w http.ResponseWriter, r *http.Request) {
	var req PickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Sport == "" || req.Matchup == "" || req.Pick == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	pk, err := s.store.CreatePick(r.Context(), repo.Pick{
		Sport:    req.Sport,
		Time:     req.Time,
		Matchup:  req.Matchup,
		Pick:     req.Pick,
		Odds:     req.Odds,
		Units:    req.Units,
		BetType:  req.BetType,
		Analysis: req.Analysis,
	})
	if err != nil {
		s.log.Error("create pick", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	picksPublishedTotal.Inc()

	notify := req.Notify == nil || *req.Notify
	if s.publ != nil {
		if err := s.publ.PublishPickPublished(r.Context(), pickEvent(pk, notify)); err != nil {
			s.log.Warn("pick_published publish", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, pk)
}

// updatePick atualiza/gradua o pick; broadcast só com notify=true explícito.
func (s *Server) updatePick(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req PickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !repo.ValidResult(req.Result) {
		writeError(w, http.StatusBadRequest, "result must be WIN, LOSS or PUSH")
		return
	}

	pk, err := s.store.UpdatePick(r.Context(), repo.Pick{
		ID:       id,
		Sport:    req.Sport,
		Time:     req.Time,
		Matchup:  req.Matchup,
		Pick:     req.Pick,
		Odds:     req.Odds,
		Units:    req.Units,
		BetType:  req.BetType,
		Analysis: req.Analysis,
		Result:   req.Result,
	})
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Pick not found")
		return
	}
	if err != nil {
		s.log.Error("update pick", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	picksUpdatedTotal.Inc()

	notify := req.Notify != nil && *req.Notify
	if s.publ != nil && notify {
		if err := s.publ.PublishPickUpdated(r.Context(), pickEvent(pk, true)); err != nil {
			s.log.Warn("pick_updated publish", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, pk)
}

func (s *Server) deletePick(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeletePick(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pick not found")
			return
		}
		s.log.Error("delete pick", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pick deleted"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.log.Error("list users", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []repo.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) patchUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req UserPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	u, err := s.store.UpdateUser(r.Context(), id, req.Role, req.SubscriptionStatus)
	switch {
	case errors.Is(err, repo.ErrNoFields):
		writeError(w, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case err != nil:
		s.log.Error("update user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, u)
	}
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		s.log.Error("delete user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (s *Server) billingStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	u, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"subscription_status": u.SubscriptionStatus})
}

// billingWebhook recebe eventos do provedor de billing. A assinatura é um
// HMAC-SHA256 do corpo bruto com o segredo compartilhado, em hex no header
// X-Billing-Signature. Assinatura inválida responde 400 sem processar.
func (s *Server) billingWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	if s.webhookSecret == "" || !hmac.Equal([]byte(want), []byte(r.Header.Get("X-Billing-Signature"))) {
		writeError(w, http.StatusBadRequest, "Webhook Error: invalid signature")
		return
	}

	var ev BillingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	switch ev.Type {
	case "checkout.session.completed":
		err = s.store.SetSubscription(r.Context(), ev.Email, repo.SubscriptionActive, ev.CustomerID)
	case "subscription.cancelled":
		err = s.store.SetSubscription(r.Context(), ev.Email, repo.SubscriptionInactive, ev.CustomerID)
	default:
		// eventos desconhecidos são confirmados sem efeito
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored"})
		return
	}

	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.log.Error("billing webhook", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	billingEventsTotal.WithLabelValues(ev.Type).Inc()

	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
