package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vivapicks/picks-platform/internal/betting/odds"
	"github.com/vivapicks/picks-platform/internal/betting/payout"
	"github.com/vivapicks/picks-platform/internal/betting/repo"
	"github.com/vivapicks/picks-platform/internal/betting/ws"
	"github.com/vivapicks/picks-platform/pkg/contracts/events"
)

// Store define as operações de persistência usadas pelos handlers.
// Implementado por repo.Postgres (produção) e repo.Memory (demo/testes).
type Store interface {
	GetWallet(ctx context.Context, userID string) (repo.Wallet, error)
	PlaceBet(ctx context.Context, b repo.Bet) (repo.Bet, repo.Wallet, error)
	SettleBet(ctx context.Context, userID, betID, result string) (repo.Bet, repo.Wallet, error)
	CancelBet(ctx context.Context, userID, betID string) (repo.Bet, repo.Wallet, error)
	ListBets(ctx context.Context, userID string, statuses ...string) ([]repo.Bet, error)
	Stats(ctx context.Context, userID string) (repo.Stats, repo.Wallet, error)
	SaveLine(ctx context.Context, s repo.SavedLine) (repo.SavedLine, error)
	ListSavedLines(ctx context.Context, userID string) ([]repo.SavedLine, error)
	DeleteSavedLine(ctx context.Context, userID, id string) error
}

// Provider é o contrato mínimo do provedor externo de odds.
type Provider interface {
	FetchOdds(ctx context.Context, sportKey, markets string) ([]odds.Game, error)
	FetchSports(ctx context.Context) ([]odds.Sport, error)
}

// Server expõe a API REST do betting-service.
type Server struct {
	log      *zap.Logger
	store    Store
	provider Provider
	cache    odds.Cache
	hub      *ws.Hub
	publ     interface {
		PublishBetSettled(context.Context, events.BetSettled) error
	}
	lines interface {
		PublishLineUpdate(context.Context, ws.LineUpdate) error
	}
}

func NewServer(
	log *zap.Logger,
	store Store,
	provider Provider,
	cache odds.Cache,
	hub *ws.Hub,
	publ interface {
		PublishBetSettled(context.Context, events.BetSettled) error
	},
	lines interface {
		PublishLineUpdate(context.Context, ws.LineUpdate) error
	},
) *Server {
	return &Server{log: log, store: store, provider: provider, cache: cache, hub: hub, publ: publ, lines: lines}
}

// Router retorna o roteador HTTP com os endpoints da API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/wallet", s.getWallet)
	r.Get("/stats", s.getStats)

	r.Get("/sports", s.listSports)
	r.Get("/sports/available", s.listAvailableSports)

	r.Get("/odds/{sportKey}", s.getOdds)
	r.Post("/odds/refresh/{sportKey}", s.refreshOdds)

	r.Get("/bets", s.listBets)
	r.Get("/bets/active", s.listActiveBets)
	r.Get("/bets/history", s.listBetHistory)
	r.Post("/bets", s.placeBet)
	r.Delete("/bets/{id}", s.cancelBet)
	r.Patch("/bets/{id}/settle", s.settleBet)

	r.Post("/saved-lines", s.saveLine)
	r.Get("/saved-lines", s.listSavedLines)
	r.Delete("/saved-lines/{id}", s.deleteSavedLine)

	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}
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

// userID resolve o usuário da requisição. Sem autenticação no modo demo:
// query userId, header X-User-Id ou a carteira singleton "demo".
func userID(r *http.Request) string {
	if v := r.URL.Query().Get("userId"); v != "" {
		return v
	}
	if v := r.Header.Get("X-User-Id"); v != "" {
		return v
	}
	return "demo"
}

// storeError converte a taxonomia de erros do repo em resposta HTTP.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, repo.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "insufficient balance")
	case errors.Is(err, repo.ErrInvalidState):
		writeError(w, http.StatusConflict, "bet already settled or cancelled")
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// getWallet retorna (ou cria) a carteira do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.store.GetWallet(r.Context(), userID(r))
	if err != nil {
		s.log.Error("get wallet", zap.Error(err))
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// getStats retorna a projeção de estatísticas do usuário
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, wallet, err := s.store.Stats(r.Context(), userID(r))
	if err != nil {
		s.log.Error("stats", zap.Error(err))
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Wallet: wallet, Stats: stats})
}

// listSports retorna o registro de esportes suportados
func (s *Server) listSports(w http.ResponseWriter, _ *http.Request) {
	type sport struct {
		Key   string `json:"key"`
		Title string `json:"title"`
		Group string `json:"group"`
	}
	out := make([]sport, 0, len(odds.SupportedSports))
	for k, v := range odds.SupportedSports {
		out = append(out, sport{Key: k, Title: v.Title, Group: v.Group})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sports": out, "count": len(out)})
}

// listAvailableSports consulta os esportes disponíveis direto no provedor
func (s *Server) listAvailableSports(w http.ResponseWriter, r *http.Request) {
	sports, err := s.provider.FetchSports(r.Context())
	if err != nil {
		s.log.Warn("provider sports", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to load sports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sports": sports, "count": len(sports)})
}

// getOdds retorna as odds de um esporte, preferencialmente do cache.
// Miss vai ao provedor e grava no cache com o TTL configurado.
func (s *Server) getOdds(w http.ResponseWriter, r *http.Request) {
	sportKey := chi.URLParam(r, "sportKey")
	if !odds.IsSupported(sportKey) {
		writeError(w, http.StatusBadRequest, "sport not supported")
		return
	}
	markets := r.URL.Query().Get("markets")
	if markets == "" {
		markets = odds.DefaultMarkets
	}

	if games, ok, err := s.cache.Get(r.Context(), sportKey, markets); err == nil && ok {
		oddsCacheHitsTotal.Inc()
		writeJSON(w, http.StatusOK, map[string]any{"odds": games, "cached": true, "sport_key": sportKey})
		return
	}
	oddsCacheMissesTotal.Inc()

	games, err := s.provider.FetchOdds(r.Context(), sportKey, markets)
	if err != nil {
		oddsUpstreamErrorsTotal.Inc()
		s.log.Warn("provider odds", zap.String("sport", sportKey), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to load odds")
		return
	}
	if err := s.cache.Set(r.Context(), sportKey, markets, games); err != nil {
		s.log.Warn("odds cache set", zap.Error(err)) // não bloqueia a resposta
	}

	writeJSON(w, http.StatusOK, map[string]any{"odds": games, "cached": false, "sport_key": sportKey})
}

// refreshOdds força a busca no provedor, invalidando a entrada do cache,
// e faz broadcast das linhas novas via Pub/Sub para o hub WebSocket.
func (s *Server) refreshOdds(w http.ResponseWriter, r *http.Request) {
	sportKey := chi.URLParam(r, "sportKey")
	if !odds.IsSupported(sportKey) {
		writeError(w, http.StatusBadRequest, "sport not supported")
		return
	}
	markets := odds.DefaultMarkets

	if err := s.cache.Delete(r.Context(), sportKey, markets); err != nil {
		s.log.Warn("odds cache delete", zap.Error(err))
	}

	games, err := s.provider.FetchOdds(r.Context(), sportKey, markets)
	if err != nil {
		oddsUpstreamErrorsTotal.Inc()
		s.log.Warn("provider odds", zap.String("sport", sportKey), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to load odds")
		return
	}
	if err := s.cache.Set(r.Context(), sportKey, markets, games); err != nil {
		s.log.Warn("odds cache set", zap.Error(err))
	}

	if s.lines != nil {
		if err := s.lines.PublishLineUpdate(r.Context(), ws.LineUpdate{SportKey: sportKey, Payload: games}); err != nil {
			s.log.Warn("line update publish", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"odds": games, "refreshed": true, "sport_key": sportKey, "games_count": len(games),
	})
}

// placeBet valida o payload, calcula o payout potencial no servidor e
// delega a colocação atômica ao store.
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" {
		req.UserID = userID(r)
	}
	if req.EventID == "" || req.SportKey == "" || req.HomeTeam == "" || req.AwayTeam == "" || req.SelectedTeam == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	switch req.BetType {
	case "h2h", "spreads", "totals":
	default:
		writeError(w, http.StatusBadRequest, "invalid bet_type")
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	// odds zero é input inválido por definição; rejeita na borda da API
	if !payout.ValidOdds(req.Odds) {
		writeError(w, http.StatusBadRequest, "invalid odds")
		return
	}

	bet, wallet, err := s.store.PlaceBet(r.Context(), repo.Bet{
		UserID:               req.UserID,
		EventID:              req.EventID,
		SportKey:             req.SportKey,
		SportTitle:           req.SportTitle,
		HomeTeam:             req.HomeTeam,
		AwayTeam:             req.AwayTeam,
		SelectedTeam:         req.SelectedTeam,
		BetType:              req.BetType,
		Odds:                 req.Odds,
		Point:                req.Point,
		AmountCents:          req.AmountCents,
		PotentialPayoutCents: payout.Calc(req.AmountCents, req.Odds),
		CommenceTime:         req.CommenceTime,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	betsPlacedTotal.Inc()

	writeJSON(w, http.StatusCreated, PlaceBetResponse{
		Bet:             bet,
		NewBalanceCents: wallet.BalanceCents,
		Message:         "Bet placed successfully",
	})
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	var statuses []string
	if v := r.URL.Query().Get("status"); v != "" {
		statuses = strings.Split(v, ",")
	}
	bets, err := s.store.ListBets(r.Context(), userID(r), statuses...)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BetsResponse{Bets: bets, Count: len(bets)})
}

func (s *Server) listActiveBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.store.ListBets(r.Context(), userID(r), repo.StatusPending)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BetsResponse{Bets: bets, Count: len(bets)})
}

func (s *Server) listBetHistory(w http.ResponseWriter, r *http.Request) {
	bets, err := s.store.ListBets(r.Context(), userID(r), repo.StatusWon, repo.StatusLost)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BetsResponse{Bets: bets, Count: len(bets)})
}

// settleBet liquida a aposta como won|lost e publica o evento bet_settled.
func (s *Server) settleBet(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "id")
	result := r.URL.Query().Get("result")
	if result != repo.StatusWon && result != repo.StatusLost {
		writeError(w, http.StatusBadRequest, "result must be won or lost")
		return
	}

	bet, wallet, err := s.store.SettleBet(r.Context(), userID(r), betID, result)
	if err != nil {
		storeError(w, err)
		return
	}
	betsSettledTotal.WithLabelValues(result).Inc()

	if s.publ != nil {
		ev := events.BetSettled{
			BetID:        bet.ID,
			UserID:       bet.UserID,
			Result:       result,
			AmountCents:  bet.AmountCents,
			BalanceCents: wallet.BalanceCents,
			Ts:           time.Now().UTC(),
		}
		if result == repo.StatusWon {
			ev.PayoutCents = bet.PotentialPayoutCents
		}
		if err := s.publ.PublishBetSettled(r.Context(), ev); err != nil {
			s.log.Warn("bet_settled publish", zap.Error(err))
		}
	}

	resp := SettleBetResponse{Bet: bet, NewBalanceCents: wallet.BalanceCents}
	if result == repo.StatusWon {
		resp.PayoutCents = bet.PotentialPayoutCents
		resp.Message = "Bet won!"
	} else {
		resp.LostAmountCents = bet.AmountCents
		resp.Message = "Bet lost"
	}
	writeJSON(w, http.StatusOK, resp)
}

// cancelBet estorna uma aposta pending; a linha é mantida como cancelled.
func (s *Server) cancelBet(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "id")

	bet, wallet, err := s.store.CancelBet(r.Context(), userID(r), betID)
	if err != nil {
		storeError(w, err)
		return
	}
	betsCancelledTotal.Inc()

	writeJSON(w, http.StatusOK, CancelBetResponse{
		RefundCents:     bet.AmountCents,
		NewBalanceCents: wallet.BalanceCents,
		Message:         "Bet cancelled and refunded",
	})
}

func (s *Server) saveLine(w http.ResponseWriter, r *http.Request) {
	var req SaveLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Sport == "" || req.Data == nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	data, err := json.Marshal(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	name := req.Name
	if name == "" {
		name = "Snapshot"
	}

	line, err := s.store.SaveLine(r.Context(), repo.SavedLine{
		UserID: userID(r),
		Sport:  req.Sport,
		Name:   name,
		Data:   data,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (s *Server) listSavedLines(w http.ResponseWriter, r *http.Request) {
	lines, err := s.store.ListSavedLines(r.Context(), userID(r))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) deleteSavedLine(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSavedLine(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}
