package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vivapicks/picks-platform/internal/betting/odds"
	"github.com/vivapicks/picks-platform/internal/betting/repo"
	"github.com/vivapicks/picks-platform/internal/betting/ws"
	"github.com/vivapicks/picks-platform/pkg/contracts/events"
)

type stubProvider struct {
	games []odds.Game
	err   error
	calls int
}

func (p *stubProvider) FetchOdds(_ context.Context, _, _ string) ([]odds.Game, error) {
	p.calls++
	return p.games, p.err
}

func (p *stubProvider) FetchSports(_ context.Context) ([]odds.Sport, error) {
	return []odds.Sport{{Key: "basketball_nba", Title: "NBA", Active: true}}, p.err
}

type stubPublisher struct {
	settled []events.BetSettled
}

func (p *stubPublisher) PublishBetSettled(_ context.Context, ev events.BetSettled) error {
	p.settled = append(p.settled, ev)
	return nil
}

type stubLines struct {
	updates []ws.LineUpdate
}

func (l *stubLines) PublishLineUpdate(_ context.Context, u ws.LineUpdate) error {
	l.updates = append(l.updates, u)
	return nil
}

func newTestServer(t *testing.T, provider *stubProvider) (*Server, *stubPublisher, *stubLines) {
	t.Helper()
	if provider == nil {
		provider = &stubProvider{}
	}
	publ := &stubPublisher{}
	lines := &stubLines{}
	s := NewServer(zap.NewNop(), repo.NewMemory(), provider, odds.NewMemoryCache(time.Minute), nil, publ, lines)
	return s, publ, lines
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func placeBody(amountCents int64, oddsVal int) PlaceBetRequest {
	return PlaceBetRequest{
		EventID:      "evt-1",
		SportKey:     "basketball_nba",
		HomeTeam:     "Lakers",
		AwayTeam:     "Celtics",
		SelectedTeam: "Lakers",
		BetType:      "h2h",
		Odds:         oddsVal,
		AmountCents:  amountCents,
	}
}

func TestPlaceBet(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	// $100 em -110: payout potencial calculado no servidor, não no cliente
	rec := doJSON(t, r, http.MethodPost, "/bets", placeBody(10000, -110))
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[PlaceBetResponse](t, rec)
	assert.Equal(t, repo.StatusPending, resp.Bet.Status)
	assert.Equal(t, int64(19091), resp.Bet.PotentialPayoutCents)
	assert.Equal(t, int64(90000), resp.NewBalanceCents)
	assert.NotEmpty(t, resp.Bet.ID)
}

func TestPlaceBetValidation(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	tests := []struct {
		name string
		mut  func(*PlaceBetRequest)
	}{
		{"zero amount", func(b *PlaceBetRequest) { b.AmountCents = 0 }},
		{"negative amount", func(b *PlaceBetRequest) { b.AmountCents = -500 }},
		{"zero odds", func(b *PlaceBetRequest) { b.Odds = 0 }},
		{"odds out of range", func(b *PlaceBetRequest) { b.Odds = 20000 }},
		{"bad bet type", func(b *PlaceBetRequest) { b.BetType = "parlay" }},
		{"missing team", func(b *PlaceBetRequest) { b.SelectedTeam = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := placeBody(10000, -110)
			tt.mut(&body)
			rec := doJSON(t, r, http.MethodPost, "/bets", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPlaceBetInsufficientFunds(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	rec := doJSON(t, r, http.MethodPost, "/bets", placeBody(100_001, 150))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// saldo intacto após a recusa
	wallet := decode[repo.Wallet](t, doJSON(t, r, http.MethodGet, "/wallet", nil))
	assert.Equal(t, int64(100_000), wallet.BalanceCents)
}

func TestSettleBetWon(t *testing.T) {
	s, publ, _ := newTestServer(t, nil)
	r := s.Router()

	placed := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(10000, -110)))

	rec := doJSON(t, r, http.MethodPatch, "/bets/"+placed.Bet.ID+"/settle?result=won", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SettleBetResponse](t, rec)
	assert.Equal(t, repo.StatusWon, resp.Bet.Status)
	assert.Equal(t, int64(19091), resp.PayoutCents)
	assert.Equal(t, int64(109091), resp.NewBalanceCents) // $1000 - $100 + $190.91

	require.Len(t, publ.settled, 1)
	assert.Equal(t, placed.Bet.ID, publ.settled[0].BetID)
	assert.Equal(t, repo.StatusWon, publ.settled[0].Result)
	assert.Equal(t, int64(19091), publ.settled[0].PayoutCents)
}

func TestSettleBetLost(t *testing.T) {
	s, publ, _ := newTestServer(t, nil)
	r := s.Router()

	placed := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(10000, -110)))

	rec := doJSON(t, r, http.MethodPatch, "/bets/"+placed.Bet.ID+"/settle?result=lost", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SettleBetResponse](t, rec)
	assert.Equal(t, int64(10000), resp.LostAmountCents)
	assert.Equal(t, int64(90000), resp.NewBalanceCents)

	require.Len(t, publ.settled, 1)
	assert.Zero(t, publ.settled[0].PayoutCents)
}

func TestSettleBetBadResult(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	placed := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(10000, -110)))

	rec := doJSON(t, r, http.MethodPatch, "/bets/"+placed.Bet.ID+"/settle?result=push", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettleBetTwiceConflicts(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	placed := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(10000, -110)))

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, "/bets/"+placed.Bet.ID+"/settle?result=won", nil).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, r, http.MethodPatch, "/bets/"+placed.Bet.ID+"/settle?result=lost", nil).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, r, http.MethodDelete, "/bets/"+placed.Bet.ID, nil).Code)
}

func TestSettleUnknownBet(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	rec := doJSON(t, r, http.MethodPatch, "/bets/nope/settle?result=won", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelBetRefunds(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	placed := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(25000, 150)))

	rec := doJSON(t, r, http.MethodDelete, "/bets/"+placed.Bet.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[CancelBetResponse](t, rec)
	assert.Equal(t, int64(25000), resp.RefundCents)
	assert.Equal(t, int64(100_000), resp.NewBalanceCents)

	// a linha cancelada permanece visível na listagem geral
	all := decode[BetsResponse](t, doJSON(t, r, http.MethodGet, "/bets", nil))
	require.Equal(t, 1, all.Count)
	assert.Equal(t, repo.StatusCancelled, all.Bets[0].Status)
}

func TestBetListFilters(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	a := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(1000, 150)))
	decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(2000, 150)))
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, "/bets/"+a.Bet.ID+"/settle?result=won", nil).Code)

	active := decode[BetsResponse](t, doJSON(t, r, http.MethodGet, "/bets/active", nil))
	assert.Equal(t, 1, active.Count)

	history := decode[BetsResponse](t, doJSON(t, r, http.MethodGet, "/bets/history", nil))
	require.Equal(t, 1, history.Count)
	assert.Equal(t, repo.StatusWon, history.Bets[0].Status)

	all := decode[BetsResponse](t, doJSON(t, r, http.MethodGet, "/bets", nil))
	assert.Equal(t, 2, all.Count)
}

func TestStatsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	a := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(10000, 100)))
	b := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(10000, 100)))
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, "/bets/"+a.Bet.ID+"/settle?result=won", nil).Code)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, "/bets/"+b.Bet.ID+"/settle?result=lost", nil).Code)

	stats := decode[StatsResponse](t, doJSON(t, r, http.MethodGet, "/stats", nil))
	assert.Equal(t, 2, stats.TotalBets)
	assert.Equal(t, 1, stats.WonBets)
	assert.Equal(t, 1, stats.LostBets)
	assert.InDelta(t, 50.0, stats.WinRate, 0.001)
	// won credita o payout inteiro (20000), lost debita a stake (10000)
	assert.Equal(t, int64(10000), stats.NetProfitCents)
}

func TestStatsEmptyUser(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	stats := decode[StatsResponse](t, doJSON(t, r, http.MethodGet, "/stats", nil))
	assert.Zero(t, stats.TotalBets)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.ROI)
	assert.Equal(t, int64(100_000), stats.Wallet.BalanceCents)
}

func TestGetOddsCaching(t *testing.T) {
	provider := &stubProvider{games: []odds.Game{{ID: "g1", SportKey: "basketball_nba", HomeTeam: "Lakers", AwayTeam: "Celtics"}}}
	s, _, _ := newTestServer(t, provider)
	r := s.Router()

	first := decode[map[string]any](t, doJSON(t, r, http.MethodGet, "/odds/basketball_nba", nil))
	assert.Equal(t, false, first["cached"])
	assert.Equal(t, 1, provider.calls)

	second := decode[map[string]any](t, doJSON(t, r, http.MethodGet, "/odds/basketball_nba", nil))
	assert.Equal(t, true, second["cached"])
	assert.Equal(t, 1, provider.calls) // segunda consulta não vai ao provedor
}

func TestGetOddsUnsupportedSport(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	rec := doJSON(t, s.Router(), http.MethodGet, "/odds/cricket_ipl", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOddsProviderDown(t *testing.T) {
	provider := &stubProvider{err: errors.New("timeout")}
	s, _, _ := newTestServer(t, provider)

	rec := doJSON(t, s.Router(), http.MethodGet, "/odds/basketball_nba", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRefreshOddsBypassesCacheAndBroadcasts(t *testing.T) {
	provider := &stubProvider{games: []odds.Game{{ID: "g1", SportKey: "basketball_nba"}}}
	s, _, lines := newTestServer(t, provider)
	r := s.Router()

	decode[map[string]any](t, doJSON(t, r, http.MethodGet, "/odds/basketball_nba", nil))
	require.Equal(t, 1, provider.calls)

	rec := doJSON(t, r, http.MethodPost, "/odds/refresh/basketball_nba", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, provider.calls) // refresh ignora o cache

	require.Len(t, lines.updates, 1)
	assert.Equal(t, "basketball_nba", lines.updates[0].SportKey)
}

func TestSavedLinesLifecycle(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	rec := doJSON(t, r, http.MethodPost, "/saved-lines", SaveLineRequest{
		Sport: "basketball_nba",
		Name:  "Friday slate",
		Data:  map[string]any{"games": []string{"LAL@BOS"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	line := decode[repo.SavedLine](t, rec)
	assert.NotEmpty(t, line.ID)

	list := decode[[]repo.SavedLine](t, doJSON(t, r, http.MethodGet, "/saved-lines", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Friday slate", list[0].Name)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/saved-lines/"+line.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodDelete, "/saved-lines/"+line.ID, nil).Code)
}

func TestUserIsolation(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	r := s.Router()

	placed := decode[PlaceBetResponse](t, doJSON(t, r, http.MethodPost, "/bets", placeBody(10000, 150)))

	// outro usuário não enxerga nem liquida a aposta
	rec := doJSON(t, r, http.MethodPatch, "/bets/"+placed.Bet.ID+"/settle?result=won&userId=other", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	other := decode[BetsResponse](t, doJSON(t, r, http.MethodGet, "/bets?userId=other", nil))
	assert.Zero(t, other.Count)
}

func TestListSports(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	resp := decode[map[string]any](t, doJSON(t, s.Router(), http.MethodGet, "/sports", nil))
	assert.Equal(t, float64(len(odds.SupportedSports)), resp["count"])
}
