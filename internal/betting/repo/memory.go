package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory é o store em memória do modo demo (STORE=memory) e dos testes.
// Um único mutex faz o papel da transação do Postgres: cada operação
// lê, valida a pré-condição e aplica o efeito sob o mesmo lock.
type Memory struct {
	mu      sync.Mutex
	wallets map[string]Wallet
	bets    map[string]Bet
	lines   map[string]SavedLine
}

func NewMemory() *Memory {
	return &Memory{
		wallets: make(map[string]Wallet),
		bets:    make(map[string]Bet),
		lines:   make(map[string]SavedLine),
	}
}

// walletLocked retorna a carteira do usuário, criando-a com saldo inicial.
// Chamador precisa estar com o mutex.
func (m *Memory) walletLocked(userID string) Wallet {
	w, ok := m.wallets[userID]
	if !ok {
		w = Wallet{UserID: userID, BalanceCents: initialBalanceCents, UpdatedAt: time.Now().UTC()}
		m.wallets[userID] = w
	}
	return w
}

func (m *Memory) GetWallet(_ context.Context, userID string) (Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.walletLocked(userID), nil
}

func (m *Memory) PlaceBet(_ context.Context, b Bet) (Bet, Wallet, error) {
	if b.AmountCents <= 0 {
		return Bet{}, Wallet{}, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.walletLocked(b.UserID)
	if b.AmountCents > w.BalanceCents {
		return Bet{}, Wallet{}, ErrInsufficientFunds
	}

	b.ID = uuid.NewString()
	b.Status = StatusPending
	b.CreatedAt = time.Now().UTC()
	m.bets[b.ID] = b

	w.BalanceCents -= b.AmountCents
	w.TotalWageredCents += b.AmountCents
	w.UpdatedAt = time.Now().UTC()
	m.wallets[b.UserID] = w

	return b, w, nil
}

func (m *Memory) SettleBet(_ context.Context, userID, betID, result string) (Bet, Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[betID]
	if !ok || b.UserID != userID {
		return Bet{}, Wallet{}, ErrNotFound
	}
	if b.Status != StatusPending {
		return Bet{}, Wallet{}, ErrInvalidState
	}

	w := m.walletLocked(userID)
	switch result {
	case StatusWon:
		w.BalanceCents += b.PotentialPayoutCents
		w.TotalWonCents += b.PotentialPayoutCents
	case StatusLost:
		w.TotalLostCents += b.AmountCents
	default:
		return Bet{}, Wallet{}, ErrInvalidState
	}

	b.Status = result
	w.UpdatedAt = time.Now().UTC()
	m.bets[betID] = b
	m.wallets[userID] = w

	return b, w, nil
}

func (m *Memory) CancelBet(_ context.Context, userID, betID string) (Bet, Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[betID]
	if !ok || b.UserID != userID {
		return Bet{}, Wallet{}, ErrNotFound
	}
	if b.Status != StatusPending {
		return Bet{}, Wallet{}, ErrInvalidState
	}

	w := m.walletLocked(userID)
	w.BalanceCents += b.AmountCents
	w.TotalWageredCents -= b.AmountCents
	w.UpdatedAt = time.Now().UTC()

	b.Status = StatusCancelled
	m.bets[betID] = b
	m.wallets[userID] = w

	return b, w, nil
}

func (m *Memory) ListBets(_ context.Context, userID string, statuses ...string) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	var out []Bet
	for _, b := range m.bets {
		if b.UserID != userID {
			continue
		}
		if len(want) > 0 && !want[b.Status] {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > 100 {
		out = out[:100]
	}
	return out, nil
}

func (m *Memory) Stats(_ context.Context, userID string) (Stats, Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.walletLocked(userID)
	var total, pending, won, lost int
	for _, b := range m.bets {
		if b.UserID != userID {
			continue
		}
		total++
		switch b.Status {
		case StatusPending:
			pending++
		case StatusWon:
			won++
		case StatusLost:
			lost++
		}
	}
	return computeStats(w, total, pending, won, lost), w, nil
}

func (m *Memory) SaveLine(_ context.Context, s SavedLine) (SavedLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	m.lines[s.ID] = s
	return s, nil
}

func (m *Memory) ListSavedLines(_ context.Context, userID string) ([]SavedLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []SavedLine
	for _, s := range m.lines {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteSavedLine(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lines[id]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	delete(m.lines, id)
	return nil
}
