package repo

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory é o store em memória do picks-service (modo demo e testes).
type Memory struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]User
	picks  map[int64]Pick
}

func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		users:  make(map[int64]User),
		picks:  make(map[int64]Pick),
	}
}

func (m *Memory) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Memory) CreateUser(_ context.Context, email, passwordHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return User{}, ErrDuplicateEmail
		}
	}
	u := User{
		ID:                 m.id(),
		Email:              email,
		PasswordHash:       passwordHash,
		Role:               RoleMember,
		SubscriptionStatus: SubscriptionInactive,
		CreatedAt:          time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *Memory) GetUserByID(_ context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, id int64, role, subscriptionStatus *string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if role == nil && subscriptionStatus == nil {
		return User{}, ErrNoFields
	}
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if role != nil {
		u.Role = *role
	}
	if subscriptionStatus != nil {
		u.SubscriptionStatus = *subscriptionStatus
	}
	m.users[id] = u
	return u, nil
}

func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) SetSubscription(_ context.Context, email, status, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, u := range m.users {
		if u.Email == email {
			u.SubscriptionStatus = status
			if customerID != "" {
				u.BillingCustomerID = customerID
			}
			m.users[id] = u
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListSubscriberEmails(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, u := range m.users {
		if u.SubscriptionStatus == SubscriptionActive {
			out = append(out, u.Email)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SeedAdmin espelha o upsert de bootstrap do Postgres.
func (m *Memory) SeedAdmin(_ context.Context, email, passwordHash string) error {
	if email == "" || passwordHash == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, u := range m.users {
		if u.Email == email {
			u.PasswordHash = passwordHash
			u.Role = RoleAdmin
			u.SubscriptionStatus = SubscriptionActive
			m.users[id] = u
			return nil
		}
	}
	m.users[m.nextID] = User{
		ID:                 m.nextID,
		Email:              email,
		PasswordHash:       passwordHash,
		Role:               RoleAdmin,
		SubscriptionStatus: SubscriptionActive,
		CreatedAt:          time.Now().UTC(),
	}
	m.nextID++
	return nil
}

func (m *Memory) CreatePick(_ context.Context, pk Pick) (Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk.ID = m.id()
	pk.Result = ""
	pk.CreatedAt = time.Now().UTC()
	m.picks[pk.ID] = pk
	return pk, nil
}

func (m *Memory) UpdatePick(_ context.Context, pk Pick) (Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.picks[pk.ID]
	if !ok {
		return Pick{}, ErrNotFound
	}
	pk.CreatedAt = old.CreatedAt
	m.picks[pk.ID] = pk
	return pk, nil
}

func (m *Memory) DeletePick(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.picks[id]; !ok {
		return ErrNotFound
	}
	delete(m.picks, id)
	return nil
}

func (m *Memory) ListPicks(_ context.Context) ([]Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Pick
	for _, pk := range m.picks {
		out = append(out, pk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
