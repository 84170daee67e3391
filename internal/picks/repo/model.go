package repo

import (
	"errors"
	"time"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"

	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// Resultados possíveis da graduação de um pick. Vazio = ainda aberto.
const (
	ResultWin  = "WIN"
	ResultLoss = "LOSS"
	ResultPush = "PUSH"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNoFields       = errors.New("no fields to update")
)

// User é a conta do site editorial. PasswordHash nunca sai em JSON.
type User struct {
	ID                 int64     `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"`
	SubscriptionStatus string    `json:"subscription_status"`
	BillingCustomerID  string    `json:"billing_customer_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Pick é um palpite editorial publicado pelos handicappers.
// Odds e Units são texto livre ("-110", "2u") como no formulário do admin.
type Pick struct {
	ID        int64     `json:"id"`
	Sport     string    `json:"sport"`
	Time      string    `json:"time"`
	Matchup   string    `json:"matchup"`
	Pick      string    `json:"pick"`
	Odds      string    `json:"odds"`
	Units     string    `json:"units"`
	BetType   string    `json:"bet_type"`
	Analysis  string    `json:"analysis"`
	Result    string    `json:"result,omitempty"` // vazio | WIN | LOSS | PUSH
	CreatedAt time.Time `json:"created_at"`
}

// ValidResult aceita a graduação ou o esvaziamento (reabrir o pick).
func ValidResult(r string) bool {
	switch r {
	case "", ResultWin, ResultLoss, ResultPush:
		return true
	}
	return false
}
