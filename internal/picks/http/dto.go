package http

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	Token   string `json:"token"`
}

type MeResponse struct {
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	SubscriptionStatus string `json:"subscription_status"`
	BillingCustomerID  string `json:"billing_customer_id,omitempty"`
}

// PickRequest cobre criação e atualização. Notify controla o broadcast:
// default true na criação, default false na atualização.
type PickRequest struct {
	Sport    string `json:"sport"`
	Time     string `json:"time"`
	Matchup  string `json:"matchup"`
	Pick     string `json:"pick"`
	Odds     string `json:"odds"`
	Units    string `json:"units"`
	BetType  string `json:"bet_type"`
	Analysis string `json:"analysis"`
	Result   string `json:"result,omitempty"`
	Notify   *bool  `json:"notify,omitempty"`
}

// UserPatchRequest é o patch parcial do admin sobre um usuário.
type UserPatchRequest struct {
	Role               *string `json:"role,omitempty"`
	SubscriptionStatus *string `json:"subscription_status,omitempty"`
}

// BillingEvent é o payload do webhook do provedor de billing (caixa-preta).
type BillingEvent struct {
	Type       string `json:"type"` // checkout.session.completed | subscription.cancelled
	Email      string `json:"email"`
	CustomerID string `json:"customer_id,omitempty"`
}
