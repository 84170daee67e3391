package events

// Evento publicado no tópico "user_registered" após cadastro bem sucedido.
// O notifier-worker envia o e-mail de boas-vindas.
type UserRegistered struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
