package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// SportKey: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type     string `json:"type"`     // subscribe | unsubscribe | ping
	SportKey string `json:"sportKey"` // requerido em subscribe/unsubscribe
}

// LineUpdate representa um refresh de linhas enviado aos clientes inscritos
// no esporte correspondente.
type LineUpdate struct {
	SportKey string      `json:"sportKey"`
	Payload  interface{} `json:"payload"`
}
