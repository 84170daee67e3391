package events

// Evento publicado nos tópicos "pick_published" e "pick_updated".
// Consumido pelo notifier-worker para broadcast de e-mail aos assinantes.
type PickPublished struct {
	PickID   int64  `json:"pick_id"`
	Sport    string `json:"sport"`
	Time     string `json:"time"`
	Matchup  string `json:"matchup"`
	Pick     string `json:"pick"`
	Odds     string `json:"odds"`
	Units    string `json:"units"`
	BetType  string `json:"bet_type"`
	Analysis string `json:"analysis"`
	Result   string `json:"result,omitempty"` // vazio | WIN | LOSS | PUSH
	Notify   bool   `json:"notify"`           // se false, notifier ignora
	TsUnixMs int64  `json:"ts_unix_ms"`
}
