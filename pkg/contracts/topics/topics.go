package topics

const (
	// Picks editoriais
	PickPublished = "pick_published"
	PickUpdated   = "pick_updated"

	// Cadastro de usuários (e-mail de boas-vindas)
	UserRegistered = "user_registered"

	// Apostas (paper wagering)
	BetSettled = "bet_settled"

	// DLQ do notifier
	NotifierDLQ = "notifier_dlq"
)
