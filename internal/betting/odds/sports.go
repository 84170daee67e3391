package odds

// Esportes suportados pelo dashboard: chave do provedor -> título e grupo.
var SupportedSports = map[string]struct {
	Title string
	Group string
}{
	"americanfootball_nfl":      {"NFL", "American Football"},
	"americanfootball_ncaaf":    {"NCAA Football", "American Football"},
	"basketball_nba":            {"NBA", "Basketball"},
	"basketball_ncaab":          {"NCAA Basketball", "Basketball"},
	"basketball_wnba":           {"WNBA", "Basketball"},
	"baseball_mlb":              {"MLB", "Baseball"},
	"icehockey_nhl":             {"NHL", "Ice Hockey"},
	"mma_mixed_martial_arts":    {"UFC", "MMA"},
	"soccer_epl":                {"EPL", "Soccer"},
	"soccer_usa_mls":            {"MLS", "Soccer"},
	"soccer_germany_bundesliga": {"Bundesliga", "Soccer"},
	"soccer_uefa_champs_league": {"UEFA Champions League", "Soccer"},
}

// DefaultMarkets é o conjunto de mercados consultado quando o cliente não
// especifica (mesmos três tipos aceitos em apostas).
const DefaultMarkets = "h2h,spreads,totals"

// IsSupported valida a chave de esporte contra o registro.
func IsSupported(sportKey string) bool {
	_, ok := SupportedSports[sportKey]
	return ok
}
