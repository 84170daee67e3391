package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/vivapicks/picks-platform/internal/shared/config"
	"github.com/vivapicks/picks-platform/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = os.Setenv("SERVICE_NAME", "api-gateway")
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	betting := rp(getenv("BETTING_URL", "http://localhost:8082"))
	picks := rp(getenv("PICKS_URL", "http://localhost:8083"))

	mux := http.NewServeMux()

	// betting-service: carteira, odds, apostas, stats, snapshots, websocket
	for _, p := range []string{"/api/wallet", "/api/odds", "/api/bets", "/api/stats", "/api/sports", "/api/saved-lines", "/api/ws"} {
		mux.Handle(p, http.StripPrefix("/api", betting))
		mux.Handle(p+"/", http.StripPrefix("/api", betting))
	}

	// picks-service: auth, picks editoriais, admin, billing
	for _, p := range []string{"/api/auth", "/api/picks", "/api/admin", "/api/billing", "/api/ping"} {
		mux.Handle(p, http.StripPrefix("/api", picks))
		mux.Handle(p+"/", http.StripPrefix("/api", picks))
	}

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
