package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

// waitSubscribers espera a inscrição chegar ao hub (o registro acontece na
// goroutine de leitura do servidor, depois do WriteJSON do cliente retornar).
func waitSubscribers(t *testing.T, h *Hub, sport string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		got := len(h.subs[sport])
		h.mu.RUnlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("inscrição em %s não registrada", sport)
}

func TestHubBroadcastDeliversToSubscriber(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", SportKey: "basketball_nba"}))
	waitSubscribers(t, hub, "basketball_nba", 1)

	hub.Broadcast(LineUpdate{SportKey: "basketball_nba", Payload: map[string]string{"game": "LAL@BOS"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var upd LineUpdate
	require.NoError(t, conn.ReadJSON(&upd))
	require.Equal(t, "basketball_nba", upd.SportKey)
}

func TestHubBroadcastIgnoresOtherSports(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", SportKey: "baseball_mlb"}))
	waitSubscribers(t, hub, "baseball_mlb", 1)

	hub.Broadcast(LineUpdate{SportKey: "icehockey_nhl", Payload: "x"})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err) // nada deve chegar
}

// Broadcast concorrente com ping do cliente e com outro cliente entrando e
// saindo da assinatura: escritas no mesmo conn precisam ser serializadas.
func TestHubConcurrentBroadcastAndPing(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", SportKey: "basketball_nba"}))
	waitSubscribers(t, hub, "basketball_nba", 1)

	// Drena tudo que o servidor mandar (pongs e broadcasts) pra escrita não travar
	pongs := make(chan struct{}, 256)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m map[string]json.RawMessage
			if json.Unmarshal(raw, &m) == nil {
				if _, ok := m["type"]; ok {
					pongs <- struct{}{}
				}
			}
		}
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.Broadcast(LineUpdate{SportKey: "basketball_nba", Payload: i})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		other, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return
		}
		if resp != nil {
			resp.Body.Close()
		}
		defer other.Close()
		for i := 0; i < 50; i++ {
			_ = other.WriteJSON(ClientMsg{Type: "subscribe", SportKey: "basketball_nba"})
			_ = other.WriteJSON(ClientMsg{Type: "unsubscribe", SportKey: "basketball_nba"})
		}
	}()

	const pings = 50
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < pings; i++ {
			if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
				return
			}
		}
	}()

	wg.Wait()

	// Todos os pings devem ter sido respondidos, sem corrida nem pânico
	deadline := time.After(2 * time.Second)
	for i := 0; i < pings; i++ {
		select {
		case <-pongs:
		case <-deadline:
			t.Fatalf("apenas %d de %d pongs recebidos", i, pings)
		}
	}
}
