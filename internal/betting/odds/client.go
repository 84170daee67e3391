package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Contrato do provedor externo de odds (The Odds API v4). O core só precisa
// de price (odd inteira americana) e point (linha, nullable) por outcome.

type Outcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

type Market struct {
	Key      string    `json:"key"` // h2h | spreads | totals
	Outcomes []Outcome `json:"outcomes"`
}

type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

type Sport struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Group  string `json:"group"`
	Active bool   `json:"active"`
}

// Client consulta a The Odds API. Sem retry/backoff: falha do provedor
// vira erro e a camada HTTP responde "failed to load odds".
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchOdds busca as odds de um esporte. markets é uma lista separada por
// vírgula (ex: "h2h,spreads,totals"); sempre em formato americano.
func (c *Client) FetchOdds(ctx context.Context, sportKey, markets string) ([]Game, error) {
	q := url.Values{}
	q.Set("apiKey", c.APIKey)
	q.Set("regions", "us")
	q.Set("markets", markets)
	q.Set("oddsFormat", "american")

	u := fmt.Sprintf("%s/sports/%s/odds?%s", c.BaseURL, url.PathEscape(sportKey), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odds provider: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("odds provider rate limited")
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odds provider http %d", res.StatusCode)
	}

	var games []Game
	if err := json.NewDecoder(res.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("odds provider decode: %w", err)
	}
	return games, nil
}

// FetchSports lista os esportes disponíveis no provedor.
func (c *Client) FetchSports(ctx context.Context) ([]Sport, error) {
	u := fmt.Sprintf("%s/sports?apiKey=%s", c.BaseURL, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odds provider: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odds provider http %d", res.StatusCode)
	}

	var sports []Sport
	if err := json.NewDecoder(res.Body).Decode(&sports); err != nil {
		return nil, fmt.Errorf("odds provider decode: %w", err)
	}
	return sports, nil
}
