// Package lichess загружает экспорт партий и публичные профили с lichess.org.
package lichess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Dosada05/chess-league/logger"
)

const DefaultBaseURL = "https://lichess.org"

var ErrGameNotFound = errors.New("lichess game not found")

// GameSource отдаёт сырой JSON экспорта партии по её ID.
type GameSource interface {
	GetGame(ctx context.Context, id string) ([]byte, error)
}

type Perf struct {
	Rating int `json:"rating"`
	Games  int `json:"games"`
}

// User - публичный профиль lichess.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Perfs    Perfs  `json:"perfs"`
}

type Perfs struct {
	Rapid *Perf `json:"rapid,omitempty"`
	Blitz *Perf `json:"blitz,omitempty"`
}

// Client - HTTP клиент lichess API с ограничением частоты запросов.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient создаёт клиент, который делает не больше requestsPerMinute запросов в минуту.
func NewClient(baseURL, apiToken string, requestsPerMinute int, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger.OrNop(log),
	}
}

// GetGame возвращает JSON экспорт одной партии.
func (c *Client) GetGame(ctx context.Context, id string) ([]byte, error) {
	path := "/game/export/" + url.PathEscape(id)
	params := url.Values{}
	params.Set("moves", "true")
	params.Set("clocks", "false")
	params.Set("evals", "false")

	body, status, err := c.do(ctx, http.MethodGet, path+"?"+params.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("lichess %s returned %d: %s", path, status, truncate(body, 200))
	}
	return body, nil
}

// GetUsers загружает публичные профили, до 300 id за один запрос.
func (c *Client) GetUsers(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	body, status, err := c.do(ctx, http.MethodPost, "/api/users", strings.NewReader(strings.Join(ids, ",")), "text/plain")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("lichess /api/users returned %d: %s", status, truncate(body, 200))
	}

	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}
	return users, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload io.Reader, contentType string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	c.logger.Debug("lichess request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return buf.Bytes(), resp.StatusCode, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
