package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/handlers"
	"github.com/Dosada05/chess-league/lichess"
	"github.com/Dosada05/chess-league/middleware"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/services"
)

type stubSource map[string][]byte

func (s stubSource) GetGame(ctx context.Context, id string) ([]byte, error) {
	raw, ok := s[id]
	if !ok {
		return nil, lichess.ErrGameNotFound
	}
	return raw, nil
}

func exportJSON(id, white, black, winner string) json.RawMessage {
	createdAt := time.Date(2021, 3, 2, 18, 0, 0, 0, time.UTC).UnixMilli()
	return json.RawMessage(fmt.Sprintf(`{"id":%q,"createdAt":%d,"status":"mate","winner":%q,"moves":"e4 e5",`+
		`"players":{"white":{"user":{"id":%q,"name":%q}},"black":{"user":{"id":%q,"name":%q}}},`+
		`"clock":{"initial":600,"increment":5}}`, id, createdAt, winner, white, white, black, black))
}

type testServer struct {
	*httptest.Server
	adminToken string
}

func newTestServer(t *testing.T, source lichess.GameSource) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := repositories.NewMemoryStore()
	hub := brackets.NewHub(nil)
	go hub.Run(ctx)

	league := services.NewLeagueService(store, hub, nil, nil)
	events := services.NewEventService(store, nil, hub, nil)
	members := services.NewMemberService(store, nil, nil)

	auth := middleware.NewAuthenticator("test-secret", nil)
	token, err := auth.IssueToken("arbiter", middleware.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		League:    handlers.NewLeagueHandler(league, source),
		Event:     handlers.NewEventHandler(events),
		Member:    handlers.NewMemberHandler(members),
		WebSocket: handlers.NewWebSocketHandler(hub, events, []string{"*"}, nil),
	}, auth, []string{"*"}, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, adminToken: token}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func seedViaAPI(t *testing.T, s *testServer) {
	t.Helper()
	for _, id := range []string{"alice", "bob"} {
		if code, body := s.do(t, http.MethodPost, "/members", s.adminToken, map[string]string{"id": id}); code != http.StatusCreated {
			t.Fatalf("create member %s: %d %s", id, code, body["error"])
		}
	}
	code, body := s.do(t, http.MethodPost, "/events", s.adminToken, map[string]interface{}{
		"name":               "Spring",
		"start_date":         "2021-03-01",
		"n_rounds":           1,
		"rounds_duration":    []int{7},
		"rounds_time_format": []map[string]int{{"base": 600, "increment": 5}},
		"roster":             []string{"alice", "bob"},
	})
	if code != http.StatusCreated {
		t.Fatalf("create event: %d %s", code, body["error"])
	}
	if code, body := s.do(t, http.MethodPost, "/events/1/fixtures", s.adminToken, nil); code != http.StatusCreated {
		t.Fatalf("generate fixtures: %d %s", code, body["error"])
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, stubSource{})
	code, body := s.do(t, http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || string(body["status"]) != `"ok"` {
		t.Fatalf("health: %d %v", code, body)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	s := newTestServer(t, stubSource{})
	code, body := s.do(t, http.MethodGet, "/openapi.json", "", nil)
	if code != http.StatusOK || string(body["openapi"]) != `"3.0.3"` {
		t.Fatalf("openapi: %d %v", code, body["openapi"])
	}
	resp, err := http.Get(s.URL + "/docs/index.html")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("docs UI = %d, want 200", resp.StatusCode)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, stubSource{})
	if code, _ := s.do(t, http.MethodPost, "/members", "", map[string]string{"id": "x"}); code != http.StatusUnauthorized {
		t.Errorf("POST /members without token = %d, want 401", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/members", "", nil); code != http.StatusOK {
		t.Errorf("GET /members must be public, got %d", code)
	}
}

func TestSubmitResultFlow(t *testing.T) {
	s := newTestServer(t, stubSource{"g2": exportJSON("g2", "bob", "alice", "")})
	seedViaAPI(t, s)

	if code, _ := s.do(t, http.MethodPost, "/events/1/fixtures", s.adminToken, nil); code != http.StatusConflict {
		t.Errorf("second generation = %d, want 409", code)
	}

	code, body := s.do(t, http.MethodPost, "/fixtures/1/result", "", map[string]interface{}{
		"game": exportJSON("g1", "Alice", "bob", "white"),
	})
	if code != http.StatusOK {
		t.Fatalf("submit: %d %s", code, body["error"])
	}
	var report struct {
		Accepted bool `json:"accepted"`
	}
	decode(t, body["validation"], &report)
	if !report.Accepted {
		t.Fatalf("expected acceptance: %s", body["validation"])
	}
	var standings []struct {
		MemberID string `json:"member_id"`
		Rating   int    `json:"rating"`
	}
	decode(t, body["standings"], &standings)
	if len(standings) != 2 || standings[0].MemberID != "alice" || standings[0].Rating != 1016 {
		t.Errorf("unexpected standings: %s", body["standings"])
	}
	var fixtures []struct {
		ID     int64   `json:"id"`
		GameID *string `json:"game_id"`
	}
	decode(t, body["fixtures"], &fixtures)
	if len(fixtures) != 2 || fixtures[0].GameID == nil || fixtures[1].GameID != nil {
		t.Errorf("unexpected fixtures: %s", body["fixtures"])
	}

	// Same game again: rejected, still 200.
	code, body = s.do(t, http.MethodPost, "/fixtures/1/result", "", map[string]interface{}{
		"game": exportJSON("g1", "alice", "bob", "white"),
	})
	decode(t, body["validation"], &report)
	if code != http.StatusOK || report.Accepted {
		t.Errorf("resubmission: %d accepted=%v", code, report.Accepted)
	}

	code, body = s.do(t, http.MethodPost, "/fixtures/2/result", "", map[string]string{"game_id": "g2"})
	decode(t, body["validation"], &report)
	if code != http.StatusOK || !report.Accepted {
		t.Errorf("submit by id: %d %s", code, body["validation"])
	}

	code, body = s.do(t, http.MethodGet, "/fixtures?event_id=1&open=true", "", nil)
	decode(t, body["fixtures"], &fixtures)
	if code != http.StatusOK || len(fixtures) != 0 {
		t.Errorf("open fixtures: %d %s", code, body["fixtures"])
	}
}

func TestSubmitResultErrors(t *testing.T) {
	s := newTestServer(t, stubSource{})
	seedViaAPI(t, s)

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"unknown fixture", "/fixtures/99/result", map[string]interface{}{"game": exportJSON("g1", "alice", "bob", "")}, http.StatusNotFound},
		{"bad fixture id", "/fixtures/abc/result", map[string]interface{}{"game": exportJSON("g1", "alice", "bob", "")}, http.StatusBadRequest},
		{"empty body", "/fixtures/1/result", map[string]interface{}{}, http.StatusBadRequest},
		{"both game and id", "/fixtures/1/result", map[string]interface{}{"game": exportJSON("g1", "alice", "bob", ""), "game_id": "g1"}, http.StatusBadRequest},
		{"malformed game", "/fixtures/1/result", map[string]interface{}{"game": map[string]string{"id": "g1"}}, http.StatusBadRequest},
		{"unknown external game", "/fixtures/1/result", map[string]string{"game_id": "nope"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := s.do(t, http.MethodPost, tt.path, "", tt.body); code != tt.want {
				t.Errorf("status = %d, want %d (%s)", code, tt.want, body["error"])
			}
		})
	}

	if code, _ := s.do(t, http.MethodGet, "/fixtures?round=zero", "", nil); code != http.StatusBadRequest {
		t.Errorf("invalid round filter = %d, want 400", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/events/7", "", nil); code != http.StatusNotFound {
		t.Errorf("unknown event = %d, want 404", code)
	}
}
