package config

import (
	"errors"
	"testing"
	"time"
)

const sampleLeague = `
members:
  - id: Alice
    name: Alice A.
  - id: bob
    rating: 1100
event:
  name: Season 1
  start_date: 2021-02-01
  active: true
  rounds:
    - duration_days: 7
      time_control: {base: 600, increment: 0}
    - duration_days: 14
      time_control: {base: 300, increment: 3}
history:
  - {round: 1, white: ALICE, black: bob, game_id: q7ZvsdUF}
`

func TestParseLeagueFile(t *testing.T) {
	lf, err := ParseLeagueFile([]byte(sampleLeague))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(lf.Members) != 2 || lf.Members[0].ID != "alice" {
		t.Fatalf("members = %+v", lf.Members)
	}
	if lf.Members[0].Rating != 1000 || lf.Members[1].Rating != 1100 {
		t.Errorf("ratings = %d, %d", lf.Members[0].Rating, lf.Members[1].Rating)
	}
	if lf.Members[1].Name != "bob" {
		t.Errorf("default name = %q", lf.Members[1].Name)
	}
	if len(lf.Event.Roster) != 2 {
		t.Errorf("roster defaults to all members, got %v", lf.Event.Roster)
	}
	if lf.History[0].White != "alice" {
		t.Errorf("history ids not normalized: %+v", lf.History[0])
	}

	event, err := lf.Event.ToEvent()
	if err != nil {
		t.Fatalf("to event: %v", err)
	}
	if event.NRounds != 2 || event.RoundsDuration[1] != 14 || event.RoundsTimeFormat[1].Increment != 3 {
		t.Errorf("event = %+v", event)
	}
	if !event.StartDate.Equal(time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start date = %s", event.StartDate)
	}
	if err := event.Validate(); err != nil {
		t.Errorf("event invalid: %v", err)
	}
}

func TestParseLeagueFileErrors(t *testing.T) {
	cases := map[string]string{
		"unknown roster":   "members: [{id: a}]\nevent: {name: x, roster: [b]}\n",
		"duplicate member": "members: [{id: a}, {id: A}]\n",
		"bad history":      "members: [{id: a}, {id: b}]\nhistory: [{round: 1, white: a, black: b}]\n",
		"bad yaml":         "members: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseLeagueFile([]byte(raw)); !errors.Is(err, ErrInvalidLeagueFile) {
				t.Fatalf("err = %v, want ErrInvalidLeagueFile", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LICHESS_CACHE_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 9090 || cfg.LichessCacheTTL != time.Hour {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ArchiveEnabled() {
		t.Error("archive must be disabled without R2 settings")
	}

	t.Setenv("SERVER_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Error("expected error for out of range port")
	}

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("JWT_SECRET_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("expected error without JWT_SECRET_KEY")
	}
	if _, err := LoadCommon(); err != nil {
		t.Errorf("LoadCommon must not require JWT_SECRET_KEY: %v", err)
	}

	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "games")
	if _, err := Load(); err == nil {
		t.Error("expected error for partial R2 configuration")
	}
}
