/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// frame is the union of every server message, for decoding in tests.
type frame struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Topics  []string `json:"topics"`
	Room    Snapshot `json:"room"`
	Message string   `json:"message"`
}

type testServer struct {
	*httptest.Server
	lobby *Lobby
}

func newTestServer(t *testing.T, cfg *Config) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	lobby := newLobby(newTestRandom(), newMetrics(reg), zap.NewNop().Sugar())

	srv := httptest.NewServer(newRouter(cfg, lobby, reg, zap.NewNop().Sugar()))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, lobby: lobby}
}

func testConfig() *Config {
	return &Config{
		metrics:    true,
		port:       8080,
		sendBuffer: 16,
	}
}

type player struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func dial(t *testing.T, srv *testServer) *player {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	p := &player{t: t, conn: conn}

	info := p.read()
	if info.Type != "session_info" || info.ID == "" {
		t.Fatalf("Expected session_info first, got %+v", info)
	}
	if len(info.Topics) == 0 || info.Topics[len(info.Topics)-1] != customTopic {
		t.Errorf("Expected topic list ending in custom, got %v", info.Topics)
	}
	p.id = info.ID

	return p
}

func (p *player) send(msg ClientMessage) {
	p.t.Helper()

	if err := p.conn.WriteJSON(msg); err != nil {
		p.t.Fatalf("WriteJSON failed: %v", err)
	}
}

func (p *player) read() frame {
	p.t.Helper()

	_ = p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var f frame
	if err := p.conn.ReadJSON(&f); err != nil {
		p.t.Fatalf("ReadJSON failed: %v", err)
	}

	return f
}

func (p *player) update() Snapshot {
	p.t.Helper()

	f := p.read()
	if f.Type != "room_update" {
		p.t.Fatalf("Expected room_update, got %+v", f)
	}

	return f.Room
}

func TestWebSocket_GameFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())

	a, b, c := dial(t, srv), dial(t, srv), dial(t, srv)

	a.send(ClientMessage{Type: "join", Room: "R1", Name: "A"})
	if snap := a.update(); snap.HostID != a.id || len(snap.Players) != 1 {
		t.Fatalf("Expected A to host a one-player room, got %+v", snap)
	}

	b.send(ClientMessage{Type: "join", Room: "R1", Name: "B"})
	a.update()
	b.update()

	// Two players are not enough; only A hears about it.
	a.send(ClientMessage{Type: "start_game", Room: "R1"})
	if f := a.read(); f.Type != "error" || f.Message != ErrInvalidPlayerCount.Error() {
		t.Fatalf("Expected invalid player count error, got %+v", f)
	}

	c.send(ClientMessage{Type: "join", Room: "R1", Name: "C"})
	for _, p := range []*player{a, b, c} {
		if snap := p.update(); len(snap.Players) != 3 {
			t.Fatalf("Expected 3 players, got %d", len(snap.Players))
		}
	}

	// Non-host settings are dropped silently, so the next frame anyone sees
	// comes from A's update.
	wolves := 2
	b.send(ClientMessage{Type: "update_settings", Room: "R1", Settings: &SettingsUpdate{WolfCount: &wolves}})

	topic := "food"
	a.send(ClientMessage{Type: "update_settings", Room: "R1", Settings: &SettingsUpdate{Topic: &topic}})
	for _, p := range []*player{a, b, c} {
		snap := p.update()
		if snap.Settings.Topic != "food" || snap.Settings.WolfCount != 1 {
			t.Fatalf("Expected food with 1 wolf, got %+v", snap.Settings)
		}
	}

	a.send(ClientMessage{Type: "start_game", Room: "R1"})

	var dealt Snapshot
	for _, p := range []*player{a, b, c} {
		dealt = p.update()
		if dealt.State != StateRoleAssignment {
			t.Fatalf("Expected role_assignment, got %s", dealt.State)
		}
	}

	wolfCount := 0
	for _, p := range dealt.Players {
		if p.Role == RoleWolf {
			wolfCount++
		}
		if p.Word == "" {
			t.Errorf("Player %s has no word", p.Name)
		}
	}
	if wolfCount != 1 {
		t.Errorf("Expected 1 wolf, got %d", wolfCount)
	}

	// The host leaving hands the room to B.
	_ = a.conn.Close()
	for _, p := range []*player{b, c} {
		snap := p.update()
		if snap.HostID != b.id || len(snap.Players) != 2 {
			t.Fatalf("Expected B to host two players, got %+v", snap)
		}
	}

	_ = b.conn.Close()
	c.update()
	_ = c.conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := srv.lobby.Snapshot("R1"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected R1 to be deleted after everyone left")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_CustomWordsError(t *testing.T) {
	srv := newTestServer(t, testConfig())

	players := []*player{dial(t, srv), dial(t, srv), dial(t, srv)}
	for i, p := range players {
		p.send(ClientMessage{Type: "join", Room: "tea", Name: "P"})
		for _, q := range players[:i+1] {
			q.update()
		}
	}

	host := players[0]
	topic := customTopic
	host.send(ClientMessage{Type: "update_settings", Room: "tea", Settings: &SettingsUpdate{Topic: &topic}})
	for _, p := range players {
		p.update()
	}

	host.send(ClientMessage{Type: "start_game", Room: "tea", CustomPair: []string{"", "Tea"}})
	f := host.read()
	if f.Type != "error" || !strings.Contains(f.Message, "custom words") {
		t.Fatalf("Expected a custom words error, got %+v", f)
	}

	snap, _ := srv.lobby.Snapshot("tea")
	if snap.State != StateWaiting {
		t.Errorf("Expected room to stay waiting, got %s", snap.State)
	}
}

func TestWebSocket_MalformedFrameIgnored(t *testing.T) {
	srv := newTestServer(t, testConfig())
	p := dial(t, srv)

	if err := p.conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	p.send(ClientMessage{Type: "join", Room: "R9", Name: "Still here"})
	if snap := p.update(); snap.Players[0].Name != "Still here" {
		t.Errorf("Expected the connection to survive a bad frame, got %+v", snap)
	}
}

func get(t *testing.T, srv *testServer, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Reading %s failed: %v", path, err)
	}

	return resp, body
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	cases := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html", "Word Wolf"},
		{"/room/R1", http.StatusOK, "text/html", "room.js"},
		{"/assets/app.css", http.StatusOK, "text/css", "--accent"},
		{"/assets/room.js", http.StatusOK, "text/javascript", "start_game"},
		{"/assets/missing.js", http.StatusNotFound, "", ""},
		{"/favicon.svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"/healthz", http.StatusOK, "text/plain", "Ok"},
		{"/version", http.StatusOK, "text/plain", "wordwolf v" + releaseVersion},
		{"/robots.txt", http.StatusOK, "text/plain", "Disallow: /room/"},
		{"/metrics", http.StatusOK, "text/plain", "wordwolf_online_connections"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, body := get(t, srv, tc.path)

			if resp.StatusCode != tc.status {
				t.Fatalf("Expected status %d, got %d", tc.status, resp.StatusCode)
			}
			if tc.contentType != "" && !strings.HasPrefix(resp.Header.Get("Content-Type"), tc.contentType) {
				t.Errorf("Expected content type %s, got %s", tc.contentType, resp.Header.Get("Content-Type"))
			}
			if !bytes.Contains(body, []byte(tc.contains)) {
				t.Errorf("Expected body to contain %q", tc.contains)
			}
			if tc.status == http.StatusOK && resp.Header.Get("X-Content-Type-Options") != "nosniff" {
				t.Error("Expected security headers to be set")
			}
		})
	}
}

func TestRoutes_QRCode(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, body := get(t, srv, "/room/R1/qr")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("Expected image/png, got %s", resp.Header.Get("Content-Type"))
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Error("Expected a PNG body")
	}
}

func TestRoomURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://party.example/ww/room/R1/qr", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	if got := roomURL(r, "/qr"); got != "https://party.example/ww/room/R1" {
		t.Errorf("Unexpected room URL %q", got)
	}
}

func TestRoutes_PrefixAndOptionalHandlers(t *testing.T) {
	cfg := testConfig()
	cfg.prefix = "/ww"
	cfg.metrics = false
	cfg.profile = true

	srv := newTestServer(t, cfg)

	if resp, _ := get(t, srv, "/ww/healthz"); resp.StatusCode != http.StatusOK {
		t.Errorf("Expected prefixed healthz to be served, got %d", resp.StatusCode)
	}
	if resp, _ := get(t, srv, "/ww/metrics"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected metrics to be disabled, got %d", resp.StatusCode)
	}
	if resp, _ := get(t, srv, "/ww/pprof/heap"); resp.StatusCode != http.StatusOK {
		t.Errorf("Expected pprof to be enabled, got %d", resp.StatusCode)
	}
}

func TestNewPage(t *testing.T) {
	page := newPage("/ww", "Server Error", "Oops")

	for _, want := range []string{"<title>Server Error</title>", `href="/ww/"`, "/ww/favicon.svg", "Oops"} {
		if !strings.Contains(page, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
}
