// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestServer(t *testing.T, opts Options) (*GameStore, *httptest.Server) {
	t.Helper()
	if opts.DataDir == "" {
		opts.DataDir = t.TempDir()
	}
	store, handler := NewServerHandler(opts)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return store, srv
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

type gamesResponse struct {
	Data []GameMetadata `json:"data"`
	Meta struct {
		Total  int `json:"total"`
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	} `json:"meta"`
}

func TestProcessAndFetch(t *testing.T) {
	_, srv := newTestServer(t, Options{})

	body, _ := json.Marshal(sampleGame())
	resp, err := http.Post(srv.URL+"/api/process", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/process: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("process status = %d", resp.StatusCode)
	}

	var procResp struct {
		Results []struct {
			GameID    string `json:"gameId"`
			Anomalies int    `json:"anomalies"`
			Error     string `json:"error"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&procResp); err != nil {
		t.Fatalf("decode process response: %v", err)
	}
	if len(procResp.Results) != 1 || procResp.Results[0].Error != "" {
		t.Fatalf("results = %+v", procResp.Results)
	}
	gameID := procResp.Results[0].GameID
	if gameID == "" {
		t.Fatal("missing game ID in process result")
	}

	var list gamesResponse
	getJSON(t, srv.URL+"/api/games", &list)
	if list.Meta.Total != 1 || len(list.Data) != 1 || list.Data[0].ID != gameID {
		t.Errorf("games list = %+v", list)
	}

	var g Game
	getJSON(t, srv.URL+"/api/game/"+url.PathEscape(gameID), &g)
	if g.ID != gameID || g.FinalHome != 1 {
		t.Errorf("game = %s final %d-%d", g.ID, g.FinalAway, g.FinalHome)
	}

	var box BoxscoreView
	getJSON(t, srv.URL+"/api/game/"+url.PathEscape(gameID)+"/boxscore", &box)
	if box.ID != gameID || box.FinalHome != 1 {
		t.Errorf("boxscore = %+v", box)
	}

	var snap StatsSnapshot
	getJSON(t, srv.URL+"/api/status", &snap)
	if snap.Processed != 1 || snap.Failed != 0 {
		t.Errorf("status = %+v", snap)
	}
}

func TestProcessBadRequests(t *testing.T) {
	_, srv := newTestServer(t, Options{})

	for _, tc := range []struct {
		name string
		body string
	}{
		{"not json", "{oops"},
		{"empty array", "[]"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/process", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestProcessReportsFailures(t *testing.T) {
	_, srv := newTestServer(t, Options{})

	broken := sampleGame()
	// Drop the third out of the top of the 1st; a later half exists, so the
	// shortfall is fatal for this game.
	broken.Plays = append(broken.Plays[:2], broken.Plays[3:]...)
	body, _ := json.Marshal([]GameInput{broken, sampleGame()})

	resp, err := http.Post(srv.URL+"/api/process", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var procResp struct {
		Results []struct {
			GameID string `json:"gameId"`
			Error  string `json:"error"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&procResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(procResp.Results) != 2 {
		t.Fatalf("results = %+v", procResp.Results)
	}
	if !strings.Contains(procResp.Results[0].Error, "incomplete game data") {
		t.Errorf("first result error = %q", procResp.Results[0].Error)
	}
	if procResp.Results[1].Error != "" {
		t.Errorf("second result error = %q", procResp.Results[1].Error)
	}
}

func TestGameNotFound(t *testing.T) {
	_, srv := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/api/game/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGamesListSortFilterPaginate(t *testing.T) {
	store, srv := newTestServer(t, Options{})

	seed := []struct {
		id, date, away, home string
	}{
		{"g1", "2026-05-03", "BOS", "NYY"},
		{"g2", "2026-05-01", "CHC", "STL"},
		{"g3", "2026-05-02", "ATL", "NYM"},
	}
	for _, s := range seed {
		g := testGame(t, s.id)
		g.Date = s.date
		g.Away = s.away
		g.Home = s.home
		if err := store.SaveGame(g); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}

	var list gamesResponse
	getJSON(t, srv.URL+"/api/games?sortBy=date", &list)
	if len(list.Data) != 3 || list.Data[0].ID != "g2" || list.Data[2].ID != "g1" {
		t.Errorf("date sort = %+v", list.Data)
	}

	getJSON(t, srv.URL+"/api/games?sortBy=date&order=desc", &list)
	if list.Data[0].ID != "g1" {
		t.Errorf("desc sort first = %s, want g1", list.Data[0].ID)
	}

	getJSON(t, srv.URL+"/api/games?sortBy=away&limit=2", &list)
	if len(list.Data) != 2 || list.Data[0].Away != "ATL" || list.Meta.Total != 3 {
		t.Errorf("away sort page = %+v", list)
	}

	getJSON(t, srv.URL+"/api/games?sortBy=away&limit=2&offset=2", &list)
	if len(list.Data) != 1 || list.Data[0].Away != "CHC" {
		t.Errorf("second page = %+v", list.Data)
	}

	// Filter matches team codes and full team names.
	getJSON(t, srv.URL+"/api/games?q=cubs", &list)
	if len(list.Data) != 1 || list.Data[0].ID != "g2" {
		t.Errorf("name filter = %+v", list.Data)
	}
	getJSON(t, srv.URL+"/api/games?q=NYM", &list)
	if len(list.Data) != 1 || list.Data[0].ID != "g3" {
		t.Errorf("code filter = %+v", list.Data)
	}
}

func TestGameETag(t *testing.T) {
	store, srv := newTestServer(t, Options{})
	if err := store.SaveGame(testGame(t, "etag-game")); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	resp := getJSON(t, srv.URL+"/api/game/etag-game", nil)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag header")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/game/etag-game", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional GET: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Errorf("status = %d, want 304", resp2.StatusCode)
	}
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestAuthRequiredForMutations(t *testing.T) {
	const secret = "test-secret"
	store, srv := newTestServer(t, Options{AuthSecret: secret})
	if err := store.SaveGame(testGame(t, "protected")); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	// Reads stay open.
	getJSON(t, srv.URL+"/api/game/protected", nil)

	deleteBody := `{"gameId":"protected"}`
	doDelete := func(token string) int {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/delete-game", strings.NewReader(deleteBody))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST /api/delete-game: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := doDelete(""); code != http.StatusUnauthorized {
		t.Errorf("anonymous delete status = %d, want 401", code)
	}
	if code := doDelete(signToken(t, "wrong-secret", "mallory")); code != http.StatusUnauthorized {
		t.Errorf("forged token delete status = %d, want 401", code)
	}
	if code := doDelete(signToken(t, secret, "alice")); code != http.StatusOK {
		t.Errorf("authorized delete status = %d, want 200", code)
	}
	if _, err := store.LoadGame("protected"); err == nil {
		t.Error("game still loadable after authorized delete")
	}
}

func TestSecurityHeaders(t *testing.T) {
	_, srv := newTestServer(t, Options{})
	resp := getJSON(t, srv.URL+"/api/status", nil)
	if got := resp.Header.Get("Content-Security-Policy"); got != "default-src 'self'" {
		t.Errorf("CSP = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, srv := newTestServer(t, Options{})
	resp, err := http.Post(srv.URL+"/api/games", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestParsePagination(t *testing.T) {
	for _, tc := range []struct {
		query  string
		limit  int
		offset int
		sortBy string
		order  string
		q      string
	}{
		{"", 50, 0, "", "", ""},
		{"limit=10&offset=5", 10, 5, "", "", ""},
		{"limit=0", 50, 0, "", "", ""},
		{"limit=500", 100, 0, "", "", ""},
		{"offset=-3", 50, 0, "", "", ""},
		{"limit=abc", 50, 0, "", "", ""},
		{"sortBy=date&order=desc&q=cubs", 50, 0, "date", "desc", "cubs"},
	} {
		r := httptest.NewRequest(http.MethodGet, "/api/games?"+tc.query, nil)
		limit, offset, sortBy, order, q := parsePagination(r)
		if limit != tc.limit || offset != tc.offset || sortBy != tc.sortBy || order != tc.order || q != tc.q {
			t.Errorf("parsePagination(%q) = %d/%d/%q/%q/%q", tc.query, limit, offset, sortBy, order, q)
		}
	}
}
