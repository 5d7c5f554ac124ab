package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
	"github.com/ALT-F4-LLC/dinnerplan/internal/snapshot"
)

const testToken = "s3cret"

type envelope struct {
	OK      bool            `json:"ok"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func newTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	if err := db.Initialize(store); err != nil {
		t.Fatal(err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(snapshot.NewEngine(store, snapshot.WithLogger(quiet)), store, testToken, quiet)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func seedStore(t *testing.T, store *sql.DB) {
	t.Helper()
	alice, err := db.CreateUser(store, &model.User{Username: "alice", PasswordHash: "h", Role: model.RoleOrganizer})
	if err != nil {
		t.Fatal(err)
	}
	event, err := db.CreateEvent(store, &model.DinnerEvent{
		Title: "Dinner A", OrganizerID: alice, Deadline: time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, dates, err := db.CreateProposal(store, event, &model.Proposal{Location: "Trattoria"},
		[]time.Time{time.Date(2025, 3, 7, 19, 30, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CastVote(store, &model.Vote{UserID: alice, ProposalDateID: dates[0]}); err != nil {
		t.Fatal(err)
	}
}

func do(t *testing.T, method, url, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return env
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
	if env := decodeEnvelope(t, resp); !env.OK {
		t.Errorf("envelope = %+v", env)
	}
}

func TestAdminRequiresToken(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, token := range []string{"", "wrong"} {
		resp := do(t, http.MethodGet, ts.URL+"/admin/snapshot", token, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, resp.StatusCode)
		}
		env := decodeEnvelope(t, resp)
		if env.OK || env.Code != "UNAUTHORIZED" {
			t.Errorf("token %q: envelope = %+v", token, env)
		}
	}
}

func TestEmptyConfiguredTokenRejectsAll(t *testing.T) {
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	srv := New(snapshot.NewEngine(store), store, "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestExportThenImportOverHTTP(t *testing.T) {
	ts, store := newTestServer(t)
	seedStore(t, store)

	resp := do(t, http.MethodGet, ts.URL+"/admin/snapshot", testToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get("X-Archive-Id") == "" {
		t.Error("missing X-Archive-Id")
	}
	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	resp = do(t, http.MethodPost, ts.URL+"/admin/snapshot", testToken, archive)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	var res snapshot.ImportResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	want := db.Counts{Users: 1, Events: 1, Proposals: 1, ProposalDates: 1, Votes: 1}
	if res.Restored != want || res.Wiped != want {
		t.Errorf("result = %+v", res)
	}

	alice, err := db.GetUserByUsername(store, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if alice.ID == 1 {
		t.Error("import over HTTP did not reassign IDs")
	}
}

func TestImportDryRunOverHTTP(t *testing.T) {
	ts, store := newTestServer(t)
	seedStore(t, store)

	resp := do(t, http.MethodGet, ts.URL+"/admin/snapshot", testToken, nil)
	archive, _ := io.ReadAll(resp.Body)

	resp = do(t, http.MethodPost, ts.URL+"/admin/snapshot?dry_run=true", testToken, archive)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	alice, err := db.GetUserByUsername(store, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if alice.ID != 1 {
		t.Errorf("dry run changed the store: alice id = %d", alice.ID)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	ts, store := newTestServer(t)
	seedStore(t, store)

	resp := do(t, http.MethodPost, ts.URL+"/admin/snapshot", testToken, []byte("definitely not a zip"))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if env := decodeEnvelope(t, resp); env.Code != "ARCHIVE_ERROR" {
		t.Errorf("code = %q", env.Code)
	}

	counts, err := db.CountAll(store)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Users != 1 {
		t.Errorf("store changed after rejected upload: %+v", counts)
	}
}

func TestImportRejectsEmptyBody(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/admin/snapshot", testToken, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	ts, store := newTestServer(t)
	seedStore(t, store)

	env := decodeEnvelope(t, do(t, http.MethodGet, ts.URL+"/admin/stats", testToken, nil))
	var counts db.Counts
	if err := json.Unmarshal(env.Data, &counts); err != nil {
		t.Fatal(err)
	}
	if counts.Votes != 1 || counts.Users != 1 {
		t.Errorf("counts = %+v", counts)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	srv := New(snapshot.NewEngine(store), store, testToken, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
