package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/core"
	"github.com/mohammad-safakhou/prospector/repository"
)

type stubRunner struct {
	result core.RunResult
	err    error
	last   core.RunRequest
}

func (s *stubRunner) Run(ctx context.Context, req core.RunRequest) (core.RunResult, error) {
	s.last = req
	if s.err != nil {
		return core.RunResult{}, s.err
	}
	return s.result, nil
}

func newTestServer(runner Runner, repo repository.RunRepository, jwtSecret string) *Server {
	return New(&config.Config{
		Server: config.ServerConfig{JWTSecret: jwtSecret},
	}, runner, repo)
}

func TestResearchEndpoint(t *testing.T) {
	runner := &stubRunner{result: core.RunResult{
		ID:      "run-1",
		Subject: core.Subject{Email: "a@b.com"},
		Profile: core.StructuredProfile{Fields: map[string]interface{}{"current_company": "Acme"}},
		Verdict: core.ReflectionVerdict{IsSatisfactory: true},
		Rounds:  1,
	}}
	repo := repository.NewMemoryRunRepository()
	e := newTestServer(runner, repo, "").Echo()

	body := `{"email": "a@b.com", "name": "A B", "user_notes": "met at conf"}`
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result core.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.ID != "run-1" || result.Profile.Fields["current_company"] != "Acme" {
		t.Fatalf("unexpected response: %+v", result)
	}
	if runner.last.Subject.Email != "a@b.com" || runner.last.UserNotes != "met at conf" {
		t.Fatalf("request not forwarded to runner: %+v", runner.last)
	}

	// run must be archived
	if _, err := repo.GetRun(context.Background(), "run-1"); err != nil {
		t.Fatalf("run not archived: %v", err)
	}
}

func TestResearchEndpointBadInput(t *testing.T) {
	runner := &stubRunner{err: &core.ConfigurationError{Field: "subject.email", Detail: "required"}}
	e := newTestServer(runner, repository.NewMemoryRunRepository(), "").Echo()

	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetRun(t *testing.T) {
	repo := repository.NewMemoryRunRepository()
	if err := repo.SaveRun(context.Background(), core.RunResult{ID: "r1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	e := newTestServer(&stubRunner{}, repo, "").Echo()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/r1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteRun(t *testing.T) {
	repo := repository.NewMemoryRunRepository()
	if err := repo.SaveRun(context.Background(), core.RunResult{ID: "r1"}); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	e := newTestServer(&stubRunner{}, repo, "").Echo()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/runs/r1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	e := newTestServer(&stubRunner{}, repository.NewMemoryRunRepository(), "sekrit").Echo()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	token, err := SignJWT("tester", []byte("sekrit"), time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", rec.Code)
	}

	// health stays open
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
}
