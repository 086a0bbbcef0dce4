package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/yearboard/board/contract"
	kvx "github.com/tanpawarit/yearboard/board/kv"
	memoryx "github.com/tanpawarit/yearboard/board/memory"
	progressx "github.com/tanpawarit/yearboard/board/progress"
	visiblex "github.com/tanpawarit/yearboard/board/visible"
)

type fakeCoach struct {
	reply contractx.CoachReply
	err   error
	got   contractx.CoachRequest
}

func (f *fakeCoach) Ask(ctx context.Context, req contractx.CoachRequest) (contractx.CoachReply, error) {
	f.got = req
	if f.err != nil {
		return contractx.CoachReply{}, f.err
	}
	return f.reply, nil
}

type failingKV struct{}

func (failingKV) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("kv offline")
}

func (failingKV) Set(ctx context.Context, key, value string) error {
	return errors.New("kv offline")
}

type testEnv struct {
	server  *Server
	visible *visiblex.Registry
}

func newTestEnv(t *testing.T, kv kvx.Store, coach contractx.Coach) testEnv {
	t.Helper()

	registry := visiblex.NewRegistry()
	deps := Deps{
		Progress: progressx.NewStore(kv),
		Memory:   memoryx.NewStore(kv),
		Visible:  registry,
	}
	if coach != nil {
		deps.Coach = coach
	}

	server, err := New(deps, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return testEnv{server: server, visible: registry}
}

func do(t *testing.T, s *Server, method, path, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("App().Test(%s %s) error = %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(raw)
}

func decodeError(t *testing.T, body string) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return out.Error
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)
	status, body := do(t, env.server, http.MethodGet, "/healthz", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	if !strings.Contains(body, `"status":"healthy"`) || !strings.Contains(body, `"coach":false`) {
		t.Fatalf("body = %s", body)
	}
}

func TestGenerateWeeklyPlan(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)
	status, body := do(t, env.server, http.MethodPost, "/api/v1/plan/weekly", `{
		"actions": [
			{"title":"Close books","why":"","owner":"Ann","engine":"data","priority":"later","effort":3,"status":"blocked"},
			{"title":"Old","why":"x","owner":"Bo","engine":null,"priority":"next","effort":null,"status":"done"}
		],
		"north_star": {"goal":"Reach 1M ARR","metric":"ARR"}
	}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}

	var out struct {
		Actions []map[string]any `json:"actions"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Actions) != 1 {
		t.Fatalf("actions = %d, want 1 (%s)", len(out.Actions), body)
	}
	got := out.Actions[0]
	if got["title"] != "Close books" || got["priority"] != "do_now" {
		t.Fatalf("draft = %v", got)
	}
	if got["why"] != "Carry forward for focused execution this week." {
		t.Fatalf("why = %v", got["why"])
	}
}

func TestGenerateWeeklyPlanEmpty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)
	status, body := do(t, env.server, http.MethodPost, "/api/v1/plan/weekly", `{"actions":[],"north_star":null}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	if body != `{"actions":[]}` {
		t.Fatalf("body = %s, want empty actions array", body)
	}
}

func TestGenerateWeeklyPlanInvalidBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)
	status, body := do(t, env.server, http.MethodPost, "/api/v1/plan/weekly", `{"actions":`)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	if decodeError(t, body) == "" {
		t.Fatal("error message is empty")
	}
}

func TestProgressRoundTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)

	status, body := do(t, env.server, http.MethodGet, "/api/v1/progress/Hire%20Ops%20Manager", "")
	if status != http.StatusNotFound {
		t.Fatalf("missing goal status = %d, body = %s", status, body)
	}

	status, body = do(t, env.server, http.MethodPut, "/api/v1/progress/Hire%20Ops%20Manager", `{"value":40}`)
	if status != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", status, body)
	}

	status, body = do(t, env.server, http.MethodGet, "/api/v1/progress/hire%20%20ops%20manager", "")
	if status != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", status, body)
	}
	if body != `{"key":"hire-ops-manager","value":40}` {
		t.Fatalf("get body = %s", body)
	}

	status, body = do(t, env.server, http.MethodGet, "/api/v1/progress", "")
	if status != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", status, body)
	}
	if body != `{"hire-ops-manager":40}` {
		t.Fatalf("list body = %s", body)
	}
}

func TestSetProgressRequiresValue(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)
	status, body := do(t, env.server, http.MethodPut, "/api/v1/progress/goal", `{}`)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	if got := decodeError(t, body); got != "value is required" {
		t.Fatalf("error = %q", got)
	}
}

func TestProgressStorageFailureIsInternal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, failingKV{}, nil)
	status, body := do(t, env.server, http.MethodGet, "/api/v1/progress", "")
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	if got := decodeError(t, body); got != "internal server error" {
		t.Fatalf("error = %q", got)
	}
}

func TestFireEventAndLoadMemory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)

	status, body := do(t, env.server, http.MethodPost, "/api/v1/orgs/acme/memory/events",
		`{"type":"action_completed","action_title":"Ship pricing page","engine":"traction"}`)
	if status != http.StatusOK {
		t.Fatalf("fire status = %d, body = %s", status, body)
	}

	status, body = do(t, env.server, http.MethodGet, "/api/v1/orgs/acme/memory", "")
	if status != http.StatusOK {
		t.Fatalf("load status = %d, body = %s", status, body)
	}

	var m memoryx.Memory
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("decode memory: %v", err)
	}
	if m.OrgID != "acme" || m.Completed["traction"] != 1 || len(m.Facts) != 1 || m.Revision != 1 {
		t.Fatalf("memory = %+v", m)
	}
}

func TestFireUnknownEventLeavesMemory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)
	status, body := do(t, env.server, http.MethodPost, "/api/v1/orgs/acme/memory/events", `{"type":"meeting_held"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}

	var m memoryx.Memory
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("decode memory: %v", err)
	}
	if m.Revision != 0 || len(m.Facts) != 0 {
		t.Fatalf("memory changed on unknown event: %+v", m)
	}
}

func TestFireInvalidEvent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)
	for _, body := range []string{`not json`, `{"engine":"data"}`, `{"type":"north_star_changed","goal":" "}`} {
		status, out := do(t, env.server, http.MethodPost, "/api/v1/orgs/acme/memory/events", body)
		if status != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, out = %s", body, status, out)
		}
	}
}

func TestVisibleLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)

	status, body := do(t, env.server, http.MethodGet, "/api/v1/sessions/s1/visible", "")
	if status != http.StatusOK || body != `{}` {
		t.Fatalf("initial read = %d %s", status, body)
	}

	status, body = do(t, env.server, http.MethodPut, "/api/v1/sessions/s1/visible", `{"page":"plan","count":3}`)
	if status != http.StatusNoContent {
		t.Fatalf("put status = %d, body = %s", status, body)
	}
	if got := env.visible.Read("s1"); got["page"] != "plan" {
		t.Fatalf("registry slot = %v", got)
	}

	status, body = do(t, env.server, http.MethodGet, "/api/v1/sessions/s1/visible", "")
	if status != http.StatusOK || body != `{"count":3,"page":"plan"}` {
		t.Fatalf("read = %d %s", status, body)
	}

	status, _ = do(t, env.server, http.MethodDelete, "/api/v1/sessions/s1/visible", "")
	if status != http.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	if got := env.visible.Read("s1"); len(got) != 0 {
		t.Fatalf("registry slot after clear = %v", got)
	}
}

func TestExposeVisibleRejectsNonObject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, kvx.NewLocalStore(), nil)
	status, body := do(t, env.server, http.MethodPut, "/api/v1/sessions/s1/visible", `[1,2]`)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", status, body)
	}
}

func TestAskCoach(t *testing.T) {
	t.Parallel()

	coach := &fakeCoach{reply: contractx.CoachReply{OrgID: "acme", Message: "Focus on hiring."}}
	env := newTestEnv(t, kvx.NewLocalStore(), coach)

	status, body := do(t, env.server, http.MethodPost, "/api/v1/orgs/acme/coach", `{"session_id":"s1","question":"What next?"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	if body != `{"org_id":"acme","message":"Focus on hiring."}` {
		t.Fatalf("body = %s", body)
	}
	if coach.got.OrgID != "acme" || coach.got.SessionID != "s1" || coach.got.Question != "What next?" {
		t.Fatalf("coach request = %+v", coach.got)
	}
}

func TestAskCoachErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		coach contractx.Coach
		want  int
	}{
		{name: "disabled", coach: nil, want: http.StatusServiceUnavailable},
		{name: "validation", coach: &fakeCoach{err: fmt.Errorf("%w: question is empty", contractx.ErrValidation)}, want: http.StatusBadRequest},
		{name: "model", coach: &fakeCoach{err: fmt.Errorf("%w: timeout", contractx.ErrModelInvoke)}, want: http.StatusBadGateway},
		{name: "internal", coach: &fakeCoach{err: errors.New("boom")}, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, kvx.NewLocalStore(), tt.coach)
			status, body := do(t, env.server, http.MethodPost, "/api/v1/orgs/acme/coach", `{"question":"x"}`)
			if status != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", status, tt.want, body)
			}
			if decodeError(t, body) == "" {
				t.Fatal("error message is empty")
			}
		})
	}
}

func TestNewRequiresStores(t *testing.T) {
	t.Parallel()

	if _, err := New(Deps{}, Config{}); err == nil {
		t.Fatal("New() error = nil, want missing store error")
	}
}
