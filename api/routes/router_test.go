package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/vrcamacho/sitestock-backend/pkg/auth"
	"github.com/vrcamacho/sitestock-backend/pkg/config"
	"github.com/vrcamacho/sitestock-backend/pkg/enums"
	"github.com/vrcamacho/sitestock-backend/pkg/logger"
	"github.com/vrcamacho/sitestock-backend/pkg/pagination"

	withdrawalsvc "github.com/vrcamacho/sitestock-backend/internal/withdrawals"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct {
	ok bool
}

func (s stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return s.ok, nil
}

type stubWithdrawalService struct {
	lastOperation string
}

func (s *stubWithdrawalService) ok(operation string) withdrawalsvc.Result {
	s.lastOperation = operation
	return withdrawalsvc.Result{Success: true, Message: operation, Data: map[string]string{"operation": operation}}
}

func (s *stubWithdrawalService) CreateWithdrawalRequest(ctx context.Context, input withdrawalsvc.CreateWithdrawalInput) withdrawalsvc.Result {
	return s.ok("create")
}

func (s *stubWithdrawalService) VerifyWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) withdrawalsvc.Result {
	return s.ok("verify")
}

func (s *stubWithdrawalService) ApproveWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) withdrawalsvc.Result {
	return s.ok("approve")
}

func (s *stubWithdrawalService) ReleaseWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) withdrawalsvc.Result {
	return s.ok("release")
}

func (s *stubWithdrawalService) ReturnWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) withdrawalsvc.Result {
	return s.ok("return")
}

func (s *stubWithdrawalService) CancelWithdrawal(ctx context.Context, id, actorID uuid.UUID, reason string) withdrawalsvc.Result {
	return s.ok("cancel")
}

func (s *stubWithdrawalService) GetWithdrawal(ctx context.Context, id uuid.UUID) withdrawalsvc.Result {
	return s.ok("detail")
}

func (s *stubWithdrawalService) ListWithdrawals(ctx context.Context, filters withdrawalsvc.Filters, params pagination.Params) withdrawalsvc.Result {
	return s.ok("list")
}

func (s *stubWithdrawalService) ListOverdueWithdrawals(ctx context.Context) withdrawalsvc.Result {
	return s.ok("overdue")
}

func (s *stubWithdrawalService) CheckItemAvailability(ctx context.Context, itemID uuid.UUID, requested int) withdrawalsvc.Result {
	return s.ok("availability")
}

func (s *stubWithdrawalService) ListItemWithdrawals(ctx context.Context, itemID uuid.UUID) withdrawalsvc.Result {
	return s.ok("item-history")
}

func (s *stubWithdrawalService) ListAvailableConsumables(ctx context.Context, projectID uuid.UUID) withdrawalsvc.Result {
	return s.ok("consumables")
}

func (s *stubWithdrawalService) GetReport(ctx context.Context, from, to time.Time) withdrawalsvc.Result {
	return s.ok("report")
}

func (s *stubWithdrawalService) GetStatistics(ctx context.Context, filters withdrawalsvc.StatsFilters) withdrawalsvc.Result {
	return s.ok("stats")
}

func (s *stubWithdrawalService) GetDashboard(ctx context.Context) withdrawalsvc.Result {
	return s.ok("dashboard")
}

func testDeps(svc withdrawalsvc.Service, sessionOK bool) Deps {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "sitestock", ExpirationMinutes: 30}
	return Deps{
		Config:         cfg,
		Logger:         logger.New(logger.Options{ServiceName: "router-test"}),
		DBPinger:       stubPinger{},
		RedisPinger:    stubPinger{},
		SessionChecker: stubSessionChecker{ok: sessionOK},
		Withdrawals:    svc,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleWarehouseOfficer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthzIsPublic(t *testing.T) {
	router := NewRouter(testDeps(&stubWithdrawalService{}, true))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestReadyzChecksDependencies(t *testing.T) {
	router := NewRouter(testDeps(&stubWithdrawalService{}, true))

	req := httptest.NewRequest(http.MethodGet, "/healthz/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "ready") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestWithdrawalRoutesRequireAuth(t *testing.T) {
	router := NewRouter(testDeps(&stubWithdrawalService{}, true))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestWithdrawalRoutesRejectRevokedSession(t *testing.T) {
	deps := testDeps(&stubWithdrawalService{}, false)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, deps.Config.JWT))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthenticatedRoutesDispatch(t *testing.T) {
	svc := &stubWithdrawalService{}
	deps := testDeps(svc, true)
	router := NewRouter(deps)
	token := mintToken(t, deps.Config.JWT)
	id := uuid.NewString()

	cases := []struct {
		method    string
		path      string
		body      string
		operation string
	}{
		{http.MethodGet, "/api/v1/withdrawals", "", "list"},
		{http.MethodGet, "/api/v1/withdrawals/overdue", "", "overdue"},
		{http.MethodGet, "/api/v1/withdrawals/stats", "", "stats"},
		{http.MethodGet, "/api/v1/withdrawals/stats/dashboard", "", "dashboard"},
		{http.MethodGet, "/api/v1/withdrawals/" + id, "", "detail"},
		{http.MethodPost, "/api/v1/withdrawals/" + id + "/verify", "", "verify"},
		{http.MethodPost, "/api/v1/withdrawals/" + id + "/approve", "", "approve"},
		{http.MethodPost, "/api/v1/withdrawals/" + id + "/release", "", "release"},
		{http.MethodPost, "/api/v1/withdrawals/" + id + "/return", "", "return"},
		{http.MethodPost, "/api/v1/withdrawals/" + id + "/cancel", `{"reason":"duplicate"}`, "cancel"},
		{http.MethodGet, "/api/v1/items/" + id + "/availability?quantity=3", "", "availability"},
		{http.MethodGet, "/api/v1/items/" + id + "/withdrawals", "", "item-history"},
		{http.MethodGet, "/api/v1/projects/" + id + "/consumables", "", "consumables"},
	}

	for _, tc := range cases {
		var req *http.Request
		if tc.body != "" {
			req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(tc.method, tc.path, nil)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200 got %d (%s)", tc.method, tc.path, resp.Code, resp.Body.String())
		}
		if svc.lastOperation != tc.operation {
			t.Fatalf("%s %s: expected %s dispatch, got %s", tc.method, tc.path, tc.operation, svc.lastOperation)
		}
	}
}

func TestCreateWithdrawalRoute(t *testing.T) {
	svc := &stubWithdrawalService{}
	deps := testDeps(svc, true)
	router := NewRouter(deps)

	body := map[string]any{
		"item_id":       uuid.NewString(),
		"project_id":    uuid.NewString(),
		"quantity":      5,
		"purpose":       "slab pour",
		"receiver_name": "Site Foreman",
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, deps.Config.JWT))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.lastOperation != "create" {
		t.Fatalf("expected create dispatch, got %s", svc.lastOperation)
	}
}
