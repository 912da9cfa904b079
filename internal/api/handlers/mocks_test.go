package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/dashboard-module/internal/analytics"
	"github.com/bigkaa/goartstore/dashboard-module/internal/auth"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withURLParam добавляет path-параметр chi в контекст запроса.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// response — разобранный конверт ответа.
type response struct {
	Success    bool              `json:"success"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Error      string            `json:"error"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Count      *int              `json:"count"`
	Period     string            `json:"period"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("тело не JSON: %v (%s)", err, rec.Body.String())
	}
	return resp
}

// --- mockFiles ---

type mockFiles struct {
	uploadFn func(ctx context.Context, inputs []service.UploadInput, md model.FileMetadata) ([]*model.FileRecord, error)
	listFn   func(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, model.Pagination, error)
	getFn    func(ctx context.Context, id string) (*model.FileRecord, error)
	deleteFn func(ctx context.Context, id string) (*model.FileRecord, error)
}

func (m *mockFiles) Upload(ctx context.Context, inputs []service.UploadInput, md model.FileMetadata) ([]*model.FileRecord, error) {
	return m.uploadFn(ctx, inputs, md)
}

func (m *mockFiles) List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, model.Pagination, error) {
	return m.listFn(ctx, q)
}

func (m *mockFiles) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	return m.getFn(ctx, id)
}

func (m *mockFiles) Delete(ctx context.Context, id string) (*model.FileRecord, error) {
	return m.deleteFn(ctx, id)
}

// --- mockAnalytics ---

type mockAnalytics struct {
	statsFn     func(ctx context.Context) (*analytics.DashboardStats, error)
	breakdownFn func(ctx context.Context) ([]analytics.BreakdownItem, error)
	distFn      func(ctx context.Context) ([]analytics.DistributionItem, error)
	perfFn      func(ctx context.Context) (*analytics.Performance, error)
	trendFn     func(ctx context.Context, period string) ([]analytics.TrendPoint, string, error)
	snapshotFn  func(ctx context.Context) (*model.AnalyticsSnapshot, error)
}

func (m *mockAnalytics) DashboardStats(ctx context.Context) (*analytics.DashboardStats, error) {
	return m.statsFn(ctx)
}

func (m *mockAnalytics) StorageBreakdown(ctx context.Context) ([]analytics.BreakdownItem, error) {
	return m.breakdownFn(ctx)
}

func (m *mockAnalytics) Distribution(ctx context.Context) ([]analytics.DistributionItem, error) {
	return m.distFn(ctx)
}

func (m *mockAnalytics) Performance(ctx context.Context) (*analytics.Performance, error) {
	return m.perfFn(ctx)
}

func (m *mockAnalytics) Trend(ctx context.Context, period string) ([]analytics.TrendPoint, string, error) {
	return m.trendFn(ctx, period)
}

func (m *mockAnalytics) CreateSnapshot(ctx context.Context) (*model.AnalyticsSnapshot, error) {
	return m.snapshotFn(ctx)
}

// --- mockActivities ---

type mockActivities struct {
	listFn  func(ctx context.Context, q model.ActivityQuery) ([]*model.ActivityRecord, model.Pagination, error)
	statsFn func(ctx context.Context) (*service.ActivityStats, error)
	clearFn func(ctx context.Context) (int64, error)
}

func (m *mockActivities) List(ctx context.Context, q model.ActivityQuery) ([]*model.ActivityRecord, model.Pagination, error) {
	return m.listFn(ctx, q)
}

func (m *mockActivities) Stats(ctx context.Context) (*service.ActivityStats, error) {
	return m.statsFn(ctx)
}

func (m *mockActivities) Clear(ctx context.Context) (int64, error) {
	return m.clearFn(ctx)
}

// --- mockAuth ---

type mockAuth struct {
	signupFn  func(email, password string) (*auth.Session, error)
	loginFn   func(email, password string) (*auth.Session, error)
	profileFn func(userID string) (*auth.PublicUser, error)
}

func (m *mockAuth) Signup(email, password string) (*auth.Session, error) {
	return m.signupFn(email, password)
}

func (m *mockAuth) Login(email, password string) (*auth.Session, error) {
	return m.loginFn(email, password)
}

func (m *mockAuth) Profile(userID string) (*auth.PublicUser, error) {
	return m.profileFn(userID)
}

// --- mockReconciler ---

type mockReconciler struct {
	runFn func(ctx context.Context) (*service.ReconcileReport, error)
}

func (m *mockReconciler) RunOnce(ctx context.Context) (*service.ReconcileReport, error) {
	return m.runFn(ctx)
}

// --- mockChecker ---

type mockChecker struct {
	status, message string
}

func (m mockChecker) CheckReady() (string, string) {
	return m.status, m.message
}
