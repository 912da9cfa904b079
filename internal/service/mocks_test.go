package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/bigkaa/goartstore/dashboard-module/internal/analytics"
	"github.com/bigkaa/goartstore/dashboard-module/internal/domain/model"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage"
	"github.com/bigkaa/goartstore/dashboard-module/internal/storage/filestore"
)

// testLogger — логгер, который ничего не выводит.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Records ---

type mockRecords struct {
	mode     storage.Mode
	listFn   func(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, int, error)
	allFn    func(ctx context.Context) ([]*model.FileRecord, error)
	getFn    func(ctx context.Context, id string) (*model.FileRecord, error)
	createFn func(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error)
	deleteFn func(ctx context.Context, id string) (*model.FileRecord, error)

	mu       sync.Mutex
	getCalls int
	allCalls int
}

func (m *mockRecords) Current(context.Context) storage.Backend { return m }
func (m *mockRecords) Mode() storage.Mode                       { return m.mode }

func (m *mockRecords) List(ctx context.Context, q model.FileQuery) ([]*model.FileRecord, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return nil, 0, nil
}

func (m *mockRecords) All(ctx context.Context) ([]*model.FileRecord, error) {
	m.mu.Lock()
	m.allCalls++
	m.mu.Unlock()
	if m.allFn != nil {
		return m.allFn(ctx)
	}
	return nil, nil
}

func (m *mockRecords) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	m.mu.Lock()
	m.getCalls++
	m.mu.Unlock()
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, storage.ErrNotFound
}

func (m *mockRecords) Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	if m.createFn != nil {
		return m.createFn(ctx, rec)
	}
	rec.ID = "generated-id"
	return rec, nil
}

func (m *mockRecords) Delete(ctx context.Context, id string) (*model.FileRecord, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil, storage.ErrNotFound
}

// --- PayloadStore ---

type mockPayloads struct {
	saveFn   func(r io.Reader, name string) (*filestore.SaveResult, error)
	deleted  []string
	deleteFn func(name string) error
}

func (m *mockPayloads) SaveFile(r io.Reader, name string) (*filestore.SaveResult, error) {
	if m.saveFn != nil {
		return m.saveFn(r, name)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return &filestore.SaveResult{
		StorageName: "1700000000000-abc123xyz-" + name,
		FullPath:    "/uploads/1700000000000-abc123xyz-" + name,
		Size:        int64(len(data)),
		Head:        head,
	}, nil
}

func (m *mockPayloads) DeleteFile(name string) error {
	m.deleted = append(m.deleted, name)
	if m.deleteFn != nil {
		return m.deleteFn(name)
	}
	return nil
}

// --- ActivityRecorder ---

type mockRecorder struct {
	mu      sync.Mutex
	records []*model.ActivityRecord
}

func (m *mockRecorder) Record(_ context.Context, a *model.ActivityRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, a)
}

// --- Publisher ---

type publishedEvent struct {
	topic string
	event string
	data  any
}

type mockPublisher struct {
	clients int

	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(topic, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{topic: topic, event: event, data: data})
}

func (m *mockPublisher) Broadcast(event string, data any) {
	m.Publish("", event, data)
}

func (m *mockPublisher) ClientCount() int { return m.clients }

// byEvent возвращает события с указанным именем.
func (m *mockPublisher) byEvent(event string) []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publishedEvent
	for _, e := range m.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// --- AvailabilityProbe ---

type mockProbe struct {
	available bool
}

func (m *mockProbe) IsAvailable(context.Context) bool { return m.available }

// --- StatsSource ---

type mockStats struct {
	calls int
	err   error
}

func (m *mockStats) DashboardStats(context.Context) (*analytics.DashboardStats, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &analytics.DashboardStats{TotalFiles: 3}, nil
}

// --- repository.ActivityRepository ---

type mockActivityRepo struct {
	createFn      func(ctx context.Context, a *model.ActivityRecord) error
	listFn        func(ctx context.Context, q model.ActivityQuery) ([]*model.ActivityRecord, int, error)
	clearFn       func(ctx context.Context) (int64, error)
	countByTypeFn func(ctx context.Context) (map[string]int, error)
}

func (m *mockActivityRepo) Create(ctx context.Context, a *model.ActivityRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

func (m *mockActivityRepo) List(ctx context.Context, q model.ActivityQuery) ([]*model.ActivityRecord, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return nil, 0, nil
}

func (m *mockActivityRepo) Clear(ctx context.Context) (int64, error) {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return 0, nil
}

func (m *mockActivityRepo) CountByType(ctx context.Context) (map[string]int, error) {
	if m.countByTypeFn != nil {
		return m.countByTypeFn(ctx)
	}
	return map[string]int{}, nil
}

// --- repository.SnapshotRepository ---

type mockSnapshotRepo struct {
	createFn     func(ctx context.Context, s *model.AnalyticsSnapshot) error
	listRecentFn func(ctx context.Context, limit int) ([]*model.AnalyticsSnapshot, error)
	listCalls    int
}

func (m *mockSnapshotRepo) Create(ctx context.Context, s *model.AnalyticsSnapshot) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSnapshotRepo) ListRecent(ctx context.Context, limit int) ([]*model.AnalyticsSnapshot, error) {
	m.listCalls++
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

// --- Reconcile ---

type mockDir struct {
	entries []filestore.Entry
	err     error
}

func (m *mockDir) List() ([]filestore.Entry, error) { return m.entries, m.err }

type mockActive struct {
	listActiveFn func(ctx context.Context) ([]*model.FileRecord, error)
}

func (m *mockActive) ListActive(ctx context.Context) ([]*model.FileRecord, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}
