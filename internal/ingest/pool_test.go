package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdex/internal/config"
	"jobdex/internal/extractor"
	"jobdex/internal/logging"
	"jobdex/internal/storage"
	"jobdex/pkg/models"
)

const savedPageHTML = `<!-- saved from url=(0046)https://www.linkedin.com/jobs/view/1234567890/ -->
<html>
<body>
<div class="mt6 ml5 flex-grow-1">
	<h1>Platform Engineer</h1>
	<h3>
		Company Name
		Initrode
		Company Location
		Remote
	</h3>
</div>
<article>
	<div>
		Keep the lights on
	</div>
	<div>
		Seniority Level
		Senior
	</div>
	<div>
		Industries
		Software
	</div>
	<div>
		Employment Type
		Full-time
	</div>
	<div>
		Job Functions
		Engineering
	</div>
</article>
</body>
</html>`

// fakeStore records writes and reports duplicates by id, mimicking the
// conflict-detecting insert.
type fakeStore struct {
	mu      sync.Mutex
	seen    map[int64]bool
	records []*models.JobRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[int64]bool)}
}

func (f *fakeStore) WriteJob(ctx context.Context, record *models.JobRecord) (storage.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen[record.ID] {
		return storage.OutcomeAlreadyExists, nil
	}
	f.seen[record.ID] = true
	f.records = append(f.records, record)
	return storage.OutcomeInserted, nil
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Workers.PoolSize = 2
	cfg.Workers.QueueSize = 10
	cfg.Workers.RateLimit = 6000
	cfg.Workers.Timeout = 5 * time.Second
	cfg.Extractor.Template = "auto"
	return cfg
}

func newTestPool(t *testing.T, store JobStore) *WorkerPool {
	t.Helper()

	pool := NewWorkerPool(testConfig(), store, logging.NewMultiLogger())
	require.NoError(t, pool.Start())
	t.Cleanup(func() { _ = pool.Stop() })
	return pool
}

func TestSubmit_InsertedThenDuplicate(t *testing.T) {
	store := newFakeStore()
	pool := newTestPool(t, store)
	ctx := context.Background()

	req := &models.IngestRequest{ID: 1234567890, HTML: savedPageHTML}

	result, err := pool.Submit(ctx, req)
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, storage.OutcomeInserted, result.Outcome)
	require.NotNil(t, result.Record)
	assert.Equal(t, int64(1234567890), result.Record.ID)
	assert.Equal(t, "Platform Engineer", result.Record.Title)
	assert.Equal(t, "auto", result.Template)
	assert.NotEmpty(t, result.RequestID)

	result, err = pool.Submit(ctx, req)
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, storage.OutcomeAlreadyExists, result.Outcome)
	assert.Equal(t, 1, store.writeCount(), "duplicate submissions must not write twice")
}

func TestSubmit_ExtractionFailureNeverReachesStore(t *testing.T) {
	store := newFakeStore()
	pool := newTestPool(t, store)

	result, err := pool.Submit(context.Background(), &models.IngestRequest{
		ID:   42,
		HTML: `<html><body><p>not a saved job page</p></body></html>`,
	})
	require.NoError(t, err)
	require.Error(t, result.Error)

	var extErr *extractor.ExtractionError
	assert.ErrorAs(t, result.Error, &extErr)
	assert.Equal(t, 0, store.writeCount())
}

func TestSubmit_TemplateOverride(t *testing.T) {
	store := newFakeStore()
	pool := newTestPool(t, store)

	result, err := pool.Submit(context.Background(), &models.IngestRequest{
		ID:      1234567890,
		HTML:    savedPageHTML,
		Options: &models.IngestOptions{Template: extractor.TemplateLabeled},
	})
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, extractor.TemplateLabeled, result.Template)
}

func TestSubmit_PoolNotRunning(t *testing.T) {
	pool := NewWorkerPool(testConfig(), newFakeStore(), logging.NewMultiLogger())

	_, err := pool.Submit(context.Background(), &models.IngestRequest{ID: 1, HTML: savedPageHTML})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestPoolStats(t *testing.T) {
	store := newFakeStore()
	pool := newTestPool(t, store)
	ctx := context.Background()

	req := &models.IngestRequest{ID: 1234567890, HTML: savedPageHTML}
	_, err := pool.Submit(ctx, req)
	require.NoError(t, err)
	_, err = pool.Submit(ctx, req)
	require.NoError(t, err)

	stats := pool.GetStats()
	assert.Equal(t, int64(2), stats.TasksQueued)
	assert.Equal(t, int64(2), stats.TasksProcessed)
	assert.Equal(t, int64(1), stats.Inserted)
	assert.Equal(t, int64(1), stats.Duplicates)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestPoolManagerLifecycle(t *testing.T) {
	manager := NewPoolManager(testConfig(), newFakeStore(), logging.NewMultiLogger())

	assert.False(t, manager.IsHealthy())
	_, err := manager.GetStats()
	require.Error(t, err)

	require.NoError(t, manager.Initialize())
	assert.True(t, manager.IsHealthy())
	assert.Error(t, manager.Initialize(), "double initialization is rejected")

	result, err := manager.SubmitIngest(context.Background(), &models.IngestRequest{ID: 1234567890, HTML: savedPageHTML})
	require.NoError(t, err)
	require.NoError(t, result.Error)

	stats, err := manager.GetStats()
	require.NoError(t, err)
	assert.True(t, stats.Initialized)
	assert.Equal(t, 2, stats.WorkerCount)

	require.NoError(t, manager.Shutdown())
	assert.False(t, manager.IsHealthy())
}
