//go:build integration

package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdex/internal/logging"
	"jobdex/pkg/models"
)

// Run with: DATABASE_URL=postgres://... go test -tags integration ./internal/storage/

func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))

	for _, table := range []string{"job_industry", "job_function", "job", "industry", `"function"`} {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		require.NoError(t, err)
	}

	logger := logging.NewMultiLogger()
	return NewStore(pool, 10*time.Second, logger)
}

func sampleRecord(id int64) *models.JobRecord {
	seniority := "Associate"
	employment := "Full-time"
	return &models.JobRecord{
		ID:             id,
		URL:            fmt.Sprintf("https://www.linkedin.com/jobs/view/%d/", id),
		Title:          "Data Engineer",
		Company:        "Acme Analytics",
		Location:       "Berlin, Germany",
		Seniority:      &seniority,
		EmploymentType: &employment,
		Industries:     []string{"Information Technology", "Staffing and Recruiting"},
		Functions:      []string{"Engineering"},
		PostingText:    "A remote-first data team",
	}
}

func TestWriteJob_InsertThenConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	outcome, err := store.WriteJob(ctx, sampleRecord(101))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	outcome, err = store.WriteJob(ctx, sampleRecord(101))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyExists, outcome)

	got, err := store.SelectJob(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", got.Title)
	assert.ElementsMatch(t, []string{"Information Technology", "Staffing and Recruiting"}, got.Industries)
	assert.Equal(t, []string{"Engineering"}, got.Functions)
}

func TestWriteJob_SharedLookupRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := sampleRecord(201)
	second := sampleRecord(202)
	second.Functions = []string{"Engineering", "Consulting"}

	_, err := store.WriteJob(ctx, first)
	require.NoError(t, err)
	_, err = store.WriteJob(ctx, second)
	require.NoError(t, err)

	var count int
	err = store.pool.QueryRow(ctx, `SELECT count(*) FROM "function" WHERE name = 'Engineering'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same function name must resolve to one lookup row")
}

func TestWriteJob_ConcurrentLookupConvergence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			record := sampleRecord(500 + id)
			record.Industries = []string{"Shared Industry"}
			_, err := store.WriteJob(ctx, record)
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	var count int
	err := store.pool.QueryRow(ctx, `SELECT count(*) FROM industry WHERE name = 'Shared Industry'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "concurrent writers must converge on one lookup row")
}

func TestWriteJob_EmptyAttributesWriteNoAssociations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord(301)
	record.Industries = []string{}
	record.Functions = []string{}
	record.Seniority = nil
	record.EmploymentType = nil

	outcome, err := store.WriteJob(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	got, err := store.SelectJob(ctx, 301)
	require.NoError(t, err)
	assert.Empty(t, got.Industries)
	assert.Empty(t, got.Functions)
	assert.Nil(t, got.Seniority)
	assert.Nil(t, got.EmploymentType)
}

func TestSelectJob_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SelectJob(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.WriteJob(ctx, sampleRecord(401))
	require.NoError(t, err)

	updated, err := store.UpdateRejected(ctx, "data engineer", "ACME ANALYTICS")
	require.NoError(t, err)
	assert.True(t, updated, "match is case-insensitive")

	got, err := store.SelectJob(ctx, 401)
	require.NoError(t, err)
	assert.True(t, got.Rejected)

	jobs, err := store.SelectJobs(ctx, false)
	require.NoError(t, err)
	found := false
	for _, job := range jobs {
		if job.ID == 401 {
			found = true
			assert.True(t, job.Rejected)
		}
	}
	assert.True(t, found, "rejected jobs stay in the default listing")

	jobs, err = store.SelectJobs(ctx, true)
	require.NoError(t, err)
	for _, job := range jobs {
		assert.NotEqual(t, int64(401), job.ID, "exclude_rejected filters them out")
	}

	updated, err = store.UpdateRejected(ctx, "data engineer", "ACME ANALYTICS")
	require.NoError(t, err)
	assert.True(t, updated, "repeated rejection still reports an update")

	updated, err = store.UpdateRejected(ctx, "No Such Title", "Nobody")
	require.NoError(t, err)
	assert.False(t, updated)
}
