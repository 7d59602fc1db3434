package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-finder/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Runs ---

func TestSQLite_RunLifecycle_Complete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	req := model.SearchRequest{Query: "cosmetics suppliers Nepal", Limit: 10, Country: "Nepal"}
	run, err := st.CreateRun(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	result := &model.RunResult{
		Results:        []model.Company{{Name: "ABC Cosmetics Ltd", Website: "abc.com.np", SourceURL: "https://dir.example"}},
		TotalCompanies: 1,
		Statuses:       []model.CrawlStatus{{URL: "https://dir.example", Status: model.CrawlCompleted, CompaniesFound: 1}},
	}
	require.NoError(t, st.CompleteRun(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, req, got.Request)
	require.NotNil(t, got.Result)
	assert.Equal(t, result.Results, got.Result.Results)
	assert.Equal(t, result.Statuses, got.Result.Statuses)
	assert.Empty(t, got.Error)
}

func TestSQLite_RunLifecycle_Fail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.SearchRequest{Query: "q", Limit: 5})
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, "search: jina: status 503"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "search: jina: status 503", got.Error)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_UpdateMissingRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, st.CompleteRun(ctx, "missing", &model.RunResult{}), ErrNotFound)
	assert.ErrorIs(t, st.FailRun(ctx, "missing", "x"), ErrNotFound)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var ids []string
	for _, q := range []string{"first", "second", "third"} {
		run, err := st.CreateRun(ctx, model.SearchRequest{Query: q, Limit: 10})
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, st.FailRun(ctx, ids[1], "boom"))

	all, err := st.ListRuns(ctx, model.RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Request.Query)
	assert.Equal(t, "first", all[2].Request.Query)

	failed, err := st.ListRuns(ctx, model.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, ids[1], failed[0].ID)

	page, err := st.ListRuns(ctx, model.RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Request.Query)
}

func TestSQLite_ListRuns_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	runs, err := st.ListRuns(context.Background(), model.RunFilter{})
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

// --- Page Cache ---

func TestSQLite_PageCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	page := model.Page{URL: "https://dir.example/list", Title: "List", HTML: "<p>Acme</p>", StatusCode: 200}
	require.NoError(t, st.SetCachedPage(ctx, page, time.Hour))

	got, err := st.GetCachedPage(ctx, "https://dir.example/list")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "<p>Acme</p>", got.HTML)
	assert.Equal(t, "List", got.Title)
	assert.False(t, got.FetchedAt.IsZero())
}

func TestSQLite_PageCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetCachedPage(context.Background(), "https://nope.example")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_PageCache_ExpiredAndPrune(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedPage(ctx, model.Page{URL: "https://old.example", HTML: "old"}, -time.Hour))
	require.NoError(t, st.SetCachedPage(ctx, model.Page{URL: "https://new.example", HTML: "new"}, time.Hour))

	got, err := st.GetCachedPage(ctx, "https://old.example")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := st.DeleteExpiredPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = st.GetCachedPage(ctx, "https://new.example")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestSQLite_PageCache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedPage(ctx, model.Page{URL: "https://a.example", HTML: "v1"}, time.Hour))
	require.NoError(t, st.SetCachedPage(ctx, model.Page{URL: "https://a.example", HTML: "v2"}, time.Hour))

	got, err := st.GetCachedPage(ctx, "https://a.example")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.HTML)
}

// --- Open ---

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"), nil)
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck

	_, err = st.CreateRun(context.Background(), model.SearchRequest{Query: "q", Limit: 1})
	assert.NoError(t, err)
}

func TestOpen_None(t *testing.T) {
	st, err := Open(context.Background(), "none", "", nil)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "", nil)
	assert.ErrorContains(t, err, "unknown driver")

	_, err = Open(context.Background(), "postgres", "", nil)
	assert.ErrorContains(t, err, "requires a database_url")
}
