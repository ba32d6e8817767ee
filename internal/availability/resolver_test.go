package availability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"archive-viewer/internal/adapters/source"
	"archive-viewer/internal/domain"
	"archive-viewer/internal/sample"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingSource считает обращения к каждому пути и может задерживать ответы до release.
type countingSource struct {
	files   map[string][]byte
	errs    map[string]error
	release chan struct{}

	mu    sync.Mutex
	calls map[string]int
}

func newCountingSource(files map[string]string) *countingSource {
	s := &countingSource{files: map[string][]byte{}, errs: map[string]error{}, calls: map[string]int{}}
	for k, v := range files {
		s.files[k] = []byte(v)
	}
	return s
}

func (s *countingSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	s.calls[path]++
	s.mu.Unlock()

	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.errs[path]; ok {
		return nil, err
	}
	data, ok := s.files[path]
	if !ok {
		return nil, source.ErrNotFound
	}
	return data, nil
}

func (s *countingSource) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func newResolver(src *countingSource) *Resolver {
	return NewResolver(DefaultStrategies(src, nil, ""), WithLogger(quietLogger()))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Даты индекса объединяются с первым манифестом", func(t *testing.T) {
		src := newCountingSource(map[string]string{
			"days/manifest.json": `{"dates": ["2025-08-26", "2025-08-24"]}`,
			"dates.json":         `["2030-01-01"]`,
		})
		index := &domain.IndexData{AvailableDates: []string{"2025/8/24", "2025-08-20T10:00:00"}}

		res, err := newResolver(src).Resolve(ctx, index)

		require.NoError(t, err)
		assert.Equal(t, []string{"2025-08-20", "2025-08-24", "2025-08-26"}, res.Dates)
		assert.Equal(t, SourceManifest, res.Source)
		assert.Equal(t, "days/manifest.json", res.Endpoint)
		assert.Equal(t, 2, res.IndexDates)
		assert.False(t, res.Exhausted)
		assert.Equal(t, 1, src.count("days/index.json"))
		assert.Zero(t, src.count("dates.json"), "после успешного манифеста остальные не запрашиваются")
		assert.Zero(t, src.count(DefaultListingPath))
	})

	t.Run("Пустой манифест не побеждает", func(t *testing.T) {
		src := newCountingSource(map[string]string{
			"days/index.json":      `{"dates": []}`,
			"days/manifest.json":   `{"dates": ["not a date"]}`,
			"available_dates.json": `{"availableDates": ["2025-09-01"]}`,
		})

		res, err := newResolver(src).Resolve(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"2025-09-01"}, res.Dates)
		assert.Equal(t, "available_dates.json", res.Endpoint)
	})

	t.Run("Ошибка манифеста пропускается", func(t *testing.T) {
		src := newCountingSource(map[string]string{
			"days/manifest.json": `{"dates": ["2025-09-01"]}`,
		})
		src.errs["days/index.json"] = errors.New("boom")

		res, err := newResolver(src).Resolve(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"2025-09-01"}, res.Dates)
	})

	t.Run("Листинг используется, только если манифестов нет", func(t *testing.T) {
		src := newCountingSource(map[string]string{
			DefaultListingPath: `<a href="2025-09-02/">2025-09-02/</a><a href="2025-09-01/">2025-09-01/</a>`,
		})

		res, err := newResolver(src).Resolve(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"2025-09-01", "2025-09-02"}, res.Dates)
		assert.Equal(t, SourceListing, res.Source)
		for _, p := range DefaultManifestPaths {
			assert.Equal(t, 1, src.count(p), p)
		}
	})

	t.Run("Только даты индекса без примера", func(t *testing.T) {
		src := newCountingSource(nil)
		index := &domain.IndexData{AvailableDates: []string{"2025-09-03"}}

		res, err := newResolver(src).Resolve(ctx, index)

		require.NoError(t, err)
		assert.Equal(t, []string{"2025-09-03"}, res.Dates)
		assert.Equal(t, SourceIndex, res.Source)
		assert.False(t, res.Exhausted)
	})

	t.Run("Все источники пусты - даты примера", func(t *testing.T) {
		src := newCountingSource(nil)

		res, err := newResolver(src).Resolve(ctx, &domain.IndexData{})

		require.NoError(t, err)
		assert.Equal(t, sample.Dates(), res.Dates)
		assert.Equal(t, SourceSample, res.Source)
		assert.True(t, res.Exhausted)
	})

	t.Run("Отмена контекста", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := newResolver(newCountingSource(nil)).Resolve(cctx, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestResolveOutputIsStrictlyAscending(t *testing.T) {
	src := newCountingSource(map[string]string{
		"dates.json": `["2025-10-01", "2025/9/30", "2025.09.30 23:59:59", "2025-01-05", "2024-12-31"]`,
	})
	index := &domain.IndexData{AvailableDates: []string{"2025-01-05T00:00:00Z", "2025-9-30", "2025-02-01"}}

	res, err := newResolver(src).Resolve(context.Background(), index)

	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-31", "2025-01-05", "2025-02-01", "2025-09-30", "2025-10-01"}, res.Dates)
}

func TestAvailableDatesSharesOnePass(t *testing.T) {
	src := newCountingSource(map[string]string{
		"days/index.json": `["2025-08-25", "2025-08-24"]`,
	})
	src.release = make(chan struct{})
	r := newResolver(src)

	const callers = 16
	var (
		wg      sync.WaitGroup
		results = make([][]string, callers)
		errs    = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.AvailableDates(context.Background(), nil)
		}(i)
	}

	require.Eventually(t, func() bool { return src.count("days/index.json") == 1 }, time.Second, time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, 1, src.count("days/index.json"))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []string{"2025-08-24", "2025-08-25"}, results[i])
	}

	// Повторный вызов берется из памяти
	again, err := r.AvailableDates(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-08-24", "2025-08-25"}, again)
	assert.Equal(t, 1, src.count("days/index.json"))
}

func TestAvailableDatesCallerCancellation(t *testing.T) {
	src := newCountingSource(map[string]string{"days/index.json": `["2025-08-24"]`})
	src.release = make(chan struct{})
	r := newResolver(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.AvailableDates(ctx, nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return src.count("days/index.json") == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// Общий проход продолжился и его результат доступен следующему вызову
	close(src.release)
	dates, err := r.AvailableDates(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-08-24"}, dates)
	assert.Equal(t, 1, src.count("days/index.json"))
}

func TestAvailableDatesReturnsCopy(t *testing.T) {
	r := newResolver(newCountingSource(map[string]string{"dates.json": `["2025-08-24"]`}))

	first, err := r.AvailableDates(context.Background(), nil)
	require.NoError(t, err)
	first[0] = "mutated"

	second, err := r.AvailableDates(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-08-24"}, second)
}

func TestReset(t *testing.T) {
	src := newCountingSource(map[string]string{"dates.json": `["2025-08-24"]`})
	r := newResolver(src)

	_, err := r.AvailableDates(context.Background(), nil)
	require.NoError(t, err)
	src.files["dates.json"] = []byte(`["2025-08-24", "2025-08-25"]`)

	r.Reset()
	dates, err := r.AvailableDates(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"2025-08-24", "2025-08-25"}, dates)
	assert.Equal(t, 2, src.count("dates.json"))
}

func TestResolveOverHTTP(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/days/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="2025-08-30/">2025-08-30/</a></body></html>`))
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	src := source.NewHTTPSource(srv.URL, source.WithMaxRetries(0))
	r := NewResolver(DefaultStrategies(src, nil, ""), WithLogger(quietLogger()))

	res, err := r.Resolve(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"2025-08-30"}, res.Dates)
	assert.Equal(t, SourceListing, res.Source)
}

func TestResolveOverExportDirectory(t *testing.T) {
	root := t.TempDir()
	for _, day := range []string{"2024-01-03", "2024-01-02"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "days", day), 0o755))
	}

	r := NewResolver(DefaultStrategies(source.NewDirSource(root), nil, ""), WithLogger(quietLogger()))

	res, err := r.Resolve(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-02", "2024-01-03"}, res.Dates)
	assert.Equal(t, SourceListing, res.Source)
	assert.False(t, res.Exhausted)
}
