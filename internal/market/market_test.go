package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubFetcher struct {
	calls atomic.Int32
	value float64
	err   error
	gate  chan struct{}
}

func (f *stubFetcher) Fetch(ctx context.Context, _, _ string) (float64, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.value, f.err
}

var now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newResolver(t *testing.T, f Fetcher, external bool) (*Resolver, *FileCache) {
	t.Helper()
	cache := NewFileCache(filepath.Join(t.TempDir(), "mercado.json"), nil)
	return NewResolver(cache, Options{
		Fetcher:  f,
		External: external,
		Now:      func() time.Time { return now },
	}), cache
}

func TestCacheKeyNormalizes(t *testing.T) {
	assert.Equal(t, "jardim italia|casa", CacheKey("  Jardim Itália ", "CASA"))
}

func TestResolveFallbacks(t *testing.T) {
	ctx := context.Background()
	r, _ := newResolver(t, nil, false)

	got := r.Resolve(ctx, domain.Neighborhood{AveragePricePerSqm: 5200}, "Centro", "casa")
	assert.Equal(t, Context{Value: 5200, Source: SourceLokao, Origin: OriginLokao}, got)

	got = r.Resolve(ctx, domain.Neighborhood{}, "Centro", "casa")
	assert.Equal(t, Context{Source: SourceUnknown, Origin: OriginDefault}, got)
}

func TestResolveUsesFreshCache(t *testing.T) {
	ctx := context.Background()
	f := &stubFetcher{value: 9000}
	r, cache := newResolver(t, f, true)

	require.NoError(t, cache.Put(ctx, CacheKey("Centro", "casa"), Entry{
		Value: 7100, Source: SourceLokao, CollectedAt: "2026-04-30T10:00:00Z",
	}))
	got := r.Resolve(ctx, domain.Neighborhood{AveragePricePerSqm: 5200}, "Centro", "casa")
	assert.Equal(t, 7100.0, got.Value)
	assert.Equal(t, "2026-04-30T10:00:00Z", got.ReferenceDate)
	assert.Zero(t, f.calls.Load())
}

func TestResolveFetchesStaleAndCaches(t *testing.T) {
	ctx := context.Background()
	f := &stubFetcher{value: 9000}
	r, cache := newResolver(t, f, true)

	require.NoError(t, cache.Put(ctx, CacheKey("Centro", "casa"), Entry{
		Value: 7100, CollectedAt: "2026-04-01T10:00:00Z",
	}))
	got := r.Resolve(ctx, domain.Neighborhood{}, "Centro", "casa")
	assert.Equal(t, Context{Value: 9000, Source: SourceLokao, ReferenceDate: "2026-05-01T10:00:00Z", Origin: OriginLokao}, got)

	e, ok, err := cache.Get(ctx, CacheKey("Centro", "casa"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9000.0, e.Value)
}

func TestResolveFailureCooldown(t *testing.T) {
	ctx := context.Background()
	f := &stubFetcher{err: errors.New("boom")}
	r, cache := newResolver(t, f, true)
	n := domain.Neighborhood{AveragePricePerSqm: 4800}

	got := r.Resolve(ctx, n, "Centro", "casa")
	assert.Equal(t, 4800.0, got.Value)
	assert.EqualValues(t, 1, f.calls.Load())

	e, ok, err := cache.Get(ctx, CacheKey("Centro", "casa"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, e.Status)

	got = r.Resolve(ctx, n, "Centro", "casa")
	assert.Equal(t, 4800.0, got.Value)
	assert.EqualValues(t, 1, f.calls.Load(), "failure marker suppresses lookups during cooldown")

	later := now.Add(7 * time.Hour)
	r.now = func() time.Time { return later }
	r.Resolve(ctx, n, "Centro", "casa")
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestResolveCollapsesConcurrentLookups(t *testing.T) {
	ctx := context.Background()
	f := &stubFetcher{value: 6000, gate: make(chan struct{})}
	r, _ := newResolver(t, f, true)

	var wg sync.WaitGroup
	results := make([]Context, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(ctx, domain.Neighborhood{}, "Centro", "casa")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	for _, c := range results {
		assert.Equal(t, 6000.0, c.Value)
	}
	assert.LessOrEqual(t, f.calls.Load(), int32(len(results)))
	assert.GreaterOrEqual(t, f.calls.Load(), int32(1))
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("bairro") {
		case "Centro":
			assert.Equal(t, "apartamento", r.URL.Query().Get("tipo"))
			_, _ = w.Write([]byte(`{"valor":"R$ 6.250,00"}`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/m2", srv.Client())
	v, err := f.Fetch(context.Background(), "Centro", "apartamento")
	require.NoError(t, err)
	assert.Equal(t, 6250.0, v)

	_, err = f.Fetch(context.Background(), "Outro", "casa")
	assert.Error(t, err)
}
