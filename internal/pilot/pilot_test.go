package pilot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
)

type memStore struct {
	mu    sync.Mutex
	state *domain.PilotState
}

func newMemStore() *memStore { return &memStore{state: domain.NewPilotState()} }

func (m *memStore) Update(_ context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(NewStateTx(m.state))
}

func (m *memStore) View(ctx context.Context, fn func(Tx) error) error {
	return m.Update(ctx, fn)
}

type memSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *memSink) Append(ev domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *memStore, *memSink, *fakeClock) {
	t.Helper()
	store := newMemStore()
	sink := &memSink{}
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	n := 0
	svc := NewService(store, Options{
		Sink: sink,
		Now:  clock.Now,
		NewToken: func() (string, error) {
			n++
			return fmt.Sprintf("token-%02d-abcdefgh", n), nil
		},
	})
	return svc, store, sink, clock
}

const validCPF = "111.444.777-35"

func TestValidCPF(t *testing.T) {
	assert.True(t, ValidCPF("11144477735"))
	assert.True(t, ValidCPF(NormalizeCPF(validCPF)))
	assert.False(t, ValidCPF("11111111111"))
	assert.False(t, ValidCPF("1114447773"))
	assert.False(t, ValidCPF("11144477736"))
	assert.False(t, ValidCPF("abcdefghijk"))
	assert.False(t, ValidCPF(""))
}

func TestHashCPF(t *testing.T) {
	h := HashCPF(DefaultSalt, "11144477735")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashCPF(DefaultSalt, "11144477735"))
	assert.NotEqual(t, h, HashCPF("other", "11144477735"))
}

func TestWindowOpensOnceAndIsInclusive(t *testing.T) {
	ctx := context.Background()
	svc, _, _, clock := newTestService(t)

	w, err := svc.Window(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10T12:00:00Z", w.Start)
	assert.Equal(t, "2026-03-12T12:00:00Z", w.End)
	assert.True(t, w.Active)

	clock.t = clock.t.Add(48 * time.Hour)
	w, err = svc.Window(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10T12:00:00Z", w.Start)
	assert.True(t, w.Active, "end instant is inside the window")

	clock.t = clock.t.Add(time.Second)
	w, err = svc.Window(ctx)
	require.NoError(t, err)
	assert.False(t, w.Active)
}

func TestRegisterUniqueGeneration(t *testing.T) {
	ctx := context.Background()
	svc, store, sink, _ := newTestService(t)
	c := Client{IP: "10.0.0.1", UserAgent: strings.Repeat("a", 300)}

	first, err := svc.RegisterUniqueGeneration(ctx, validCPF, c)
	require.NoError(t, err)
	require.True(t, first.OK)
	assert.Equal(t, "token-01-abcdefgh", first.Token)

	second, err := svc.RegisterUniqueGeneration(ctx, "11144477735", c)
	require.NoError(t, err)
	assert.Equal(t, Result{Reason: ReasonAlreadyUsed, Token: first.Token}, second)

	bad, err := svc.RegisterUniqueGeneration(ctx, "11111111111", c)
	require.NoError(t, err)
	assert.Equal(t, Result{Reason: ReasonInvalidCPF}, bad)

	hash := HashCPF(DefaultSalt, "11144477735")
	assert.Equal(t, hash, store.state.Tokens[first.Token])
	assert.Equal(t, "2026-03-10T12:00:00Z", store.state.CPFs[hash].CreatedAt)

	require.Len(t, store.state.Events, 3)
	assert.Equal(t, EventReportGenerated, store.state.Events[0].Type)
	assert.Equal(t, EventRepeatedAttempt, store.state.Events[1].Type)
	assert.Equal(t, EventInvalidCPF, store.state.Events[2].Type)
	assert.Len(t, store.state.Events[0].UserAgent, 180)
	assert.Len(t, store.state.Events[0].IPHash, 64)
	assert.Equal(t, store.state.Events, sink.events)
}

func TestRegisterAfterWindowCloses(t *testing.T) {
	ctx := context.Background()
	svc, store, _, clock := newTestService(t)

	_, err := svc.Window(ctx)
	require.NoError(t, err)
	clock.t = clock.t.Add(49 * time.Hour)

	res, err := svc.RegisterUniqueGeneration(ctx, validCPF, Client{})
	require.NoError(t, err)
	assert.Equal(t, Result{Reason: ReasonWindowClosed}, res)
	assert.Empty(t, store.state.CPFs)
}

func TestFeedbackLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService(t)

	gen, err := svc.RegisterUniqueGeneration(ctx, validCPF, Client{})
	require.NoError(t, err)

	valid, err := svc.TokenValid(ctx, gen.Token)
	require.NoError(t, err)
	assert.True(t, valid)

	sent, err := svc.FeedbackAlreadySent(ctx, gen.Token)
	require.NoError(t, err)
	assert.False(t, sent)

	res, err := svc.RegisterFeedback(ctx, gen.Token, map[string]string{"nota": "9"}, Client{})
	require.NoError(t, err)
	assert.True(t, res.OK)

	sent, err = svc.FeedbackAlreadySent(ctx, gen.Token)
	require.NoError(t, err)
	assert.True(t, sent)

	again, err := svc.RegisterFeedback(ctx, gen.Token, map[string]string{"nota": "1"}, Client{})
	require.NoError(t, err)
	assert.Equal(t, Result{Reason: ReasonFeedbackRepeated}, again)
	assert.Len(t, store.state.Feedback, 1)

	unknown, err := svc.RegisterFeedback(ctx, "nope", nil, Client{})
	require.NoError(t, err)
	assert.Equal(t, Result{Reason: ReasonInvalidToken}, unknown)
}

func TestReleaseCPF(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService(t)

	res, err := svc.ReleaseCPF(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidCPF, res.Reason)

	res, err = svc.ReleaseCPF(ctx, validCPF)
	require.NoError(t, err)
	assert.Equal(t, ReasonCPFNotFound, res.Reason)

	gen, err := svc.RegisterUniqueGeneration(ctx, validCPF, Client{})
	require.NoError(t, err)
	_, err = svc.RegisterFeedback(ctx, gen.Token, map[string]string{"nota": "8"}, Client{})
	require.NoError(t, err)

	res, err = svc.ReleaseCPF(ctx, validCPF)
	require.NoError(t, err)
	assert.Equal(t, ReleaseResult{OK: true, RemovedToken: gen.Token}, res)
	assert.Empty(t, store.state.CPFs)
	assert.Empty(t, store.state.Tokens)
	assert.Empty(t, store.state.Feedback)

	valid, err := svc.TokenValid(ctx, gen.Token)
	require.NoError(t, err)
	assert.False(t, valid)

	fb, err := svc.RegisterFeedback(ctx, gen.Token, nil, Client{})
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidToken, fb.Reason)

	regen, err := svc.RegisterUniqueGeneration(ctx, validCPF, Client{})
	require.NoError(t, err)
	assert.True(t, regen.OK)
	assert.NotEqual(t, gen.Token, regen.Token)
}

func TestMetricsAndAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t)

	for _, cpf := range []string{"11144477735", "52998224725", "39053344705"} {
		res, err := svc.RegisterUniqueGeneration(ctx, cpf, Client{})
		require.NoError(t, err)
		require.True(t, res.OK, cpf)
	}
	_, err := svc.RegisterFeedback(ctx, "token-01-abcdefgh", map[string]string{"nota": "7"}, Client{})
	require.NoError(t, err)
	require.NoError(t, svc.RecordEvent(ctx, "visualizou_relatorio", "token-02-abcdefgh", Client{}))

	m, err := svc.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalGenerated)
	assert.Equal(t, 1, m.TotalFeedback)
	assert.Equal(t, 33.3, m.FeedbackRatePct)
	assert.Equal(t, 5, m.EventsTotal)
	assert.True(t, m.Window.Active)

	v, err := svc.Admin(ctx, 30, 2)
	require.NoError(t, err)
	require.Len(t, v.Feedback, 1)
	assert.Equal(t, "token-01", v.Feedback[0].Token)
	require.Len(t, v.Events, 2)
	assert.Equal(t, "visualizou_relatorio", v.Events[0].Type)
	assert.Equal(t, EventFeedbackSent, v.Events[1].Type)
}

func TestConcurrentClaimsYieldOneToken(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, Options{})

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.RegisterUniqueGeneration(ctx, validCPF, Client{})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, store.state.Tokens, 1)
}
