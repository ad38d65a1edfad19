package pilot

import (
	"context"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
)

// Tx is the view of pilot state inside one Store transaction.
type Tx interface {
	Window() (domain.PilotWindow, error)
	SetWindow(w domain.PilotWindow) error

	CPF(hash string) (domain.PilotCPFRecord, bool, error)
	PutCPF(hash string, rec domain.PilotCPFRecord) error
	DeleteCPF(hash string) error

	TokenOwner(token string) (string, bool, error)
	PutToken(token, hash string) error
	DeleteToken(token string) error

	AppendFeedback(f domain.FeedbackRecord) error
	DeleteFeedback(token string) error
	// RecentFeedback returns the last limit records, oldest first.
	RecentFeedback(limit int) ([]domain.FeedbackRecord, error)

	AppendEvent(ev domain.AuditEvent) error
	RecentEvents(limit int) ([]domain.AuditEvent, error)

	Counts() (domain.PilotCounts, error)
}

// Store runs fn against pilot state. Update commits when fn returns nil and
// serializes with every other Update on the same store.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// EventSink receives a copy of every committed audit event.
type EventSink interface {
	Append(ev domain.AuditEvent) error
}

// StateTx adapts an in-memory PilotState document to Tx.
type StateTx struct {
	State *domain.PilotState
}

func NewStateTx(st *domain.PilotState) *StateTx {
	if st == nil {
		st = domain.NewPilotState()
	}
	if st.CPFs == nil {
		st.CPFs = map[string]domain.PilotCPFRecord{}
	}
	if st.Tokens == nil {
		st.Tokens = map[string]string{}
	}
	return &StateTx{State: st}
}

func (t *StateTx) Window() (domain.PilotWindow, error) {
	start, ok1 := domain.ParseTime(t.State.WindowStart)
	end, ok2 := domain.ParseTime(t.State.WindowEnd)
	if !ok1 || !ok2 {
		return domain.PilotWindow{}, nil
	}
	return domain.PilotWindow{Start: start, End: end}, nil
}

func (t *StateTx) SetWindow(w domain.PilotWindow) error {
	t.State.WindowStart = domain.FormatTime(w.Start)
	t.State.WindowEnd = domain.FormatTime(w.End)
	return nil
}

func (t *StateTx) CPF(hash string) (domain.PilotCPFRecord, bool, error) {
	rec, ok := t.State.CPFs[hash]
	return rec, ok, nil
}

func (t *StateTx) PutCPF(hash string, rec domain.PilotCPFRecord) error {
	t.State.CPFs[hash] = rec
	return nil
}

func (t *StateTx) DeleteCPF(hash string) error {
	delete(t.State.CPFs, hash)
	return nil
}

func (t *StateTx) TokenOwner(token string) (string, bool, error) {
	h, ok := t.State.Tokens[token]
	return h, ok && h != "", nil
}

func (t *StateTx) PutToken(token, hash string) error {
	t.State.Tokens[token] = hash
	return nil
}

func (t *StateTx) DeleteToken(token string) error {
	delete(t.State.Tokens, token)
	return nil
}

func (t *StateTx) AppendFeedback(f domain.FeedbackRecord) error {
	t.State.Feedback = append(t.State.Feedback, f)
	return nil
}

func (t *StateTx) DeleteFeedback(token string) error {
	kept := t.State.Feedback[:0]
	for _, f := range t.State.Feedback {
		if f.Token != token {
			kept = append(kept, f)
		}
	}
	t.State.Feedback = kept
	return nil
}

func (t *StateTx) RecentFeedback(limit int) ([]domain.FeedbackRecord, error) {
	return append([]domain.FeedbackRecord(nil), tail(t.State.Feedback, limit)...), nil
}

func (t *StateTx) AppendEvent(ev domain.AuditEvent) error {
	t.State.Events = append(t.State.Events, ev)
	return nil
}

func (t *StateTx) RecentEvents(limit int) ([]domain.AuditEvent, error) {
	return append([]domain.AuditEvent(nil), tail(t.State.Events, limit)...), nil
}

func (t *StateTx) Counts() (domain.PilotCounts, error) {
	var c domain.PilotCounts
	for _, rec := range t.State.CPFs {
		if rec.ReportToken != "" {
			c.Generated++
		}
		if rec.FeedbackSubmittedAt != "" {
			c.Feedback++
		}
	}
	c.Events = len(t.State.Events)
	return c, nil
}

func tail[T any](s []T, n int) []T {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
