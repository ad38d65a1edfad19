// Package pilot gates free reports during the pilot window: one report per CPF,
// at most one feedback per report.
package pilot

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
)

const (
	DefaultSalt     = "lokao-piloto-v1"
	DefaultDuration = 48 * time.Hour

	maxUserAgent = 180
	tokenBytes   = 24
)

// Rejection reasons reported in Result.Reason.
const (
	ReasonWindowClosed     = "janela_encerrada"
	ReasonInvalidCPF       = "cpf_invalido"
	ReasonAlreadyUsed      = "ja_utilizado"
	ReasonInvalidToken     = "token_invalido"
	ReasonFeedbackRepeated = "feedback_repetido"
	ReasonCPFNotFound      = "cpf_nao_encontrado"
)

// Audit event types.
const (
	EventWindowClosed    = "janela_encerrada"
	EventInvalidCPF      = "cpf_invalido"
	EventRepeatedAttempt = "tentativa_repetida"
	EventReportGenerated = "relatorio_gerado"
	EventFeedbackRepeat  = "feedback_repetido"
	EventFeedbackSent    = "feedback_enviado"
	EventCPFReleased     = "cpf_liberado_admin"
)

// Client identifies the caller for audit events.
type Client struct {
	IP        string
	UserAgent string
}

type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"motivo,omitempty"`
	Token  string `json:"token,omitempty"`
}

type ReleaseResult struct {
	OK           bool   `json:"ok"`
	Reason       string `json:"motivo,omitempty"`
	RemovedToken string `json:"token_removido,omitempty"`
}

type WindowView struct {
	Start  string `json:"inicio"`
	End    string `json:"fim"`
	Active bool   `json:"ativo"`
}

type Metrics struct {
	Window          WindowView `json:"janela"`
	TotalGenerated  int        `json:"total_gerados"`
	TotalFeedback   int        `json:"total_feedback"`
	FeedbackRatePct float64    `json:"taxa_feedback_pct"`
	EventsTotal     int        `json:"eventos_total"`
}

type FeedbackView struct {
	Timestamp string            `json:"ts"`
	Token     string            `json:"token"`
	Answers   map[string]string `json:"respostas"`
}

type EventView struct {
	Timestamp string `json:"ts"`
	Type      string `json:"tipo"`
	Token     string `json:"token"`
}

type AdminView struct {
	Metrics  Metrics        `json:"metricas"`
	Feedback []FeedbackView `json:"feedback"`
	Events   []EventView    `json:"eventos"`
}

type Options struct {
	Salt     string
	Duration time.Duration
	Sink     EventSink
	Logger   *logging.Logger
	// Now and NewToken default to the wall clock and crypto/rand.
	Now      func() time.Time
	NewToken func() (string, error)
}

type Service struct {
	store    Store
	sink     EventSink
	log      *logging.Logger
	salt     string
	duration time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:    store,
		sink:     opts.Sink,
		log:      logging.OrNop(opts.Logger).With("component", "pilot"),
		salt:     opts.Salt,
		duration: opts.Duration,
		now:      opts.Now,
		newToken: opts.NewToken,
	}
	if s.salt == "" {
		s.salt = DefaultSalt
	}
	if s.duration <= 0 {
		s.duration = DefaultDuration
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newToken == nil {
		s.newToken = randomToken
	}
	return s
}

func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Service) clock() time.Time { return s.now().UTC().Truncate(time.Second) }

// update runs fn in a store transaction, then mirrors the events it recorded.
func (s *Service) update(ctx context.Context, fn func(tx Tx, rec *recorder) error) error {
	var rec *recorder
	err := s.store.Update(ctx, func(tx Tx) error {
		rec = &recorder{tx: tx, now: s.clock()}
		return fn(tx, rec)
	})
	if err != nil {
		return err
	}
	s.mirror(rec.events)
	return nil
}

func (s *Service) mirror(events []domain.AuditEvent) {
	if s.sink == nil {
		return
	}
	for _, ev := range events {
		if err := s.sink.Append(ev); err != nil {
			s.log.Warn("append audit log failed", "event", ev.Type, "error", err)
		}
	}
}

type recorder struct {
	tx     Tx
	now    time.Time
	events []domain.AuditEvent
}

func (r *recorder) record(kind, cpfHash, token string, c Client) error {
	ua := c.UserAgent
	if len(ua) > maxUserAgent {
		ua = truncateRunes(ua, maxUserAgent)
	}
	ev := domain.AuditEvent{
		Timestamp: domain.FormatTime(r.now),
		Type:      kind,
		CPFHash:   cpfHash,
		Token:     token,
		IPHash:    hashIP(c.IP),
		UserAgent: ua,
	}
	if err := r.tx.AppendEvent(ev); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	r.events = append(r.events, ev)
	return nil
}

// truncateRunes keeps the first n characters of s.
func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func (s *Service) ensureWindow(tx Tx, now time.Time) (domain.PilotWindow, error) {
	w, err := tx.Window()
	if err != nil {
		return w, fmt.Errorf("read window: %w", err)
	}
	if !w.IsZero() {
		return w, nil
	}
	w = domain.PilotWindow{Start: now, End: now.Add(s.duration)}
	if err := tx.SetWindow(w); err != nil {
		return w, fmt.Errorf("set window: %w", err)
	}
	s.log.Info("pilot window opened", "start", domain.FormatTime(w.Start), "end", domain.FormatTime(w.End))
	return w, nil
}

func (s *Service) view(w domain.PilotWindow) WindowView {
	return WindowView{
		Start:  domain.FormatTime(w.Start),
		End:    domain.FormatTime(w.End),
		Active: w.Active(s.clock()),
	}
}

// Window opens the pilot window on first use and reports it.
func (s *Service) Window(ctx context.Context) (WindowView, error) {
	var w domain.PilotWindow
	err := s.update(ctx, func(tx Tx, rec *recorder) error {
		var err error
		w, err = s.ensureWindow(tx, rec.now)
		return err
	})
	if err != nil {
		return WindowView{}, err
	}
	return s.view(w), nil
}

// RegisterUniqueGeneration claims the single pilot report of a CPF.
// A repeated claim returns the existing token with ReasonAlreadyUsed.
func (s *Service) RegisterUniqueGeneration(ctx context.Context, cpf string, c Client) (Result, error) {
	var res Result
	err := s.update(ctx, func(tx Tx, rec *recorder) error {
		w, err := s.ensureWindow(tx, rec.now)
		if err != nil {
			return err
		}
		if !w.Active(rec.now) {
			res = Result{Reason: ReasonWindowClosed}
			return rec.record(EventWindowClosed, "", "", c)
		}

		digits := NormalizeCPF(cpf)
		if !ValidCPF(digits) {
			res = Result{Reason: ReasonInvalidCPF}
			return rec.record(EventInvalidCPF, "", "", c)
		}

		hash := HashCPF(s.salt, digits)
		existing, ok, err := tx.CPF(hash)
		if err != nil {
			return fmt.Errorf("read cpf: %w", err)
		}
		if ok && existing.ReportToken != "" {
			res = Result{Reason: ReasonAlreadyUsed, Token: existing.ReportToken}
			return rec.record(EventRepeatedAttempt, hash, existing.ReportToken, c)
		}

		token, err := s.newToken()
		if err != nil {
			return err
		}
		if err := tx.PutCPF(hash, domain.PilotCPFRecord{
			ReportToken: token,
			CreatedAt:   domain.FormatTime(rec.now),
		}); err != nil {
			return fmt.Errorf("put cpf: %w", err)
		}
		if err := tx.PutToken(token, hash); err != nil {
			return fmt.Errorf("put token: %w", err)
		}
		res = Result{OK: true, Token: token}
		return rec.record(EventReportGenerated, hash, token, c)
	})
	if err != nil {
		return Result{}, fmt.Errorf("register pilot generation: %w", err)
	}
	if res.OK {
		s.log.Info("pilot report generated", "token", res.Token)
	}
	return res, nil
}

// owner resolves token to its CPF record.
func owner(tx Tx, token string) (string, domain.PilotCPFRecord, bool, error) {
	if token == "" {
		return "", domain.PilotCPFRecord{}, false, nil
	}
	hash, ok, err := tx.TokenOwner(token)
	if err != nil || !ok {
		return "", domain.PilotCPFRecord{}, false, err
	}
	rec, ok, err := tx.CPF(hash)
	if err != nil || !ok {
		return hash, domain.PilotCPFRecord{}, false, err
	}
	return hash, rec, true, nil
}

// TokenValid reports whether token maps to a CPF that still holds a record.
func (s *Service) TokenValid(ctx context.Context, token string) (bool, error) {
	var valid bool
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		_, _, valid, err = owner(tx, strings.TrimSpace(token))
		return err
	})
	return valid, err
}

func (s *Service) FeedbackAlreadySent(ctx context.Context, token string) (bool, error) {
	var sent bool
	err := s.store.View(ctx, func(tx Tx) error {
		_, rec, ok, err := owner(tx, strings.TrimSpace(token))
		sent = ok && rec.FeedbackSubmittedAt != ""
		return err
	})
	return sent, err
}

// RegisterFeedback stores the answers of a pilot report. Each CPF may answer once.
func (s *Service) RegisterFeedback(ctx context.Context, token string, answers map[string]string, c Client) (Result, error) {
	token = strings.TrimSpace(token)
	var res Result
	err := s.update(ctx, func(tx Tx, rec *recorder) error {
		hash, cpfRec, ok, err := owner(tx, token)
		if err != nil {
			return err
		}
		if !ok {
			res = Result{Reason: ReasonInvalidToken}
			return nil
		}
		if cpfRec.FeedbackSubmittedAt != "" {
			res = Result{Reason: ReasonFeedbackRepeated}
			return rec.record(EventFeedbackRepeat, hash, token, c)
		}
		if answers == nil {
			answers = map[string]string{}
		}
		ts := domain.FormatTime(rec.now)
		if err := tx.AppendFeedback(domain.FeedbackRecord{
			Token:     token,
			CPFHash:   hash,
			Timestamp: ts,
			Answers:   answers,
		}); err != nil {
			return fmt.Errorf("append feedback: %w", err)
		}
		cpfRec.FeedbackSubmittedAt = ts
		if err := tx.PutCPF(hash, cpfRec); err != nil {
			return fmt.Errorf("stamp feedback: %w", err)
		}
		res = Result{OK: true}
		return rec.record(EventFeedbackSent, hash, token, c)
	})
	if err != nil {
		return Result{}, fmt.Errorf("register pilot feedback: %w", err)
	}
	return res, nil
}

// ReleaseCPF deletes a CPF claim with its token and feedback so the CPF can test again.
func (s *Service) ReleaseCPF(ctx context.Context, cpf string) (ReleaseResult, error) {
	digits := NormalizeCPF(cpf)
	if !ValidCPF(digits) {
		return ReleaseResult{Reason: ReasonInvalidCPF}, nil
	}
	hash := HashCPF(s.salt, digits)

	var res ReleaseResult
	err := s.update(ctx, func(tx Tx, rec *recorder) error {
		cpfRec, ok, err := tx.CPF(hash)
		if err != nil {
			return fmt.Errorf("read cpf: %w", err)
		}
		if !ok {
			res = ReleaseResult{Reason: ReasonCPFNotFound}
			return nil
		}
		if err := tx.DeleteCPF(hash); err != nil {
			return fmt.Errorf("delete cpf: %w", err)
		}
		if token := cpfRec.ReportToken; token != "" {
			if err := tx.DeleteToken(token); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			if err := tx.DeleteFeedback(token); err != nil {
				return fmt.Errorf("delete feedback: %w", err)
			}
		}
		res = ReleaseResult{OK: true, RemovedToken: cpfRec.ReportToken}
		return rec.record(EventCPFReleased, hash, cpfRec.ReportToken, Client{})
	})
	if err != nil {
		return ReleaseResult{}, fmt.Errorf("release pilot cpf: %w", err)
	}
	if res.OK {
		s.log.Info("pilot cpf released", "cpf_hash", hash)
	}
	return res, nil
}

// RecordEvent appends a free-form audit event such as a page view.
func (s *Service) RecordEvent(ctx context.Context, kind, token string, c Client) error {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil
	}
	return s.update(ctx, func(_ Tx, rec *recorder) error {
		return rec.record(kind, "", strings.TrimSpace(token), c)
	})
}

func (s *Service) Metrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	err := s.update(ctx, func(tx Tx, rec *recorder) error {
		var err error
		m, err = s.metrics(tx, rec.now)
		return err
	})
	return m, err
}

func (s *Service) metrics(tx Tx, now time.Time) (Metrics, error) {
	w, err := s.ensureWindow(tx, now)
	if err != nil {
		return Metrics{}, err
	}
	c, err := tx.Counts()
	if err != nil {
		return Metrics{}, fmt.Errorf("count pilot state: %w", err)
	}
	rate := 0.0
	if c.Generated > 0 {
		rate = math.Round(float64(c.Feedback)/float64(c.Generated)*1000) / 10
	}
	return Metrics{
		Window:          s.view(w),
		TotalGenerated:  c.Generated,
		TotalFeedback:   c.Feedback,
		FeedbackRatePct: rate,
		EventsTotal:     c.Events,
	}, nil
}

// Admin returns metrics plus the newest feedback and events, newest first.
func (s *Service) Admin(ctx context.Context, feedbackLimit, eventLimit int) (AdminView, error) {
	if feedbackLimit <= 0 {
		feedbackLimit = 30
	}
	if eventLimit <= 0 {
		eventLimit = 60
	}
	var v AdminView
	err := s.update(ctx, func(tx Tx, rec *recorder) error {
		m, err := s.metrics(tx, rec.now)
		if err != nil {
			return err
		}
		fb, err := tx.RecentFeedback(feedbackLimit)
		if err != nil {
			return fmt.Errorf("list feedback: %w", err)
		}
		evs, err := tx.RecentEvents(eventLimit)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		v = AdminView{
			Metrics:  m,
			Feedback: make([]FeedbackView, 0, len(fb)),
			Events:   make([]EventView, 0, len(evs)),
		}
		for i := len(fb) - 1; i >= 0; i-- {
			v.Feedback = append(v.Feedback, FeedbackView{
				Timestamp: fb[i].Timestamp,
				Token:     shortToken(fb[i].Token),
				Answers:   fb[i].Answers,
			})
		}
		for i := len(evs) - 1; i >= 0; i-- {
			v.Events = append(v.Events, EventView{
				Timestamp: evs[i].Timestamp,
				Type:      evs[i].Type,
				Token:     shortToken(evs[i].Token),
			})
		}
		return nil
	})
	return v, err
}

func shortToken(t string) string {
	if len(t) > 8 {
		return t[:8]
	}
	return t
}
