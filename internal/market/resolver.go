// Package market resolves the price-per-square-meter context of a neighborhood:
// fresh cache, then an optional external lookup, then the catalog value.
package market

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
	"github.com/denisok6893-rgb/lokao-advisor/internal/textnorm"
)

const (
	SourceLokao   = "Base Lokao"
	SourceUnknown = "Nao informado"
	OriginLokao   = "base_lokao"
	OriginDefault = "fallback"

	defaultPropertyType = "casa"
)

// Context is the price context shown in the report.
type Context struct {
	Value         float64 `json:"valor"`
	Source        string  `json:"fonte"`
	ReferenceDate string  `json:"data_referencia"`
	Origin        string  `json:"origem"`
}

type Options struct {
	Fetcher  Fetcher
	External bool
	Timeout  time.Duration
	TTL      time.Duration
	Cooldown time.Duration
	Logger   *logging.Logger
	Now      func() time.Time
}

type Resolver struct {
	cache    Cache
	fetcher  Fetcher
	external bool
	timeout  time.Duration
	ttl      time.Duration
	cooldown time.Duration
	log      *logging.Logger
	now      func() time.Time
	group    singleflight.Group
}

func NewResolver(cache Cache, opts Options) *Resolver {
	r := &Resolver{
		cache:    cache,
		fetcher:  opts.Fetcher,
		external: opts.External && opts.Fetcher != nil,
		timeout:  opts.Timeout,
		ttl:      opts.TTL,
		cooldown: opts.Cooldown,
		log:      logging.OrNop(opts.Logger).With("component", "market"),
		now:      opts.Now,
	}
	if r.timeout <= 0 {
		r.timeout = 4 * time.Second
	}
	if r.ttl <= 0 {
		r.ttl = 168 * time.Hour
	}
	if r.cooldown <= 0 {
		r.cooldown = 6 * time.Hour
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// CacheKey is normalize(neighborhood)|normalize(propertyType).
func CacheKey(neighborhood, propertyType string) string {
	return textnorm.Key(neighborhood) + "|" + textnorm.Key(propertyType)
}

// Resolve never fails; lookup errors degrade to the next source.
func (r *Resolver) Resolve(ctx context.Context, n domain.Neighborhood, neighborhood, propertyType string) Context {
	key := CacheKey(neighborhood, propertyType)
	external := r.external

	if r.cache != nil {
		e, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn("market cache read failed", "lookup", key, "error", err)
		}
		if ok {
			if r.fresh(e, r.ttl) && e.Value > 0 {
				return Context{Value: e.Value, Source: SourceLokao, ReferenceDate: e.CollectedAt, Origin: OriginLokao}
			}
			if e.Status == StatusFailed && r.fresh(e, r.cooldown) {
				external = false
			}
		}
	}

	if external && neighborhood != "" {
		if c, ok := r.fetch(ctx, key, neighborhood, propertyType); ok {
			return c
		}
	}

	if n.AveragePricePerSqm > 0 {
		return Context{Value: n.AveragePricePerSqm, Source: SourceLokao, Origin: OriginLokao}
	}
	return Context{Value: 0, Source: SourceUnknown, Origin: OriginDefault}
}

// fetch collapses concurrent lookups of the same key into one external call.
func (r *Resolver) fetch(ctx context.Context, key, neighborhood, propertyType string) (Context, bool) {
	if propertyType == "" {
		propertyType = defaultPropertyType
	}
	v, _, _ := r.group.Do(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		stamp := domain.FormatTime(r.now())
		value, err := r.fetcher.Fetch(fctx, neighborhood, propertyType)
		if err != nil || value <= 0 {
			r.log.Warn("market lookup failed", "lookup", key, "error", err)
			r.put(ctx, key, Entry{
				Status:        StatusFailed,
				Source:        "falha_coleta",
				CollectedAt:   stamp,
				CooldownHours: r.cooldown.Hours(),
			})
			return Context{}, nil
		}
		r.put(ctx, key, Entry{Value: value, Source: SourceLokao, CollectedAt: stamp})
		return Context{Value: value, Source: SourceLokao, ReferenceDate: stamp, Origin: OriginLokao}, nil
	})
	c := v.(Context)
	return c, c.Value > 0
}

func (r *Resolver) put(ctx context.Context, key string, e Entry) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(context.WithoutCancel(ctx), key, e); err != nil {
		r.log.Warn("market cache write failed", "lookup", key, "error", err)
	}
}

// fresh reports whether e was collected within maxAge.
func (r *Resolver) fresh(e Entry, maxAge time.Duration) bool {
	at, ok := parseCollected(e.CollectedAt)
	if !ok {
		return false
	}
	return r.now().Sub(at) <= maxAge
}

// parseCollected accepts UTC stamps and the zone-less local form of older caches.
func parseCollected(s string) (time.Time, bool) {
	if t, ok := domain.ParseTime(s); ok {
		return t, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
