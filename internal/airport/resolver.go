package airport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// DefaultCacheTTL bounds how long a resolution is reused for the same input.
const DefaultCacheTTL = 30 * time.Minute

// ErrUnresolved is returned when neither the lookup nor the table can produce a valid record.
var ErrUnresolved = errors.New("departure location could not be resolved")

// Lookup identifies an airport from free text using an external service.
type Lookup interface {
	IdentifyAirport(ctx context.Context, location string) (models.AirportRecord, error)
}

// Opts holds configuration options for the Resolver.
type Opts struct {
	Lookup   Lookup
	Table    *Table
	CacheTTL time.Duration
}

// Option defines a configuration option for the Resolver.
type Option func(*Opts)

// WithLookup sets the external lookup tried before the local table.
func WithLookup(l Lookup) Option {
	return func(o *Opts) {
		o.Lookup = l
	}
}

// WithTable replaces the builtin matching table.
func WithTable(t *Table) Option {
	return func(o *Opts) {
		o.Table = t
	}
}

// WithCacheTTL sets the lifetime of cached resolutions. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Opts) {
		o.CacheTTL = ttl
	}
}

// Resolver maps departure text to an AirportRecord.
type Resolver struct {
	lookup Lookup
	table  *Table
	cache  *cache.Cache
}

// NewResolver builds a Resolver. Without WithTable the builtin table is used.
func NewResolver(opts ...Option) (*Resolver, error) {
	cfg := Opts{CacheTTL: DefaultCacheTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewResolver invoked", "lookup_set", cfg.Lookup != nil, "table_set", cfg.Table != nil, "cacheTTL", cfg.CacheTTL)

	table := cfg.Table
	if table == nil {
		var err error
		table, err = BuiltinTable()
		if err != nil {
			return nil, err
		}
	}
	if _, ok := table.Default(); !ok {
		slog.Warn("Airport table has no usable default entry", "default", table.DefaultKey)
	}

	r := &Resolver{lookup: cfg.Lookup, table: table}
	if cfg.CacheTTL > 0 {
		r.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return r, nil
}

// Resolve returns a well-formed record for text. The external lookup is tried first
// and any failure falls back to the table, then to the table default.
func (r *Resolver) Resolve(ctx context.Context, text string) (models.AirportRecord, error) {
	normalized := normalize(text)
	slog.Debug("Resolver.Resolve invoked", "input", normalized)

	if r.cache != nil {
		if v, ok := r.cache.Get(normalized); ok {
			slog.Debug("Resolver.Resolve cache hit", "input", normalized)
			return v.(models.AirportRecord), nil
		}
	}

	if rec, ok := r.external(ctx, strings.TrimSpace(text)); ok {
		r.remember(normalized, rec)
		return rec, nil
	}

	rec, matched := r.table.Match(normalized)
	if !matched {
		rec, matched = r.table.Default()
		slog.Debug("Resolver.Resolve using default airport", "input", normalized, "found", matched)
	}
	if !matched {
		slog.Error("Resolver.Resolve: table produced no record", "input", normalized)
		return models.AirportRecord{}, ErrUnresolved
	}
	if err := rec.Validate(); err != nil {
		slog.Error("Resolver.Resolve: table record invalid", "input", normalized, "error", err)
		return models.AirportRecord{}, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}

	r.remember(normalized, rec)
	slog.Debug("Resolver.Resolve succeeded", "input", normalized, "code", rec.IATACode)
	return rec, nil
}

func (r *Resolver) external(ctx context.Context, text string) (models.AirportRecord, bool) {
	if r.lookup == nil || text == "" {
		return models.AirportRecord{}, false
	}
	rec, err := r.lookup.IdentifyAirport(ctx, text)
	if err != nil {
		slog.Warn("Resolver external lookup failed, falling back to table", "input", text, "error", err)
		return models.AirportRecord{}, false
	}
	if err := rec.Validate(); err != nil {
		slog.Warn("Resolver external lookup returned an incomplete record, falling back to table", "input", text, "error", err)
		return models.AirportRecord{}, false
	}
	if !rec.HasLocation() {
		if known, ok := r.table.ByCode(rec.IATACode); ok {
			rec.Latitude, rec.Longitude = known.Latitude, known.Longitude
		}
	}
	slog.Debug("Resolver external lookup succeeded", "input", text, "code", rec.IATACode)
	return rec, true
}

func (r *Resolver) remember(normalized string, rec models.AirportRecord) {
	if r.cache == nil {
		return
	}
	r.cache.Set(normalized, rec, cache.DefaultExpiration)
}
