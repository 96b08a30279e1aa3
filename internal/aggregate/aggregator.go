package aggregate

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/normalize"
	"github.com/roody/paperscout/internal/observability"
	"github.com/roody/paperscout/internal/sources"
)

const (
	// DefaultMaxConcurrent bounds how many sources are queried at once.
	DefaultMaxConcurrent = 4

	// DefaultQueryTimeout bounds one aggregate query end to end.
	DefaultQueryTimeout = 2 * time.Minute
)

// ErrNoSources is returned when a request selects no enabled source.
var ErrNoSources = errors.New("aggregate: no enabled sources selected")

// Request describes one aggregate search across sources.
type Request struct {
	// Query is the search string sent to every selected source.
	Query string `json:"query" validate:"required,min=2,max=500"`

	// Sources selects which adapters to query. Empty means all enabled.
	Sources []domain.SourceType `json:"sources,omitempty" validate:"omitempty,dive,required"`

	// MaxResults caps records per source. Zero means the source default.
	MaxResults int `json:"max_results,omitempty" validate:"omitempty,min=1,max=100"`

	// DateFrom and DateTo bound publication dates where a source supports
	// server-side filtering.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Deduplicate removes cross-source duplicates from the merged Papers
	// collection. Per-source results always keep every paper.
	Deduplicate bool `json:"deduplicate,omitempty"`
}

// Config holds aggregator configuration.
type Config struct {
	// MaxConcurrent bounds simultaneous source queries.
	MaxConcurrent int

	// QueryTimeout bounds one aggregate query including retries.
	QueryTimeout time.Duration

	// Retry configures the per-source retry budget.
	Retry RetryConfig
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
}

// Aggregator fans one query out to the selected sources and merges the
// per-source outcomes. A failed source never fails the aggregate: it is
// reported as a failure entry alongside the successful ones.
type Aggregator struct {
	config   Config
	registry *sources.Registry
	retryer  *Retryer
	logger   zerolog.Logger
	metrics  *observability.Metrics
	validate *validator.Validate
}

// New creates an Aggregator. Metrics may be nil when unobserved, e.g. in the
// CLI.
func New(cfg Config, registry *sources.Registry, logger zerolog.Logger, metrics *observability.Metrics) *Aggregator {
	cfg.applyDefaults()
	return &Aggregator{
		config:   cfg,
		registry: registry,
		retryer:  NewRetryer(cfg.Retry, logger),
		logger:   logger,
		metrics:  metrics,
		validate: validator.New(),
	}
}

// Run executes one aggregate query. The returned result holds one entry per
// requested source in request order, the merged paper collection, and the
// per-source statuses. Run returns an error only for invalid requests or an
// empty source selection; source failures are embedded in the result.
func (a *Aggregator) Run(ctx context.Context, req Request) (*domain.AggregateResult, error) {
	if err := a.validate.Struct(req); err != nil {
		return nil, err
	}

	selected, err := a.selectSources(req.Sources)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.QueryTimeout)
	defer cancel()

	queryID := uuid.New()
	logger := observability.WithQueryContext(a.logger, queryID.String(), req.Query)
	logger.Info().
		Int("sources", len(selected)).
		Bool("deduplicate", req.Deduplicate).
		Msg("aggregate query started")
	if a.metrics != nil {
		a.metrics.RecordQueryStarted()
	}

	params := sources.SearchParams{
		Query:      req.Query,
		MaxResults: req.MaxResults,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
	}

	start := time.Now()

	// Each source writes into its own slot, so the final ordering matches
	// the request order no matter which source finishes first.
	results := make([]domain.SourceQueryResult, len(selected))
	sem := make(chan struct{}, a.config.MaxConcurrent)
	done := make(chan int)

	for i, src := range selected {
		go func(slot int, src sources.Source) {
			defer func() { done <- slot }()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[slot] = a.failedResult(src, 0, 0, ctx.Err())
				return
			}

			results[slot] = a.querySource(ctx, logger, src, params)
		}(i, src)
	}
	for range selected {
		<-done
	}

	agg := &domain.AggregateResult{
		QueryID:   queryID,
		Query:     req.Query,
		Results:   results,
		StartedAt: start,
	}

	merged := mergePapers(results)
	if req.Deduplicate {
		merged, agg.Deduplicated = deduplicate(merged)
		if a.metrics != nil {
			a.metrics.RecordDeduplicated(agg.Deduplicated)
		}
	}
	agg.Papers = merged
	agg.Elapsed = time.Since(start)

	outcome := "ok"
	if agg.AllFailed() {
		outcome = "all_failed"
	}
	if a.metrics != nil {
		a.metrics.RecordQueryCompleted(outcome, agg.Elapsed.Seconds())
	}
	logger.Info().
		Str("outcome", outcome).
		Int("papers", len(agg.Papers)).
		Int("deduplicated", agg.Deduplicated).
		Dur("elapsed", agg.Elapsed).
		Msg("aggregate query finished")

	return agg, nil
}

// selectSources resolves the requested source set against the registry,
// preserving the caller's order. Empty means every enabled source in
// canonical order. Unknown or disabled sources in an explicit selection are
// skipped rather than failing the query.
func (a *Aggregator) selectSources(requested []domain.SourceType) ([]sources.Source, error) {
	var selected []sources.Source
	if len(requested) == 0 {
		selected = a.registry.Enabled()
	} else {
		seen := make(map[domain.SourceType]bool, len(requested))
		for _, st := range requested {
			if seen[st] {
				continue
			}
			seen[st] = true
			if src := a.registry.Get(st); src != nil && src.IsEnabled() {
				selected = append(selected, src)
			}
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoSources
	}
	return selected, nil
}

// querySource runs one source search with retries and converts the outcome
// into an immutable per-source result.
func (a *Aggregator) querySource(ctx context.Context, logger zerolog.Logger, src sources.Source, params sources.SearchParams) domain.SourceQueryResult {
	srcLogger := observability.WithSourceContext(logger, string(src.SourceType()))
	start := time.Now()

	res, attempts, err := a.retryer.Search(ctx, src, params)
	elapsed := time.Since(start)

	if a.metrics != nil && attempts > 1 {
		for i := 1; i < attempts; i++ {
			a.metrics.RecordRetry(string(src.SourceType()))
		}
	}

	if err != nil {
		result := a.failedResult(src, attempts, elapsed, err)
		srcLogger.Warn().
			Str("error_class", string(result.ErrorClass)).
			Int("attempts", attempts).
			Dur("elapsed", elapsed).
			Msg("source query failed")
		if a.metrics != nil {
			a.metrics.RecordSearch(string(src.SourceType()), string(domain.StatusFailure), 0, 0, elapsed.Seconds())
			a.metrics.RecordSearchFailure(string(src.SourceType()), string(result.ErrorClass))
		}
		return result
	}

	papers := normalize.Records(src.SourceType(), res.Records)

	status := domain.StatusSuccess
	var errClass domain.ErrorClass
	var errDetail string
	if res.Dropped > 0 {
		status = domain.StatusPartialFailure
		errClass = domain.ErrorClassParse
		errDetail = "some records lacked an extractable title"
	}

	srcLogger.Info().
		Str("status", string(status)).
		Int("papers", len(papers)).
		Int("dropped", res.Dropped).
		Int("attempts", attempts).
		Dur("elapsed", elapsed).
		Msg("source query finished")
	if a.metrics != nil {
		a.metrics.RecordSearch(string(src.SourceType()), string(status), len(papers), res.Dropped, elapsed.Seconds())
	}

	return domain.SourceQueryResult{
		Source:      src.SourceType(),
		Papers:      papers,
		Status:      status,
		ErrorClass:  errClass,
		ErrorDetail: errDetail,
		Attempts:    attempts,
		Dropped:     res.Dropped,
		Elapsed:     elapsed,
	}
}

func (a *Aggregator) failedResult(src sources.Source, attempts int, elapsed time.Duration, err error) domain.SourceQueryResult {
	return domain.SourceQueryResult{
		Source:      src.SourceType(),
		Status:      domain.StatusFailure,
		ErrorClass:  domain.Classify(err),
		ErrorDetail: err.Error(),
		Attempts:    attempts,
		Elapsed:     elapsed,
	}
}

// mergePapers concatenates per-source papers in result (request) order.
func mergePapers(results []domain.SourceQueryResult) []domain.Paper {
	total := 0
	for i := range results {
		total += len(results[i].Papers)
	}
	merged := make([]domain.Paper, 0, total)
	for i := range results {
		merged = append(merged, results[i].Papers...)
	}
	return merged
}

// deduplicate removes later papers whose dedup key was already seen, keeping
// the first occurrence and recording the duplicate sources on it.
func deduplicate(papers []domain.Paper) ([]domain.Paper, int) {
	kept := make([]domain.Paper, 0, len(papers))
	index := make(map[string]int, len(papers))
	removed := 0

	for _, p := range papers {
		key := p.DedupKey()
		if i, ok := index[key]; ok {
			removed++
			first := &kept[i]
			if first.Extra == nil {
				first.Extra = map[string]string{}
			}
			also := first.Extra["also_found_in"]
			if also != "" {
				also += ","
			}
			first.Extra["also_found_in"] = also + string(p.Source)
			continue
		}
		index[key] = len(kept)
		kept = append(kept, p)
	}
	return kept, removed
}
