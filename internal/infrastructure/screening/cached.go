package screening

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
)

// Looker resolves a screening verdict.
type Looker interface {
	Lookup(ctx context.Context, identity string) (Verdict, error)
}

// Recorder observes screening outcomes.
type Recorder interface {
	RecordScreening(result string)
}

// Cached serves verdicts from a cache before asking the upstream service.
// Failed lookups are never cached.
type Cached struct {
	upstream Looker
	cache    usecase.Cache
	ttl      time.Duration
	recorder Recorder
	logger   zerolog.Logger
}

// NewCached wraps upstream with a verdict cache.
func NewCached(upstream Looker, cache usecase.Cache, ttl time.Duration, recorder Recorder, logger zerolog.Logger) *Cached {
	return &Cached{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		recorder: recorder,
		logger:   logger,
	}
}

// Check implements usecase.ScreeningService.
func (c *Cached) Check(ctx context.Context, phoneNumber string) error {
	verdict, err := c.verdict(ctx, phoneNumber)
	if err != nil {
		c.record("error")
		return err
	}

	c.record(string(verdict))
	if verdict == VerdictBlacklisted {
		return domain.ErrBlacklisted
	}
	return nil
}

func (c *Cached) verdict(ctx context.Context, phoneNumber string) (Verdict, error) {
	cached, err := c.cache.Get(ctx, phoneNumber)
	switch {
	case err == nil:
		return Verdict(cached), nil
	case !errors.Is(err, usecase.ErrCacheMiss):
		c.logger.Warn().Err(err).Msg("screening cache read failed")
	}

	verdict, err := c.upstream.Lookup(ctx, phoneNumber)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, phoneNumber, []byte(verdict), c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("screening cache write failed")
	}

	return verdict, nil
}

func (c *Cached) record(result string) {
	if c.recorder != nil {
		c.recorder.RecordScreening(result)
	}
}

// Noop approves every identity. Used when screening is disabled.
type Noop struct{}

// Check implements usecase.ScreeningService.
func (Noop) Check(context.Context, string) error {
	return nil
}
