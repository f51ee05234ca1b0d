package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// Stage names used in log fields and failure reasons.
const (
	StageStoryline = "storyline"
	StageResearch  = "research"
	StageSlides    = "slides"
	StageQuality   = "quality"
)

// callExternal bounds one external collaborator call with the stage timeout
// and retries it once after a backoff delay. The timeout wraps the call
// itself, not the whole stage, so internal work already done is never
// abandoned on a later call's timeout. Outputs are captured by the closure.
// Failures wrapping interfaces.ErrPermanent are returned without a retry.
func callExternal(ctx context.Context, timeout, backoff time.Duration, fn func(ctx context.Context) error) error {
	call := func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(callCtx)
	}

	err := call()
	if err == nil {
		return nil
	}
	if errors.Is(err, interfaces.ErrPermanent) {
		return err
	}

	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return ctx.Err()
	}

	if retryErr := call(); retryErr != nil {
		return fmt.Errorf("failed after retry: %w", retryErr)
	}
	return nil
}

// timeoutSearch decorates a search capability so that every query carries
// its own timeout, independent of the queries around it.
type timeoutSearch struct {
	inner   interfaces.SearchCapability
	timeout time.Duration
}

func (t *timeoutSearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Search(callCtx, query, maxResults)
}

func (t *timeoutSearch) Provider() string {
	return t.inner.Provider()
}
