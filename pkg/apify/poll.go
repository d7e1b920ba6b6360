package apify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// PollOption configures PollRun.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval    time.Duration
	maxAttempts int
}

// WithPollInterval sets the wait between status checks. Default: 5s.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithMaxAttempts caps the number of status checks. Default: 12.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.maxAttempts = n
	}
}

// PollRun waits for a run to finish. It fails if the run ends in any status
// other than SUCCEEDED, or is still running after the last check.
func PollRun(ctx context.Context, client Client, actor, runID string, opts ...PollOption) (*Run, error) {
	cfg := pollConfig{interval: 5 * time.Second, maxAttempts: 12}
	for _, opt := range opts {
		opt(&cfg)
	}

	status := StatusRunning
	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "apify: poll run %s", runID)
		case <-time.After(cfg.interval):
		}

		run, err := client.GetRun(ctx, actor, runID)
		if err != nil {
			return nil, eris.Wrapf(err, "apify: poll run %s", runID)
		}
		status = run.Status
		if run.Finished() {
			if status != StatusSucceeded {
				break
			}
			return run, nil
		}
	}
	return nil, eris.Errorf("apify: run %s did not complete: %s", runID, status)
}
