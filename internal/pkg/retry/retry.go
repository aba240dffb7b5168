package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryConfig bounds the retries of one outbound call. Timeout caps the whole
// loop, waits included; zero leaves only the caller's deadline.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"100ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(LinearDelay(rc.Delay)),
		retry.LastErrorOnly(true),
	}
}

// Do runs fn until it succeeds, the attempts run out or the context ends.
// extra options are applied after the configured ones.
func (rc *RetryConfig) Do(ctx context.Context, fn func(ctx context.Context) error, extra ...retry.Option) error {
	if rc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.Timeout)
		defer cancel()
	}

	opts := append(rc.ToRetryOptions(), retry.Context(ctx))
	opts = append(opts, extra...)
	return retry.Do(func() error { return fn(ctx) }, opts...)
}

// LinearDelay waits base, 2*base, 3*base... for attempts n = 0, 1, 2...
func LinearDelay(base time.Duration) retry.DelayTypeFunc {
	return func(n uint, _ error, _ *retry.Config) time.Duration {
		return base * time.Duration(n+1)
	}
}
