package form

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"opsconsole/internal/infra/async"
)

// Refreshable is an option source that can reload itself.
type Refreshable interface {
	Key() string
	Refresh(ctx context.Context) error
}

var _ async.Worker = (*OptionRefresher)(nil)

// OptionRefresher reloads cached option lists on a cron schedule so that
// autocompletes pick up products and locations created elsewhere.
type OptionRefresher struct {
	schedule string
	sources  []Refreshable

	stop     chan struct{}
	stopOnce sync.Once
}

func NewOptionRefresher(schedule string, sources ...Refreshable) (*OptionRefresher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parsing refresh schedule %q: %w", schedule, err)
	}
	return &OptionRefresher{schedule: schedule, sources: sources, stop: make(chan struct{})}, nil
}

func (r *OptionRefresher) Run(ctx context.Context, done func()) {
	defer done()

	c := cron.New()
	_, err := c.AddFunc(r.schedule, func() {
		r.RefreshAll(ctx)
	})
	if err != nil {
		slog.Error("scheduling option refresh", slog.String("error", err.Error()))
		return
	}

	c.Start()
	select {
	case <-ctx.Done():
	case <-r.stop:
	}
	<-c.Stop().Done()
}

func (r *OptionRefresher) Shutdown() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// RefreshAll reloads every source and logs the ones that fail.
func (r *OptionRefresher) RefreshAll(ctx context.Context) {
	for _, source := range r.sources {
		if err := source.Refresh(ctx); err != nil {
			slog.Error("refreshing options",
				slog.String("source", source.Key()),
				slog.String("error", err.Error()))
		}
	}
}
