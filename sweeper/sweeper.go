package sweeper

import (
	"context"
	"time"

	"github.com/opoquest/opoquest-api/logger"
	"github.com/opoquest/opoquest-api/practice"
)

// Sweeper periodically settles expired sessions in batch. The engine's
// lazy expiry gate already corrects any session a request touches; the
// sweep covers sessions nobody comes back to.
type Sweeper struct {
	engine   *practice.Engine
	interval time.Duration
	log      *logger.Logger
}

func New(engine *practice.Engine, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		engine:   engine,
		interval: interval,
		log:      log.With("component", "sweeper"),
	}
}

// Run blocks until ctx is done, sweeping once per interval. Call it in
// its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.engine.FinalizeExpired(); err != nil {
				s.log.Error("sweep failed", "error", err)
			}
		}
	}
}
