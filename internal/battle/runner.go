package battle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/savegame"
)

// Saver persists a game state.
type Saver interface {
	Save(ctx context.Context, state *savegame.GameState) error
}

// RunnerConfig holds the wall-clock settings of a Runner.
type RunnerConfig struct {
	// FrameInterval is the period between frames.
	FrameInterval time.Duration
	// AutosaveInterval is the period between saves; 0 disables autosave.
	AutosaveInterval time.Duration
	// Duration ends Start after this much wall time; 0 runs until Stop.
	Duration time.Duration
	// SaveTimeout bounds each save; 0 means 5s.
	SaveTimeout time.Duration
}

// Runner drives a Session from a wall-clock ticker and saves it
// periodically and on Stop. It implements server.Service.
type Runner struct {
	session *Session
	saver   Saver
	cfg     RunnerConfig
	logger  *zap.Logger

	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	// done is closed when Start returns; nil until Start is called.
	done chan struct{}
}

// NewRunner returns a runner for session.
//
// Precondition: cfg.FrameInterval > 0; session, saver and logger non-nil.
func NewRunner(session *Session, saver Saver, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 5 * time.Second
	}
	return &Runner{
		session: session,
		saver:   saver,
		cfg:     cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start runs frames until Stop is called, the configured duration elapses,
// or a frame fails. Autosave failures are logged and do not stop the run.
// No frame runs once Stop has been called.
func (r *Runner) Start() error {
	done := make(chan struct{})
	r.mu.Lock()
	r.done = done
	r.mu.Unlock()
	defer close(done)

	ticker := time.NewTicker(r.cfg.FrameInterval)
	defer ticker.Stop()

	began := time.Now()
	last, lastSave := began, began
	for {
		select {
		case <-r.stopCh:
			return nil
		case now := <-ticker.C:
			if r.stopped() {
				return nil
			}
			r.mu.Lock()
			err := r.session.Frame(now.Sub(last))
			r.mu.Unlock()
			last = now
			if err != nil {
				return fmt.Errorf("running frame: %w", err)
			}
			if r.cfg.AutosaveInterval > 0 && now.Sub(lastSave) >= r.cfg.AutosaveInterval {
				lastSave = now
				if err := r.Save(context.Background()); err != nil {
					r.logger.Warn("autosave failed", zap.Error(err))
				}
			}
			if r.cfg.Duration > 0 && now.Sub(began) >= r.cfg.Duration {
				r.logger.Info("run duration reached", zap.Duration("duration", r.cfg.Duration))
				return nil
			}
		}
	}
}

func (r *Runner) stopped() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

// Stop ends Start, waits for it to return and writes a final save. Repeated
// calls are no-ops.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.mu.Lock()
		done := r.done
		r.mu.Unlock()
		if done != nil {
			<-done
		}
		if err := r.Save(context.Background()); err != nil {
			r.logger.Error("final save failed", zap.Error(err))
		}
	})
}

// Save writes the session state through the saver.
func (r *Runner) Save(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SaveTimeout)
	defer cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.session.State()
	if err := r.saver.Save(ctx, state); err != nil {
		return err
	}
	r.logger.Debug("game saved", zap.String("slot", state.SlotID))
	return nil
}

// Tally returns the session totals.
func (r *Runner) Tally() Tally {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Tally()
}
