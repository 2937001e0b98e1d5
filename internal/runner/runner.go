// Package runner drives a simulation at a fixed wall-clock step until the
// context ends, autosaving along the way.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/spacelife/internal/config"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/simulation"
)

var errInterrupted = errors.New("interrupted")

type Runner struct {
	sim *simulation.Simulation
	cfg *config.Config
	log log.Log
}

func New(sim *simulation.Simulation, cfg *config.Config, logger log.Log) *Runner {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Runner{sim: sim, cfg: cfg, log: logger.Named("runner")}
}

// Restore loads the configured save file if there is one.
func (r *Runner) Restore() error {
	if r.cfg.Save.Path == "" {
		return nil
	}
	f, err := os.Open(r.cfg.Save.Path)
	if errors.Is(err, os.ErrNotExist) {
		r.log.Info("no save to restore", log.String("path", r.cfg.Save.Path))
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return r.sim.Load(f)
}

// Run ticks the simulation until ctx is done, the configured duration has
// passed or the process is interrupted. The game is saved on the way out.
func (r *Runner) Run(ctx context.Context) error {
	if d := r.cfg.Simulation.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return waitForSignal(ctx) })
	g.Go(func() error { return r.loop(ctx) })

	err := g.Wait()
	if errors.Is(err, errInterrupted) {
		r.log.Info("interrupted")
		err = nil
	}
	return errors.Join(err, r.save())
}

func (r *Runner) loop(ctx context.Context) error {
	step := r.cfg.Simulation.FixedStep
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	lastSave := time.Now()
	r.log.Info("simulation started", log.Duration("step", step), log.Float64("time_scale", r.sim.TimeScale()))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("simulation stopped", log.Float64("elapsed", r.sim.Elapsed()))
			return nil
		case now := <-ticker.C:
			r.sim.FixedUpdate(step.Seconds())
			if every := r.cfg.Save.Autosave; every > 0 && now.Sub(lastSave) >= every {
				lastSave = now
				if err := r.save(); err != nil {
					r.log.Error("autosave failed", log.Error(err))
				}
			}
		}
	}
}

func waitForSignal(ctx context.Context) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	select {
	case <-sig:
		return errInterrupted
	case <-ctx.Done():
		return nil
	}
}

// save writes through a temporary file so a crash never leaves a torn save.
func (r *Runner) save() error {
	path := r.cfg.Save.Path
	if path == "" {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".save-*")
	if err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := r.sim.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	r.log.Debug("saved", log.String("path", path))
	return nil
}
