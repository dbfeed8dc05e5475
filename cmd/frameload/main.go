// Command frameload runs the scheduling primitives against live event
// sources: filesystem activity (debounced), cron-driven synthetic
// bursts (throttled), and a shared animation-frame loop. Telemetry
// flows over the event bus into the log and the optional history store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andrewiggins/fluentui/internal/config"
	"github.com/andrewiggins/fluentui/internal/eventbus"
	"github.com/andrewiggins/fluentui/internal/history"
	"github.com/andrewiggins/fluentui/internal/pulse"
	"github.com/andrewiggins/fluentui/internal/watch"
	"github.com/andrewiggins/fluentui/pkg/async"
	logx "github.com/andrewiggins/fluentui/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./frameload.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := loadOrDefault(cfgPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logx.New(logx.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Log.File.Enabled,
			Path:    cfg.Log.File.Path,
		},
		RatePerSec: cfg.Log.RatePerSec,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	bus := eventbus.New()

	store, err := history.Open(history.Config{
		Driver: cfg.History.Driver,
		Path:   cfg.History.Path,
	}, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
		go recordEvents(ctx, bus, store, log)
	}

	frameInterval, err := cfg.Frame.IntervalOrDefault()
	if err != nil {
		return err
	}
	async.SetFrameScheduler(async.TimerFrames(async.SystemClock(), frameInterval))

	if cfg.Watch.Enabled {
		debounce, _ := cfg.Watch.DebounceOrDefault()
		logEvery, _ := cfg.Watch.LogEveryOrDefault()
		ws := watch.New(watch.Config{
			Paths:    cfg.Watch.Paths,
			Debounce: debounce,
			LogEvery: logEvery,
		}, log.With(logx.String("svc", "watch")), bus)
		if err := ws.Start(ctx); err != nil {
			return err
		}
		defer ws.Stop()
	}

	if cfg.Pulse.Enabled {
		gap, _ := cfg.Pulse.GapOrDefault()
		throttle, _ := cfg.Pulse.ThrottleOrDefault()
		ps := pulse.New(pulse.Config{
			Spec:     cfg.Pulse.Spec,
			Burst:    cfg.Pulse.BurstOrDefault(),
			Gap:      gap,
			Throttle: throttle,
		}, log.With(logx.String("svc", "pulse")), bus)
		if err := ps.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			ps.Stop(stopCtx)
			stopCancel()
		}()
	}

	owner := async.NewOwner()
	owner.SetLogger(log.With(logx.String("svc", "frames")))
	defer owner.Dispose()
	startFrameReporter(ctx, owner, bus, log, frameInterval)

	log.Info("frameload running", logx.Duration("frame_interval", frameInterval))
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// loadOrDefault falls back to a built-in demo config when no file exists
// at path, so the daemon is runnable with zero setup.
func loadOrDefault(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	return &config.Config{
		Log:   config.LogConfig{Level: "debug"},
		Pulse: config.PulseConfig{Enabled: true, Spec: "@every 2s"},
	}, nil
}

// startFrameReporter keeps a callback on the shared frame loop. Each
// invocation re-subscribes itself, which lands on the next frame, never
// the current one, so exactly one callback runs per frame. Frame counts
// are reported through a once-per-second throttle.
func startFrameReporter(ctx context.Context, owner *async.Owner, bus eventbus.Bus, log logx.Logger, interval time.Duration) {
	var frames atomic.Uint64

	report := async.Throttle(owner, func(n uint64) {
		log.Debug("frame stats", logx.Uint64("frames", n), logx.Duration("interval", interval))
		bus.Publish(eventbus.Event{
			Type: eventbus.TypeFrameStats,
			Data: eventbus.FrameStats{Frames: n, Interval: interval},
		})
	}, time.Second)

	var tick func(ts time.Time)
	tick = func(ts time.Time) {
		report.Call(frames.Add(1))
		if ctx.Err() == nil {
			owner.RequestAnimationFrame(tick)
		}
	}
	owner.RequestAnimationFrame(tick)
}

// recordEvents drains the bus into the history store.
func recordEvents(ctx context.Context, bus eventbus.Bus, store history.Store, log logx.Logger) {
	ch, unsub := bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			entry := runEntryFor(ev)
			if entry == nil {
				continue
			}
			if err := store.AppendRun(ctx, *entry); err != nil {
				log.Warn("history append failed", logx.Err(err))
			}
		}
	}
}

func runEntryFor(ev eventbus.Event) *history.RunEntry {
	switch data := ev.Data.(type) {
	case eventbus.WatchSettled:
		return &history.RunEntry{At: ev.Time, Source: "watch", Kind: ev.Type, Count: data.Coalesced, Note: data.Path}
	case eventbus.PulseBurst:
		return &history.RunEntry{At: ev.Time, Source: "pulse", Kind: ev.Type, Count: data.Sent}
	case eventbus.FrameStats:
		return &history.RunEntry{At: ev.Time, Source: "frame", Kind: ev.Type, Count: int(data.Frames)}
	default:
		return nil
	}
}
