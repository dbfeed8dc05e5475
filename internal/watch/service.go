package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/andrewiggins/fluentui/internal/eventbus"
	"github.com/andrewiggins/fluentui/pkg/async"
	logx "github.com/andrewiggins/fluentui/pkg/logx"
)

type Config struct {
	Paths    []string
	Debounce time.Duration // quiet window before a burst counts as settled
	LogEvery time.Duration // raw-event log throttle interval
}

type Service struct {
	cfg Config
	log logx.Logger
	bus eventbus.Bus

	owner *async.Owner

	mu        sync.Mutex
	coalesced int

	settle *async.Debounced[string, int]
	noise  *async.Throttled[string]

	w      *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:   cfg,
		log:   log,
		bus:   bus,
		owner: async.NewOwner(),
	}
}

// init builds the owned wrappers. Split from Start so tests can drive
// handleEvent on a virtual clock without opening a real watcher.
func (s *Service) init() {
	s.settle = async.Debounce(s.owner, s.settled, s.cfg.Debounce)
	s.noise = async.Throttle(s.owner, func(ev string) {
		s.log.Debug("fs activity", logx.String("event", ev))
	}, s.cfg.LogEvery)
}

func (s *Service) Start(ctx context.Context) error {
	s.init()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, p := range s.cfg.Paths {
		if err := addRecursive(w, p); err != nil {
			_ = w.Close()
			return err
		}
	}
	s.w = w
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	s.log.Info("watch started",
		logx.Int("paths", len(s.cfg.Paths)),
		logx.Duration("debounce", s.cfg.Debounce))
	return nil
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case ev, ok := <-s.w.Events:
			if !ok {
				return
			}
			if !shouldTrack(ev.Name, ev.Op) {
				continue
			}
			// New directories need to join the watch set.
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addRecursive(s.w, ev.Name)
				}
			}
			s.handleEvent(ev.Name, ev.Op)
		case err, ok := <-s.w.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", logx.Err(err))
		}
	}
}

func (s *Service) handleEvent(name string, op fsnotify.Op) {
	s.mu.Lock()
	s.coalesced++
	s.mu.Unlock()

	s.noise.Call(op.String() + " " + name)
	s.settle.Call(name)
}

// settled is the debounce target: the burst went quiet.
func (s *Service) settled(path string) int {
	s.mu.Lock()
	n := s.coalesced
	s.coalesced = 0
	s.mu.Unlock()

	s.log.Info("fs settled", logx.String("path", path), logx.Int("coalesced", n))
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type: eventbus.TypeWatchSettled,
			Data: eventbus.WatchSettled{Path: path, Coalesced: n},
		})
	}
	return n
}

func (s *Service) Stop() {
	if s.stopCh != nil {
		close(s.stopCh)
	}
	if s.w != nil {
		_ = s.w.Close()
	}
	s.wg.Wait()
	s.owner.Dispose()
	s.log.Info("watch stopped")
}

// shouldTrack filters out the event noise that never indicates content
// changes: chmods, editor swap/backup files, hidden paths.
func shouldTrack(name string, op fsnotify.Op) bool {
	if op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	base := filepath.Base(name)
	if base == "" || strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	return true
}

// addRecursive watches root and every directory below it, skipping
// hidden directories and vendor trees.
func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "vendor") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
