// Package pulse generates synthetic call bursts on a cron schedule and
// pushes them through a throttle, so a running daemon continuously
// demonstrates (and logs) leading/trailing throttle behavior even when
// the watched filesystem is quiet.
package pulse

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/andrewiggins/fluentui/internal/eventbus"
	"github.com/andrewiggins/fluentui/pkg/async"
	logx "github.com/andrewiggins/fluentui/pkg/logx"
)

type Config struct {
	Spec     string        // cron spec, "@every 2s", or descriptor
	Burst    int           // calls per burst
	Gap      time.Duration // spacing between calls inside a burst
	Throttle time.Duration // throttle interval the burst hammers
}

type Service struct {
	cfg Config
	log logx.Logger
	bus eventbus.Bus

	owner     *async.Owner
	throttled *async.Throttled[int]

	mu        sync.Mutex
	delivered int

	parser cron.Parser
	c      *cron.Cron
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg: cfg,
		log: log,
		bus: bus,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		owner:  async.NewOwner(),
	}
}

// ValidateSpec reports whether spec parses with the service's cron
// dialect (5- or 6-field specs plus @descriptors).
func ValidateSpec(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return errors.New("spec required")
	}
	p := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := p.Parse(spec)
	return err
}

func (s *Service) Start(ctx context.Context) error {
	if _, err := s.parser.Parse(s.cfg.Spec); err != nil {
		return err
	}
	s.init()

	s.c = cron.New(cron.WithParser(s.parser))
	if _, err := s.c.AddFunc(s.cfg.Spec, s.burst); err != nil {
		return err
	}
	s.c.Start()
	s.log.Info("pulse started",
		logx.String("spec", s.cfg.Spec),
		logx.Int("burst", s.cfg.Burst),
		logx.Duration("throttle", s.cfg.Throttle))
	return nil
}

// init builds the owned throttle. Split from Start so tests can drive
// burst directly on a virtual clock.
func (s *Service) init() {
	s.throttled = async.Throttle(s.owner, func(seq int) {
		s.mu.Lock()
		s.delivered++
		s.mu.Unlock()
		s.log.Debug("pulse delivered", logx.Int("seq", seq))
	}, s.cfg.Throttle)
}

// burst pushes cfg.Burst calls through the throttle back to back and
// publishes what survived.
func (s *Service) burst() {
	sent := s.cfg.Burst
	if sent <= 0 {
		sent = 1
	}
	immediate := 0
	for i := 0; i < sent; i++ {
		if s.throttled.Call(i) {
			immediate++
		}
		if s.cfg.Gap > 0 && i < sent-1 {
			time.Sleep(s.cfg.Gap)
		}
	}

	trailing := s.throttled.Pending()
	s.mu.Lock()
	total := s.delivered
	s.mu.Unlock()
	s.log.Debug("pulse burst",
		logx.Int("sent", sent),
		logx.Int("leading", immediate),
		logx.Int("delivered_total", total),
		logx.Bool("trailing_pending", trailing))
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type: eventbus.TypePulseBurst,
			Data: eventbus.PulseBurst{
				Name:            "pulse",
				Sent:            sent,
				Leading:         immediate,
				TrailingPending: trailing,
			},
		})
	}
}

func (s *Service) Stop(ctx context.Context) {
	if s.c != nil {
		select {
		case <-s.c.Stop().Done():
		case <-ctx.Done():
		}
		s.c = nil
	}
	s.owner.Dispose()
	s.log.Info("pulse stopped")
}
