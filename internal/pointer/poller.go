package pointer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vedantwpatil/precision-mouse/internal/headtracker"
	"github.com/vedantwpatil/precision-mouse/internal/latest"
)

// DefaultPollInterval is how often a head tracker is sampled.
const DefaultPollInterval = 33 * time.Millisecond

// reconnectEvery is the number of poll ticks between Open attempts while the
// device is down.
const reconnectEvery = 30

// poller samples a head tracker on its own ticker and keeps the latest pose.
// The coordinator tick reads the pose without waiting; a reading can be up to
// one poll interval old.
type poller struct {
	client   headtracker.Client
	interval time.Duration
	logger   *slog.Logger

	pose    latest.Value[headtracker.Pose]
	started atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func startPoller(client headtracker.Client, interval time.Duration, logger *slog.Logger) *poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &poller{
		client:   client,
		interval: interval,
		logger:   logger,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	p.open()
	go p.run(ctx)
	return p
}

func (p *poller) open() {
	if err := p.client.Open(); err != nil {
		p.logger.Warn("head tracker unavailable", "error", err)
		return
	}
	p.started.Store(true)
}

func (p *poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticks++
			if !p.started.Load() {
				if ticks%reconnectEvery == 0 {
					p.open()
				}
				continue
			}
			p.poll()
		}
	}
}

func (p *poller) poll() {
	pose, err := p.client.Read()
	switch {
	case err == nil:
		p.pose.Store(pose)
	case errors.Is(err, headtracker.ErrNoData):
	default:
		p.logger.Warn("head tracker lost", "error", err)
		p.started.Store(false)
		if cerr := p.client.Close(); cerr != nil {
			p.logger.Debug("closing head tracker", "error", cerr)
		}
	}
}

// stop ends sampling and shuts the device down.
func (p *poller) stop() error {
	var err error
	p.once.Do(func() {
		p.cancel()
		<-p.done
		p.started.Store(false)
		err = p.client.Close()
	})
	return err
}
