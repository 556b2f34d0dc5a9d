package app

import (
	"log"
	"sync"
	"time"

	"github.com/justingeeslin/opensensecam/internal/gps"
)

// PositionLoop owns the receiver handle. It polls for decoded sentences on
// a fixed cadence and publishes each usable fix to the registry, where the
// capture loop picks it up. Receiver trouble is degraded mode, never fatal:
// the loop logs and keeps polling.
type PositionLoop struct {
	recv       gps.Receiver
	reg        *gps.Registry
	interval   time.Duration
	staleAfter time.Duration // 0 disables stale-fix clearing

	// onFix, when set, is called outside the registry lock for each
	// accepted candidate.
	onFix func(gps.Fix)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewPositionLoop(recv gps.Receiver, reg *gps.Registry, interval, staleAfter time.Duration) *PositionLoop {
	return &PositionLoop{
		recv:       recv,
		reg:        reg,
		interval:   interval,
		staleAfter: staleAfter,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (l *PositionLoop) Start() {
	go l.run()
}

// Stop requests a cooperative shutdown. The loop finishes any receiver
// read in flight and exits before the next one begins.
func (l *PositionLoop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Join waits for the loop to exit, up to timeout. False means the loop is
// still running, which the supervisor reports as a shutdown anomaly.
func (l *PositionLoop) Join(timeout time.Duration) bool {
	select {
	case <-l.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (l *PositionLoop) run() {
	defer close(l.done)
	log.Printf("gps: sampling loop started (poll every %v)", l.interval)

	lastAccepted := time.Now()

	for {
		select {
		case <-l.stop:
			log.Println("gps: sampling loop stopped")
			return
		default:
		}

		if _, err := l.recv.Update(); err != nil {
			// transient transport error: skip this cycle, keep polling
			log.Printf("gps: receiver read error: %v", err)
		} else if l.recv.HasFix() {
			fix := l.recv.Fix()
			if l.reg.Publish(fix) {
				lastAccepted = time.Now()
				log.Printf("gps: fix accepted: lat=%.6f lon=%.6f quality=%d sats=%d",
					fix.Latitude, fix.Longitude, fix.Quality, fix.Satellites)
				if l.onFix != nil {
					l.onFix(fix)
				}
			}
		}

		if l.staleAfter > 0 && time.Since(lastAccepted) > l.staleAfter {
			if _, ok := l.reg.Snapshot(); ok {
				log.Printf("gps: no fix accepted for %v, clearing stale position", l.staleAfter)
				l.reg.Reset()
			}
			lastAccepted = time.Now()
		}

		select {
		case <-l.stop:
			log.Println("gps: sampling loop stopped")
			return
		case <-time.After(l.interval):
		}
	}
}
