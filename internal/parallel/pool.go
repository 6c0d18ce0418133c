// Package parallel provides the backoff, statistics, and stall-detection
// support the reducer's worker loop leans on. It does not manage
// goroutine lifecycles itself — that is the errgroup's job — only the
// bookkeeping around a worker that finds no work to steal.
package parallel

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Backoff implements the exponential, capped sleep a worker falls back
// to once its own deque is empty and a steal sweep across every peer
// also comes up empty. Each failed sweep doubles the wait, up to
// maxSleep, then resets once work is found again.
type Backoff struct {
	attempt  int
	base     time.Duration
	maxSleep time.Duration
}

// NewBackoff creates a Backoff starting at base and capped at maxSleep.
func NewBackoff(base, maxSleep time.Duration) *Backoff {
	if base <= 0 {
		base = 50 * time.Microsecond
	}
	if maxSleep <= 0 {
		maxSleep = 2 * time.Millisecond
	}
	return &Backoff{base: base, maxSleep: maxSleep}
}

// Snooze sleeps for the current backoff duration and advances it.
func (b *Backoff) Snooze() {
	d := b.base << uint(b.attempt)
	if d <= 0 || d > b.maxSleep {
		d = b.maxSleep
	}
	time.Sleep(d)
	b.attempt++
}

// Reset clears the backoff back to its base duration, called as soon as
// a worker finds work again after one or more empty sweeps.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// ExecutionStats collects the per-worker counters a reduction run
// reports once finished: rewrites applied, successful and failed steal
// attempts, and lock-contention events on DUP nodes. All fields are
// updated through atomics so no caller needs its own synchronization.
type ExecutionStats struct {
	StartTime time.Time
	EndTime   time.Time

	Rewrites       int64
	StealsOK       int64
	StealsFailed   int64
	LockContention int64
	QueueFullEvent int64
}

// NewExecutionStats creates a zeroed stats collector with StartTime set
// to now.
func NewExecutionStats() *ExecutionStats {
	return &ExecutionStats{StartTime: time.Now()}
}

func (es *ExecutionStats) RecordRewrite()        { atomic.AddInt64(&es.Rewrites, 1) }
func (es *ExecutionStats) RecordStealOK()        { atomic.AddInt64(&es.StealsOK, 1) }
func (es *ExecutionStats) RecordStealFailed()    { atomic.AddInt64(&es.StealsFailed, 1) }
func (es *ExecutionStats) RecordLockContention() { atomic.AddInt64(&es.LockContention, 1) }
func (es *ExecutionStats) RecordQueueFull()      { atomic.AddInt64(&es.QueueFullEvent, 1) }

// Finalize stamps EndTime; call it once the reduction has converged.
func (es *ExecutionStats) Finalize() {
	es.EndTime = time.Now()
}

// String renders a human-readable summary, in the same spirit as the
// teacher package's own stats dump.
func (es *ExecutionStats) String() string {
	dur := es.EndTime.Sub(es.StartTime)
	return fmt.Sprintf("ExecutionStats{duration=%v rewrites=%d steals_ok=%d steals_failed=%d lock_contention=%d queue_full=%d}",
		dur,
		atomic.LoadInt64(&es.Rewrites),
		atomic.LoadInt64(&es.StealsOK),
		atomic.LoadInt64(&es.StealsFailed),
		atomic.LoadInt64(&es.LockContention),
		atomic.LoadInt64(&es.QueueFullEvent),
	)
}

// StallAlert reports that one worker has made no progress for longer
// than the detector's threshold. Every worker past the threshold is
// reported, whatever the other workers are doing; an alert does not by
// itself distinguish a livelock from legitimate idleness.
type StallAlert struct {
	WorkerID  int
	Idle      time.Duration
	Timestamp time.Time
}

// StallDetector watches each worker's last-progress timestamp and
// raises a StallAlert for each worker that has gone quiet past threshold,
// on every check until Shutdown. It is adapted from the teacher
// package's deadlock detector: the same polling-ticker design, narrowed
// from arbitrary named tasks down to one slot per worker id, since the
// reducer has a fixed, known worker count for the run's lifetime.
type StallDetector struct {
	mu sync.RWMutex

	threshold     time.Duration
	checkInterval time.Duration
	lastProgress  []time.Time

	shutdownChan chan struct{}
	alertChan    chan StallAlert
	once         sync.Once
}

// NewStallDetector creates a detector for the given worker count.
func NewStallDetector(workers int, threshold, checkInterval time.Duration) *StallDetector {
	if threshold <= 0 {
		threshold = 5 * time.Second
	}
	if checkInterval <= 0 {
		checkInterval = time.Second
	}
	now := time.Now()
	lastProgress := make([]time.Time, workers)
	for i := range lastProgress {
		lastProgress[i] = now
	}
	sd := &StallDetector{
		threshold:     threshold,
		checkInterval: checkInterval,
		lastProgress:  lastProgress,
		shutdownChan:  make(chan struct{}),
		alertChan:     make(chan StallAlert, workers),
	}
	go sd.monitor()
	return sd
}

// Progress records that worker tid just made progress; the reducer
// calls it after each rewrite it applies.
func (sd *StallDetector) Progress(tid int) {
	sd.mu.Lock()
	if tid >= 0 && tid < len(sd.lastProgress) {
		sd.lastProgress[tid] = time.Now()
	}
	sd.mu.Unlock()
}

// Alerts returns the channel StallAlerts are delivered on.
func (sd *StallDetector) Alerts() <-chan StallAlert {
	return sd.alertChan
}

// Shutdown stops the monitor goroutine. Safe to call more than once.
func (sd *StallDetector) Shutdown() {
	sd.once.Do(func() {
		close(sd.shutdownChan)
	})
}

func (sd *StallDetector) monitor() {
	ticker := time.NewTicker(sd.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sd.check()
		case <-sd.shutdownChan:
			return
		}
	}
}

func (sd *StallDetector) check() {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	now := time.Now()
	for tid, last := range sd.lastProgress {
		if idle := now.Sub(last); idle > sd.threshold {
			alert := StallAlert{WorkerID: tid, Idle: idle, Timestamp: now}
			select {
			case sd.alertChan <- alert:
			default:
			}
		}
	}
}
