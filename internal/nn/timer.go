package nn

import "time"

// Timer observes named engine stages. Start and Stop calls for a stage are
// strictly paired; implementations may nest stages but never see an
// unmatched Stop.
type Timer interface {
	Start(stage string)
	Stop(stage string) time.Duration
}

type nopTimer struct{}

func (nopTimer) Start(string) {}

func (nopTimer) Stop(string) time.Duration { return 0 }

// StageTimer records wall-clock durations per stage. It is not safe for
// concurrent use; install one per network.
type StageTimer struct {
	started map[string]time.Time
	total   map[string]time.Duration
	count   map[string]int
}

// NewStageTimer returns an empty timer ready to install with SetTimer.
func NewStageTimer() *StageTimer {
	return &StageTimer{
		started: make(map[string]time.Time),
		total:   make(map[string]time.Duration),
		count:   make(map[string]int),
	}
}

func (t *StageTimer) Start(stage string) {
	t.started[stage] = time.Now()
}

func (t *StageTimer) Stop(stage string) time.Duration {
	begin, ok := t.started[stage]
	if !ok {
		return 0
	}
	delete(t.started, stage)
	d := time.Since(begin)
	t.total[stage] += d
	t.count[stage]++
	return d
}

// Total returns the accumulated duration for a stage.
func (t *StageTimer) Total(stage string) time.Duration { return t.total[stage] }

// Count returns how many times a stage completed.
func (t *StageTimer) Count(stage string) int { return t.count[stage] }
