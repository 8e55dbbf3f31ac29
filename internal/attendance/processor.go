package attendance

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chrissnell/attendance/pkg/rules"
)

// ErrNoRules is returned when a Processor has no rule set to work with.
var ErrNoRules = errors.New("attendance: no rule configuration")

// Result is the outcome of one run.
type Result struct {
	Records []Record
	Stats   Stats
	// Status is a human-readable note when the run produced nothing useful.
	Status string
}

// Processor drives the load, consolidate, segment and extract stages.
type Processor struct {
	cfg    *rules.RuleConfig
	logger *zap.SugaredLogger
}

// NewProcessor creates a Processor for one rule set. A nil logger discards output.
func NewProcessor(cfg *rules.RuleConfig, logger *zap.SugaredLogger) *Processor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Processor{
		cfg:    cfg,
		logger: logger,
	}
}

// Run processes one batch of swipes. Records are ordered by person, then
// chronologically. Running it twice on the same input yields the same records.
func (p *Processor) Run(swipes []Swipe) (*Result, error) {
	if p.cfg == nil {
		return nil, ErrNoRules
	}

	res := &Result{}

	events, loadStats := Load(swipes, p.cfg)
	res.Stats.LoadStats = loadStats
	p.logger.Infof("loaded %d of %d swipes", loadStats.Events, loadStats.Rows)
	if loadStats.InvalidTimestamps > 0 {
		p.logger.Warnf("dropped %d rows with unparsable timestamps", loadStats.InvalidTimestamps)
	}
	p.logger.Debugf("filtered %d rows by status and %d rows by user",
		loadStats.FilteredStatus, loadStats.FilteredUsers)

	if len(events) == 0 {
		res.Status = emptyStatus(p.cfg, loadStats)
		p.logger.Warn(res.Status)
		return res, nil
	}

	bursts := Consolidate(events, p.cfg.BurstThreshold)
	res.Stats.Bursts = len(bursts)
	p.logger.Debugf("consolidated %d swipes into %d bursts", len(events), len(bursts))

	instances, orphans := Segment(bursts, p.cfg)
	res.Stats.Instances = len(instances)
	res.Stats.Orphans = orphans
	p.logger.Infof("identified %d shift instances", len(instances))
	if orphans > 0 {
		p.logger.Debugf("skipped %d orphan bursts outside any check-in window", orphans)
	}

	res.Records = make([]Record, 0, len(instances))
	for _, inst := range instances {
		shift, ok := p.cfg.Shift(inst.ShiftCode)
		if !ok {
			return nil, fmt.Errorf("shift instance for %s on %s references unknown shift %q",
				inst.Person, inst.ShiftDate.Format("2006-01-02"), inst.ShiftCode)
		}
		res.Records = append(res.Records, Extract(inst, shift))
	}
	res.Stats.Records = len(res.Records)
	p.logger.Infof("extracted %d attendance records", len(res.Records))

	if len(res.Records) == 0 {
		res.Status = "no swipes fell inside any shift's check-in window"
		p.logger.Warn(res.Status)
	}

	return res, nil
}

func emptyStatus(cfg *rules.RuleConfig, stats LoadStats) string {
	switch {
	case stats.Rows == 0:
		return "input contains no swipe rows"
	case stats.InvalidTimestamps == stats.Rows:
		return "no row has a parsable date and time"
	case stats.FilteredUsers == 0:
		return fmt.Sprintf("no rows with status %q", cfg.StatusFilter)
	default:
		return fmt.Sprintf("no rows with status %q belong to a configured user", cfg.StatusFilter)
	}
}
