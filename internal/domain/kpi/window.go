package kpi

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/neurorace/refinery/internal/domain/model"
)

// eventOutcome is the windowed measurement around one game event.
type eventOutcome struct {
	eventType   string
	focusChange float64
	calmChange  float64
	lfoSeconds  *float64
}

// analyzeEventWindows correlates a player's valid-signal readings with that
// player's game events. For every event with a non-empty window on each
// side it measures the focus/calm change between the 5s (configurable)
// windows before and after the event. Recovery latency is measured only for
// collisions that actually dipped the focus mean: the latency to the first
// later reading above the focus threshold, unbounded by the window.
//
// Returns the per-event-type mean focus and calm changes and the average
// recovery latency across events that produced one (events without a
// measured recovery are excluded from the average, not counted as zero).
func (c *Calculator) analyzeEventWindows(valid []signalRow, events []model.TrustedRecord) (map[string]float64, map[string]float64, *float64) {
	focusVar := make(map[string]float64)
	calmVar := make(map[string]float64)
	if len(events) == 0 {
		return focusVar, calmVar, nil
	}

	var outcomes []eventOutcome
	for _, ev := range events {
		eventTime := ev.Timestamp

		var beforeAtt, beforeMed, afterAtt, afterMed []float64
		for _, row := range valid {
			switch {
			case !row.ts.Before(eventTime.Add(-c.window)) && row.ts.Before(eventTime):
				beforeAtt = append(beforeAtt, row.attention)
				beforeMed = append(beforeMed, row.meditation)
			case row.ts.After(eventTime) && !row.ts.After(eventTime.Add(c.window)):
				afterAtt = append(afterAtt, row.attention)
				afterMed = append(afterMed, row.meditation)
			}
		}
		if len(beforeAtt) == 0 || len(afterAtt) == 0 {
			continue
		}

		meanBefore := stat.Mean(beforeAtt, nil)
		meanAfter := stat.Mean(afterAtt, nil)
		outcome := eventOutcome{
			eventType:   *ev.GameEventType,
			focusChange: meanAfter - meanBefore,
			calmChange:  stat.Mean(afterMed, nil) - stat.Mean(beforeMed, nil),
		}
		if outcome.eventType == string(model.EventCollision) && meanAfter < meanBefore {
			outcome.lfoSeconds = c.recoveryLatency(valid, eventTime)
		}
		outcomes = append(outcomes, outcome)
	}
	if len(outcomes) == 0 {
		return focusVar, calmVar, nil
	}

	type agg struct {
		focusSum, calmSum float64
		n                 int
	}
	byType := make(map[string]*agg)
	var lfoSum float64
	var lfoCount int
	for _, o := range outcomes {
		a := byType[o.eventType]
		if a == nil {
			a = &agg{}
			byType[o.eventType] = a
		}
		a.focusSum += o.focusChange
		a.calmSum += o.calmChange
		a.n++
		if o.lfoSeconds != nil {
			lfoSum += *o.lfoSeconds
			lfoCount++
		}
	}
	for t, a := range byType {
		focusVar[t] = round2(a.focusSum / float64(a.n))
		calmVar[t] = round2(a.calmSum / float64(a.n))
	}

	var avgLFO *float64
	if lfoCount > 0 {
		v := lfoSum / float64(lfoCount)
		avgLFO = &v
	}
	return focusVar, calmVar, avgLFO
}

// recoveryLatency scans all valid-signal rows strictly after the event for
// the first reading above the focus threshold and returns the elapsed
// seconds, or nil when focus never recovers.
func (c *Calculator) recoveryLatency(valid []signalRow, eventTime time.Time) *float64 {
	for _, row := range valid {
		if row.ts.After(eventTime) && row.attention > c.focusThreshold {
			latency := row.ts.Sub(eventTime).Seconds()
			return &latency
		}
	}
	return nil
}
