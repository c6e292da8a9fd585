package service

import (
	"scratchtrack/models"
)

// Detector evaluates a new reading against a pack's history. Pure
// evaluation: the caller supplies the previous ticket, prior deltas and
// the other packs occupying the same box slot, and persists whatever
// findings come back.
type Detector struct {
	lookback           int
	absoluteFloor      int
	regressionSeverity models.AnomalySeverity
}

// NewDetector creates a detector. lookback bounds the number of prior
// deltas averaged for the outlier check; absoluteFloor is the sold delta
// at or below which the outlier check never fires.
func NewDetector(lookback, absoluteFloor int, regressionSeverity models.AnomalySeverity) *Detector {
	return &Detector{
		lookback:           lookback,
		absoluteFloor:      absoluteFloor,
		regressionSeverity: regressionSeverity,
	}
}

// Evaluate runs every check against the new reading. Checks are
// independent; more than one may fire for the same reading. A nil
// prevTicket marks the pack's baseline reading: the comparative checks
// have nothing to compare against and are skipped, but the swap check
// still runs since it only looks at box occupancy.
func (d *Detector) Evaluate(newTicket int, prevTicket *int, priorDeltas []int, othersInBox []*models.Pack) []models.Finding {
	var findings []models.Finding

	if prevTicket != nil {
		prev := *prevTicket

		// Regression: ticket indices are physically monotonic, so any
		// decrease means data error, an unrecorded pack change or
		// tampering.
		if newTicket < prev {
			findings = append(findings, models.Finding{
				Type:       models.AnomalyTypeRegression,
				Severity:   d.regressionSeverity,
				PrevTicket: prev,
				NewTicket:  newTicket,
			})
		}

		if newTicket == prev {
			findings = append(findings, models.Finding{
				Type:       models.AnomalyTypeStall,
				Severity:   models.AnomalySeverityLow,
				PrevTicket: prev,
				NewTicket:  newTicket,
			})
		}
	}

	// Swap: a second live pack in the same physical box slot means the
	// prior pack was never closed out before a new one was inserted.
	if len(othersInBox) > 0 {
		finding := models.Finding{
			Type:      models.AnomalyTypeSwap,
			Severity:  models.AnomalySeverityHigh,
			NewTicket: newTicket,
		}
		if prevTicket != nil {
			finding.PrevTicket = *prevTicket
		}
		findings = append(findings, finding)
	}

	if prevTicket != nil {
		if f, ok := d.checkOutlier(newTicket, *prevTicket, priorDeltas); ok {
			findings = append(findings, f)
		}
	}

	return findings
}

// checkOutlier compares the sold delta against twice the average of the
// prior deltas. The absolute floor keeps low-volume packs from tripping
// on trivial variance.
func (d *Detector) checkOutlier(newTicket, prevTicket int, priorDeltas []int) (models.Finding, bool) {
	soldDelta := newTicket - prevTicket
	if soldDelta <= d.absoluteFloor {
		return models.Finding{}, false
	}
	if len(priorDeltas) == 0 {
		return models.Finding{}, false
	}

	deltas := priorDeltas
	if len(deltas) > d.lookback {
		deltas = deltas[:d.lookback]
	}

	sum := 0
	for _, delta := range deltas {
		sum += delta
	}
	avg := float64(sum) / float64(len(deltas))

	if float64(soldDelta) <= 2*avg {
		return models.Finding{}, false
	}

	return models.Finding{
		Type:       models.AnomalyTypeOutlier,
		Severity:   models.AnomalySeverityMedium,
		PrevTicket: prevTicket,
		NewTicket:  newTicket,
		AvgDelta:   avg,
	}, true
}
