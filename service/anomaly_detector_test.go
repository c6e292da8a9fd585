package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scratchtrack/models"
)

func intPtr(v int) *int {
	return &v
}

func findingTypes(findings []models.Finding) []models.AnomalyType {
	types := make([]models.AnomalyType, 0, len(findings))
	for _, f := range findings {
		types = append(types, f.Type)
	}
	return types
}

func TestDetector_BaselineReading_NoComparativeFindings(t *testing.T) {
	detector := NewDetector(10, 10, models.AnomalySeverityMedium)

	findings := detector.Evaluate(42, nil, nil, nil)

	assert.Empty(t, findings)
}

func TestDetector_BaselineReading_SwapStillFires(t *testing.T) {
	detector := NewDetector(10, 10, models.AnomalySeverityMedium)
	othersInBox := []*models.Pack{{ID: 99, BoxLabel: "A7", Status: models.PackStatusActive}}

	findings := detector.Evaluate(0, nil, nil, othersInBox)

	require.Len(t, findings, 1)
	assert.Equal(t, models.AnomalyTypeSwap, findings[0].Type)
	assert.Equal(t, models.AnomalySeverityHigh, findings[0].Severity)
}

func TestDetector_Stall_ExactEquality(t *testing.T) {
	detector := NewDetector(10, 10, models.AnomalySeverityMedium)

	findings := detector.Evaluate(25, intPtr(25), []int{3, 4}, nil)

	require.Len(t, findings, 1)
	assert.Equal(t, models.AnomalyTypeStall, findings[0].Type)
	assert.Equal(t, models.AnomalySeverityLow, findings[0].Severity)
	assert.Equal(t, 25, findings[0].PrevTicket)
	assert.Equal(t, 25, findings[0].NewTicket)
}

func TestDetector_Stall_DoesNotFireOnIncrease(t *testing.T) {
	detector := NewDetector(10, 10, models.AnomalySeverityMedium)

	findings := detector.Evaluate(26, intPtr(25), nil, nil)

	assert.NotContains(t, findingTypes(findings), models.AnomalyTypeStall)
}

func TestDetector_Regression(t *testing.T) {
	detector := NewDetector(10, 10, models.AnomalySeverityMedium)

	findings := detector.Evaluate(20, intPtr(35), nil, nil)

	require.Len(t, findings, 1)
	assert.Equal(t, models.AnomalyTypeRegression, findings[0].Type)
	assert.Equal(t, models.AnomalySeverityMedium, findings[0].Severity)
	assert.Equal(t, 35, findings[0].PrevTicket)
	assert.Equal(t, 20, findings[0].NewTicket)
}

func TestDetector_Regression_SeverityConfigurable(t *testing.T) {
	detector := NewDetector(10, 10, models.AnomalySeverityHigh)

	findings := detector.Evaluate(20, intPtr(35), nil, nil)

	require.Len(t, findings, 1)
	assert.Equal(t, models.AnomalySeverityHigh, findings[0].Severity)
}

func TestDetector_Swap_FiresRegardlessOfTicketRelationship(t *testing.T) {
	detector := NewDetector(10, 10, models.AnomalySeverityMedium)
	othersInBox := []*models.Pack{{ID: 7, BoxLabel: "A7", Status: models.PackStatusActive}}

	// Normal forward progress still flags the doubly-occupied slot
	findings := detector.Evaluate(12, intPtr(10), nil, othersInBox)

	require.Len(t, findings, 1)
	assert.Equal(t, models.AnomalyTypeSwap, findings[0].Type)
	assert.Equal(t, models.AnomalySeverityHigh, findings[0].Severity)
}

func TestDetector_Outlier(t *testing.T) {
	tests := []struct {
		name        string
		newTicket   int
		prevTicket  int
		priorDeltas []int
		wantFire    bool
	}{
		{
			name:        "fires above twice the average",
			newTicket:   40,
			prevTicket:  25,
			priorDeltas: []int{5, 5, 5}, // delta 15, avg 5
			wantFire:    true,
		},
		{
			name:        "exactly twice the average does not fire",
			newTicket:   37,
			prevTicket:  25,
			priorDeltas: []int{6, 6}, // delta 12, avg 6, 2*avg = 12
			wantFire:    false,
		},
		{
			name:        "at the absolute floor does not fire",
			newTicket:   35,
			prevTicket:  25,
			priorDeltas: []int{1, 1}, // delta 10 == floor
			wantFire:    false,
		},
		{
			name:        "one past the floor fires",
			newTicket:   36,
			prevTicket:  25,
			priorDeltas: []int{1, 1}, // delta 11 > floor, avg 1
			wantFire:    true,
		},
		{
			name:        "no prior deltas never fires",
			newTicket:   80,
			prevTicket:  25,
			priorDeltas: nil,
			wantFire:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewDetector(10, 10, models.AnomalySeverityMedium)

			findings := detector.Evaluate(tt.newTicket, intPtr(tt.prevTicket), tt.priorDeltas, nil)

			if tt.wantFire {
				require.Len(t, findings, 1)
				assert.Equal(t, models.AnomalyTypeOutlier, findings[0].Type)
				assert.Equal(t, models.AnomalySeverityMedium, findings[0].Severity)
			} else {
				assert.Empty(t, findings)
			}
		})
	}
}

func TestDetector_Outlier_LookbackBoundsAverage(t *testing.T) {
	detector := NewDetector(3, 10, models.AnomalySeverityMedium)

	// Only the three most recent deltas count: avg 20, not dragged down
	// by the older run of ones.
	priorDeltas := []int{20, 20, 20, 1, 1, 1, 1}
	findings := detector.Evaluate(60, intPtr(25), priorDeltas, nil)

	assert.Empty(t, findings)
}

func TestDetector_MultipleFindingsForOneReading(t *testing.T) {
	detector := NewDetector(10, 10, models.AnomalySeverityMedium)
	othersInBox := []*models.Pack{{ID: 3, Status: models.PackStatusActive}}

	findings := detector.Evaluate(20, intPtr(35), []int{2, 3}, othersInBox)

	types := findingTypes(findings)
	assert.Contains(t, types, models.AnomalyTypeRegression)
	assert.Contains(t, types, models.AnomalyTypeSwap)
	assert.Len(t, findings, 2)
}
