package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/solarroi/solarroi/pkg/models"
)

// Item outcomes, used as metric labels.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// StageTimings records how long each stage of one item took.
type StageTimings struct {
	Detect     time.Duration `json:"detect_ns"`
	Irradiance time.Duration `json:"irradiance_ns"`
	Potential  time.Duration `json:"potential_ns"`
	ROI        time.Duration `json:"roi_ns"`
}

// ItemResult is the outcome of one batch item. Err is set when the item
// failed; Potential and ROI hold whatever was computed before the failure.
type ItemResult struct {
	Run       models.AnalysisRun
	Potential *models.SolarPotentialResult
	ROI       *models.ROIResult
	Timings   StageTimings
	Err       error
}

func (r ItemResult) Outcome() string {
	switch {
	case r.Err == nil:
		return OutcomeOK
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// BatchResult holds item results in submission order.
type BatchResult struct {
	BatchID   uuid.UUID
	StartedAt time.Time
	Elapsed   time.Duration
	Items     []ItemResult
}

func (b BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Items {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func (b BatchResult) Failed() int {
	return len(b.Items) - b.Succeeded()
}
