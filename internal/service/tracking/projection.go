package tracking

import (
	"fmt"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/tracking"
)

// Calculating is shown while the provider has not reported ETA or distance.
const Calculating = "calculating"

// Timeline projects status onto the ordered progression. A step is done when
// status is at or past it and current when status equals it. A cancelled or
// unknown status leaves every step open.
func Timeline(status request.Status) []request.TimelineStep {
	rank := status.Rank()
	steps := make([]request.TimelineStep, 0, len(request.Progression))
	for i, st := range request.Progression {
		steps = append(steps, request.TimelineStep{
			Status:  st,
			Done:    rank >= 0 && i <= rank,
			Current: i == rank,
		})
	}
	return steps
}

// Project derives the display model from a snapshot. fallback is used when
// the snapshot is missing or carries no status.
func Project(snap *tracking.Snapshot, fallback request.Status) tracking.Display {
	d := tracking.Display{
		Status:        fallback,
		ETALabel:      Calculating,
		DistanceLabel: Calculating,
	}
	if snap != nil {
		if snap.Status != "" {
			d.Status = snap.Status
		}
		d.Provider = snap.Provider
		if snap.Location != nil {
			d.Position = snap.Location.Provider
		}
		if m := etaMinutes(snap.ETA); m != nil {
			d.ETAMinutes = m
			d.ETALabel = fmt.Sprintf("%d min", *m)
		}
		if km := distanceKm(snap); km != nil {
			d.DistanceKm = km
			d.DistanceLabel = fmt.Sprintf("%.1f km", *km)
		}
	}
	d.Timeline = Timeline(d.Status)
	return d
}

func etaMinutes(eta *tracking.ETA) *int {
	if eta == nil {
		return nil
	}
	if eta.Minutes != nil {
		return eta.Minutes
	}
	return eta.EtaMinutes
}

func distanceKm(snap *tracking.Snapshot) *float64 {
	if snap.DistanceKm != nil {
		return snap.DistanceKm
	}
	return snap.Distance
}
