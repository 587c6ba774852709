package domain

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// SuggestPhaseDates spreads the start..end timeline evenly across the given
// phases in order. Each phase gets ceil(totalDays/len(phases)) days.
//
// Ranges are half-open: EndDate is exclusive and equals the next phase's
// StartDate, so adjacent phases never share a day. No date passes end. When
// rounding up uses the whole timeline before every phase is placed (more
// phases than days, or 7 phases over 10 days), the remaining phases get an
// empty range with StartDate == EndDate == end. It returns nil when the
// timeline or phase list is empty.
func SuggestPhaseDates(start, end time.Time, phases []Phase) []PhaseDateSuggestion {
	if len(phases) == 0 || !end.After(start) {
		return nil
	}

	totalDays := int(math.Round(end.Sub(start).Hours() / 24))
	if totalDays <= 0 {
		return nil
	}
	daysPerPhase := (totalDays + len(phases) - 1) / len(phases)

	out := make([]PhaseDateSuggestion, len(phases))
	for i := range phases {
		phaseStart := start.Add(time.Duration(i*daysPerPhase) * day)
		phaseEnd := phaseStart.Add(time.Duration(daysPerPhase) * day)
		if phaseStart.After(end) {
			phaseStart = end
		}
		phaseEnd = minTime(phaseEnd, end)
		out[i] = PhaseDateSuggestion{
			PhaseID:   phases[i].ID,
			PhaseName: phases[i].Name,
			StartDate: phaseStart,
			EndDate:   phaseEnd,
		}
	}
	return out
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
