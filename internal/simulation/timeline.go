package simulation

import (
	"fmt"
	"sort"
	"time"

	"er-patient-tracking/internal/models"
)

// minutesBetween truncates the span between two instants to whole minutes,
// clamping negative spans to zero
func minutesBetween(from, to time.Time) int {
	ms := to.Sub(from).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int(ms / 60000)
}

// DeriveTimeline rebuilds the ordered milestone history of a patient from the
// timestamps on the patient and its studies. Each entry carries the minutes
// elapsed since the previous one; the first entry has duration 0.
func DeriveTimeline(p models.Patient, studies []models.Study) []models.TimelineEvent {
	events := []models.TimelineEvent{{
		ID:          p.ID + "-admission",
		Timestamp:   p.AdmissionTime,
		Type:        models.TimelineAdmission,
		Title:       "Admission",
		Description: fmt.Sprintf("%s admitted (%s)", p.Name, p.Severity),
	}}

	if p.AssignedToDoctorAt != nil {
		events = append(events, models.TimelineEvent{
			ID:          p.ID + "-doctor",
			Timestamp:   *p.AssignedToDoctorAt,
			Type:        models.TimelineDoctorAssigned,
			Title:       "Doctor assigned",
			Description: fmt.Sprintf("Assigned to doctor %s", p.DoctorID),
		})
	}

	for _, s := range studies {
		events = append(events, models.TimelineEvent{
			ID:          s.ID + "-requested",
			Timestamp:   s.RequestedAt,
			Type:        models.TimelineStudyRequested,
			Title:       "Study requested",
			Description: fmt.Sprintf("%s (%s)", s.Name, s.Type),
		})
		if s.InProgressAt != nil {
			events = append(events, models.TimelineEvent{
				ID:          s.ID + "-in-progress",
				Timestamp:   *s.InProgressAt,
				Type:        models.TimelineStudyInProgress,
				Title:       "Study in progress",
				Description: fmt.Sprintf("%s awaiting result", s.Name),
			})
		}
		if s.CompletedAt != nil {
			desc := fmt.Sprintf("%s result available", s.Name)
			if s.HasAlert {
				desc = fmt.Sprintf("%s result available, abnormal", s.Name)
			}
			events = append(events, models.TimelineEvent{
				ID:          s.ID + "-completed",
				Timestamp:   *s.CompletedAt,
				Type:        models.TimelineStudyCompleted,
				Title:       "Study completed",
				Description: desc,
			})
		}
		if s.ReviewedAt != nil {
			events = append(events, models.TimelineEvent{
				ID:          s.ID + "-reviewed",
				Timestamp:   *s.ReviewedAt,
				Type:        models.TimelineStudyReviewed,
				Title:       "Result reviewed",
				Description: fmt.Sprintf("%s reviewed by the doctor", s.Name),
			})
		}
	}

	if p.AllStudiesCompletedAt != nil {
		events = append(events, models.TimelineEvent{
			ID:          p.ID + "-all-completed",
			Timestamp:   *p.AllStudiesCompletedAt,
			Type:        models.TimelineAllCompleted,
			Title:       "All studies completed",
			Description: fmt.Sprintf("%d studies completed", len(studies)),
		})
	}

	if p.DischargedAt != nil {
		events = append(events, models.TimelineEvent{
			ID:          p.ID + "-discharge",
			Timestamp:   *p.DischargedAt,
			Type:        models.TimelineDischarge,
			Title:       "Discharge",
			Description: fmt.Sprintf("%s discharged", p.Name),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	for i := 1; i < len(events); i++ {
		events[i].Duration = minutesBetween(events[i-1].Timestamp, events[i].Timestamp)
	}
	return events
}

// DeriveTimeStats aggregates how long a patient spent in each phase.
// Open intervals end at discharge, or at now for active patients.
func DeriveTimeStats(p models.Patient, studies []models.Study, now time.Time) models.TimeStats {
	end := now
	if p.DischargedAt != nil {
		end = *p.DischargedAt
	}

	stats := models.TimeStats{TotalTime: minutesBetween(p.AdmissionTime, end)}

	completed := 0
	for _, s := range studies {
		started := end
		if s.InProgressAt != nil {
			started = *s.InProgressAt
		}
		stats.WaitingForStudies += minutesBetween(s.RequestedAt, started)

		if s.CompletedAt == nil {
			continue
		}
		completed++
		reviewed := end
		if s.ReviewedAt != nil {
			reviewed = *s.ReviewedAt
		}
		stats.WaitingForReview += minutesBetween(*s.CompletedAt, reviewed)
		if s.InProgressAt != nil {
			stats.StudiesInProgress += minutesBetween(*s.InProgressAt, *s.CompletedAt)
		}
	}

	if completed > 0 {
		stats.AverageStudyTime = stats.StudiesInProgress / completed
	}
	return stats
}

// FormatDuration renders minutes the way the dashboard shows them: "45m", "2h", "1h 5m"
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
