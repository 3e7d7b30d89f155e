// Package followup evaluates and fires follow-up reminder triggers for
// leads. The evaluator is pure clock arithmetic; the scheduler owns the
// cron loop, occurrence claiming and notification fanout.
package followup

import (
	"fmt"
	"time"

	"github.com/leadrail/lead-api/internal/model"
)

// TriggerKind identifies one of the three follow-up reminder rules.
type TriggerKind string

const (
	// TriggerWarning becomes due at 18:00 the day before the follow-up date.
	TriggerWarning TriggerKind = "warning"
	// TriggerMissed becomes due at 21:00 on the follow-up date itself when
	// the lead is still pending.
	TriggerMissed TriggerKind = "missed"
	// TriggerCompleted becomes due at 21:00 the day after the lead left the
	// pending statuses, confirming the follow-up was acted on.
	TriggerCompleted TriggerKind = "completed"
)

const (
	warningHour = 18
	eveningHour = 21
)

// Trigger is one reminder the sweep decided is due for a lead.
type Trigger struct {
	Kind    TriggerKind
	Title   string
	Message string
	Color   string
	// Day keys the occurrence for exactly-once claiming.
	Day time.Time
}

// EvaluateTriggers returns the triggers due for the lead at the given
// instant. A trigger is due from its threshold hour until the end of its
// calendar day; the scheduler's occurrence claim keeps a due trigger from
// firing more than once, so a sweep delayed past the threshold still
// delivers. The completed confirmation is checked first and is mutually
// exclusive with the other two kinds, so at most one trigger per call.
func EvaluateTriggers(lead *model.Lead, now time.Time) []Trigger {
	if lead == nil || lead.NextFollowUp == nil {
		return nil
	}

	followUp := lead.NextFollowUp.In(now.Location())
	followUpDay := truncateToDay(followUp)
	today := truncateToDay(now)

	// A lead that left the pending statuses had its follow-up acted on.
	// The confirmation lands the evening of the next calendar day, and
	// suppresses warning and missed for good.
	if !lead.Status.Pending() {
		confirmDay := truncateToDay(lead.UpdatedAt.In(now.Location())).AddDate(0, 0, 1)
		if today.Equal(confirmDay) && now.Hour() >= eveningHour {
			return []Trigger{{
				Kind:    TriggerCompleted,
				Title:   "Follow-up completed",
				Message: fmt.Sprintf("Follow-up for lead %s on %s is complete.", lead.Name, followUp.Format("02 Jan 2006")),
				Color:   model.ColorGray,
				Day:     confirmDay,
			}}
		}
		return nil
	}

	if today.Equal(followUpDay.AddDate(0, 0, -1)) && now.Hour() >= warningHour {
		return []Trigger{{
			Kind:    TriggerWarning,
			Title:   "Follow-up tomorrow",
			Message: fmt.Sprintf("Lead %s has a follow-up scheduled for %s.", lead.Name, followUp.Format("02 Jan 2006")),
			Color:   model.ColorYellow,
			Day:     today,
		}}
	}

	if today.Equal(followUpDay) && now.Hour() >= eveningHour {
		return []Trigger{{
			Kind:    TriggerMissed,
			Title:   "Follow-up missed",
			Message: fmt.Sprintf("Follow-up for lead %s scheduled for %s was missed.", lead.Name, followUp.Format("02 Jan 2006")),
			Color:   model.ColorRed,
			Day:     today,
		}}
	}

	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
