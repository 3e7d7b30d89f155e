package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadrail/lead-api/internal/model"
)

func pendingLead(name string, followUp time.Time) *model.Lead {
	l := &model.Lead{
		Name:   name,
		Status: model.LeadStatusOpen,
	}
	l.NextFollowUp = &followUp
	l.UpdatedAt = followUp.AddDate(0, 0, -3)
	return l
}

func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
}

func TestEvaluateTriggers_WarningBoundary(t *testing.T) {
	followUp := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	eve := followUp.AddDate(0, 0, -1)
	lead := pendingLead("Ravi Kumar", followUp)

	tests := []struct {
		name string
		now  time.Time
		want []TriggerKind
	}{
		{"before threshold", at(eve, 17, 59), nil},
		{"at threshold", at(eve, 18, 0), []TriggerKind{TriggerWarning}},
		{"late sweep same day", at(eve, 19, 0), []TriggerKind{TriggerWarning}},
		{"two days early", at(eve.AddDate(0, 0, -1), 18, 0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateTriggers(lead, tt.now)
			require.Len(t, got, len(tt.want))
			for i, kind := range tt.want {
				assert.Equal(t, kind, got[i].Kind)
				assert.Equal(t, model.ColorYellow, got[i].Color)
			}
		})
	}
}

func TestEvaluateTriggers_Missed(t *testing.T) {
	followUp := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	lead := pendingLead("Ravi Kumar", followUp)

	got := EvaluateTriggers(lead, at(followUp, 21, 0))
	require.Len(t, got, 1)
	assert.Equal(t, TriggerMissed, got[0].Kind)
	assert.Equal(t, model.ColorRed, got[0].Color)
	assert.Contains(t, got[0].Message, "Ravi Kumar")
	assert.Contains(t, got[0].Message, "15 Mar 2026")

	// Too early in the evening, nothing due yet.
	assert.Empty(t, EvaluateTriggers(lead, at(followUp, 20, 59)))
}

func TestEvaluateTriggers_CompletedSuppressesOthers(t *testing.T) {
	followUp := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	lead := pendingLead("Ravi Kumar", followUp)
	lead.Status = model.LeadStatusWalkin
	lead.UpdatedAt = at(followUp.AddDate(0, 0, -1), 11, 30)

	// The day after the status change at 21:00, only the confirmation is due
	// even though the follow-up date itself would have matched missed.
	got := EvaluateTriggers(lead, at(followUp, 21, 0))
	require.Len(t, got, 1)
	assert.Equal(t, TriggerCompleted, got[0].Kind)
	assert.Equal(t, model.ColorGray, got[0].Color)

	// Resolved leads never warn or miss, even outside the confirmation day.
	assert.Empty(t, EvaluateTriggers(lead, at(followUp.AddDate(0, 0, 1), 21, 0)))
	assert.Empty(t, EvaluateTriggers(lead, at(followUp.AddDate(0, 0, -1), 18, 0)))
}

func TestEvaluateTriggers_Pure(t *testing.T) {
	followUp := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	lead := pendingLead("Ravi Kumar", followUp)
	now := at(followUp.AddDate(0, 0, -1), 18, 30)

	first := EvaluateTriggers(lead, now)
	second := EvaluateTriggers(lead, now)
	assert.Equal(t, first, second)
}

func TestEvaluateTriggers_NoFollowUp(t *testing.T) {
	lead := &model.Lead{Name: "No Date", Status: model.LeadStatusNew}
	assert.Empty(t, EvaluateTriggers(lead, time.Now()))
	assert.Empty(t, EvaluateTriggers(nil, time.Now()))
}
