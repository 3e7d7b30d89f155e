package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadrail/lead-api/internal/model"
)

// buildLeadListQuery turns (role, userID, filters) into a WHERE clause with
// positional args and an ORDER BY clause. The role predicate comes first:
// Admin sees every lead, a Sub-Admin sees leads they created or hold, and an
// Agent (the default) sees only leads assigned to them. Filters combine
// conjunctively; unknown enum values are ignored. `now` anchors the
// today/yesterday date windows.
func buildLeadListQuery(role model.Role, userID uuid.UUID, f *model.LeadFilters, now time.Time) (string, []interface{}, string) {
	where := "deleted_at IS NULL"
	args := []interface{}{}

	cond := func(format string, vals ...interface{}) {
		placeholders := make([]interface{}, len(vals))
		for i := range vals {
			placeholders[i] = len(args) + i + 1
		}
		where += " AND " + fmt.Sprintf(format, placeholders...)
		args = append(args, vals...)
	}

	switch role {
	case model.RoleAdmin:
		// all leads
	case model.RoleSubAdmin:
		cond("(created_by = $%d OR assigned_to = $%d)", userID, userID)
	default:
		cond("assigned_to = $%d", userID)
	}

	if f == nil {
		return where, args, "ORDER BY created_at DESC"
	}

	if f.OpenOnly {
		cond("status = $%d", model.LeadStatusOpen)
	} else if s := model.LeadStatus(f.Status); f.Status != "" && s.Valid() {
		cond("status = $%d", s)
	}

	if p := model.LeadPriority(f.Priority); f.Priority != "" && p.Valid() {
		cond("priority = $%d", p)
	}

	switch f.Assignment {
	case model.FilterAssigned:
		where += " AND assigned_to IS NOT NULL"
	case model.FilterUnassigned:
		where += " AND assigned_to IS NULL"
	}

	if f.AssignedTo != nil {
		cond("assigned_to = $%d", *f.AssignedTo)
	}

	if f.SearchText != "" {
		pattern := "%" + f.SearchText + "%"
		cond("(name ILIKE $%d OR mobile ILIKE $%d)", pattern, pattern)
	}

	if from, to, ok := dateWindow(f, now); ok {
		cond("created_at >= $%d", from)
		cond("created_at < $%d", to)
	}

	orderBy := "ORDER BY created_at DESC"
	switch f.SortBy {
	case model.SortLeadValueAsc:
		orderBy = "ORDER BY lead_value ASC"
	case model.SortLeadValueDesc:
		orderBy = "ORDER BY lead_value DESC"
	}

	return where, args, orderBy
}

// dateWindow resolves the creation-date filter to a half-open [from, to)
// interval. Invalid combinations (e.g. "custom" without a start date)
// yield no window.
func dateWindow(f *model.LeadFilters, now time.Time) (time.Time, time.Time, bool) {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	switch f.Date {
	case model.DateFilterToday:
		start := day(now)
		return start, start.AddDate(0, 0, 1), true
	case model.DateFilterYesterday:
		start := day(now).AddDate(0, 0, -1)
		return start, start.AddDate(0, 0, 1), true
	case model.DateFilterCustom:
		if f.StartDate == nil {
			return time.Time{}, time.Time{}, false
		}
		start := day(*f.StartDate)
		return start, start.AddDate(0, 0, 1), true
	case model.DateFilterRange:
		if f.StartDate == nil || f.EndDate == nil {
			return time.Time{}, time.Time{}, false
		}
		start := day(*f.StartDate)
		end := day(*f.EndDate).AddDate(0, 0, 1)
		if !end.After(start) {
			return time.Time{}, time.Time{}, false
		}
		return start, end, true
	}
	return time.Time{}, time.Time{}, false
}
