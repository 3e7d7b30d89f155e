package model

// Setting type constants
const (
	SettingTypeLeadSource     = "lead-sources"
	SettingTypeCustomerStatus = "customer-status"
)

// Setting resolves a display label of a given type to a stable id,
// e.g. a lead-source name or a customer-status label.
type Setting struct {
	Base
	Title string `json:"title" db:"title"`
	Type  string `json:"type" db:"type"`
}
