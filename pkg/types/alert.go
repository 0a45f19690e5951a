package types

// AlertType classifies a server-reported detection event.
type AlertType string

const (
	AlertWeapon AlertType = "weapon"
	AlertTarget AlertType = "target"
	AlertOther  AlertType = "other"
)

// Alert mirrors the JSON shape returned by GET /api/alerts. Alerts are
// immutable once received and carry no server-assigned identifier, so the
// struct is kept comparable: membership and selection use value equality.
type Alert struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Timestamp int64     `json:"timestamp"`
	Image     string    `json:"image,omitempty"`
}

// HasEvidence reports whether the alert references a snapshot resource.
// Only evidence-bearing alerts are selectable for the detail view.
func (a Alert) HasEvidence() bool {
	return a.Image != ""
}
