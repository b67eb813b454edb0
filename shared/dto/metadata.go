package dto

import (
	"time"

	"reservo/shared/constant"
	"reservo/shared/model"
	"reservo/shared/timezone"
)

// Metadata is the audit block embedded in every admin response. Times are
// rendered in the restaurant's zone; an unset time is left empty.
type Metadata struct {
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at,omitempty"`
	CreatedBy  string `json:"created_by"`
	ModifiedBy string `json:"modified_by,omitempty"`
}

func (m *Metadata) FromModel(model model.Metadata) {
	m.CreatedAt = formatAudit(model.CreatedAt)
	m.ModifiedAt = formatAudit(model.ModifiedAt)
	m.CreatedBy = model.CreatedBy
	m.ModifiedBy = model.ModifiedBy
}

func formatAudit(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return timezone.Format(t, constant.DateFormat)
}
