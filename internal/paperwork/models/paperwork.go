// Package models defines the paperwork domain types shared by stores,
// services, and transport.
package models

import (
	"strings"
	"time"
	"unicode"
)

// Status is one token from the closed set governing a paperwork record's
// workflow stage. Tokens are case-sensitive and stored verbatim.
type Status string

const (
	StatusCreated       Status = "paperwork_created"
	StatusInitiated     Status = "initiated_agreement_bgv"
	StatusClosed        Status = "paperwork_closed"
	StatusStarted       Status = "started"
	StatusClientHold    Status = "client_hold"
	StatusClientDropped Status = "client_dropped"
	StatusBackout       Status = "backout"
)

// statusLabels is the single source of truth for human-readable status
// text. History views, notification emails, and CSV export all render
// through Label so the wording cannot drift between surfaces.
var statusLabels = map[Status]string{
	StatusCreated:       "Paperwork Created",
	StatusInitiated:     "Initiated Agreement & BGV",
	StatusClosed:        "Paperwork Closed",
	StatusStarted:       "Started",
	StatusClientHold:    "Client Hold",
	StatusClientDropped: "Client Dropped",
	StatusBackout:       "Backout",
}

// AllStatuses lists the closed token set in workflow order.
func AllStatuses() []Status {
	return []Status{
		StatusCreated,
		StatusInitiated,
		StatusClosed,
		StatusStarted,
		StatusClientHold,
		StatusClientDropped,
		StatusBackout,
	}
}

// Valid reports whether s is a member of the closed token set.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human-readable form of a status token. Unknown tokens
// (legacy rows written before the set was closed) fall back to replacing
// separators with spaces and capitalizing the first letter, so "foo_bar"
// renders as "Foo bar".
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	raw := strings.NewReplacer("_", " ", "-", " ").Replace(string(s))
	runes := []rune(raw)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// Paperwork is a candidate onboarding record. The service owns the status
// and reason slice of its lifecycle; the rest is reference data captured at
// submission time.
type Paperwork struct {
	ID             int64     `json:"id"`
	CandidateName  string    `json:"candidate_name"`
	CandidateEmail string    `json:"candidate_email"`
	Client         string    `json:"client"`
	Status         Status    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StatusChange is one row of the status audit trail. Immutable once
// written; one row per transition.
type StatusChange struct {
	ID             int64     `json:"id"`
	PaperworkID    int64     `json:"paperwork_id"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	ChangedBy      string    `json:"changed_by"`
	Reason         string    `json:"reason,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

// StatusChangeView is a StatusChange enriched with display labels for the
// history endpoint.
type StatusChangeView struct {
	StatusChange
	PreviousStatusLabel string `json:"previous_status_label"`
	NewStatusLabel      string `json:"new_status_label"`
}

// Enrich resolves display labels for a status change.
func (c StatusChange) Enrich() StatusChangeView {
	return StatusChangeView{
		StatusChange:        c,
		PreviousStatusLabel: c.PreviousStatus.Label(),
		NewStatusLabel:      c.NewStatus.Label(),
	}
}
