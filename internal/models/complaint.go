package models

import (
	"time"
)

// Complaint statuses. Transitions are unrestricted except that resolving
// requires a resolution note.
const (
	ComplaintOpen       = "open"
	ComplaintInProgress = "in_progress"
	ComplaintResolved   = "resolved"
	ComplaintRejected   = "rejected"
)

// ValidComplaintStatus reports whether s is a known complaint status.
func ValidComplaintStatus(s string) bool {
	switch s {
	case ComplaintOpen, ComplaintInProgress, ComplaintResolved, ComplaintRejected:
		return true
	}
	return false
}

// Complaint is filed by a student and optionally assigned to a faculty
// member. Rows are removed when the owning student is deleted.
type Complaint struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	AssignedTo  *string    `json:"assigned_to,omitempty"` // faculty id
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	Resolution  *string    `json:"resolution,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// ComplaintFilter narrows complaint listings.
type ComplaintFilter struct {
	StudentID  string
	AssignedTo string
	Status     string
	Limit      int
	Offset     int
}
