// Package backend is a small HAL-FORMS change-request service backed by
// SQLite. It gives the navigator a real hypermedia API to explore.
package backend

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status is the lifecycle state of a change request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusInProgress, StatusCompleted}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// ChangeRequest is the stored entity.
type ChangeRequest struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	RequestedBy string     `json:"requestedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Input is the writable part of a change request, used by create and update.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	RequestedBy string `json:"requestedBy"`
}

// Normalize trims text fields and defaults the status to PENDING.
func (in *Input) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.RequestedBy = strings.TrimSpace(in.RequestedBy)
	if in.Status == "" {
		in.Status = StatusPending
	} else if st, ok := ParseStatus(string(in.Status)); ok {
		in.Status = st
	}
}

// Validate checks the field rules. The error is a validation.Errors keyed
// by JSON field name.
func (in Input) Validate() error {
	statuses := make([]any, len(Statuses))
	for i, s := range Statuses {
		statuses[i] = s
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("Title is required"),
			validation.RuneLength(3, 100).Error("Title must be between 3 and 100 characters")),
		validation.Field(&in.Description,
			validation.RuneLength(0, 1000).Error("Description cannot exceed 1000 characters")),
		validation.Field(&in.Status,
			validation.In(statuses...).Error("Status must be one of PENDING, APPROVED, REJECTED, IN_PROGRESS, COMPLETED")),
		validation.Field(&in.RequestedBy,
			validation.Required.Error("Requested by is required"),
			validation.RuneLength(2, 50).Error("Requested by must be between 2 and 50 characters")),
	)
}
