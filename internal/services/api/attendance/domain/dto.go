// Package domain holds DTOs and ports for the attendance http surface
package domain

import (
	"context"

	attdom "garden/internal/services/attendance/domain"
)

// UserInput selects one member
type UserInput struct {
	User string `json:"user" validate:"required,min=1,max=100" example:"alice"`
}

// DateInput selects one calendar day in the roster zone
type DateInput struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02" example:"2024-01-02"`
}

// RefreshInput refreshes one member, or everyone when User is empty
type RefreshInput struct {
	User    string `json:"user,omitempty" validate:"omitempty,max=100" example:"alice"`
	Rebuild bool   `json:"rebuild,omitempty" example:"false"`
}

// Day is one attended day in a user history
type Day struct {
	Date    attdom.Date    `json:"date"`
	Entries []attdom.Entry `json:"entries"`
}

// UserOutput is the history of one member in date order
type UserOutput struct {
	User     string `json:"user"`
	Slack    string `json:"slack"`
	Attended int    `json:"attended"`
	Days     []Day  `json:"days"`
}

// ServicePort is what the handlers need from the attendance service
type ServicePort interface {
	History(ctx context.Context, user string) (attdom.UserAttendance, error)
	Report(ctx context.Context, day attdom.Date) ([]attdom.ReportRow, error)
	Absentees(ctx context.Context, day attdom.Date) ([]attdom.Absentee, error)
	Calendar(ctx context.Context) ([]attdom.CalendarRow, error)
	Refresh(ctx context.Context, user string) (attdom.RefreshResult, error)
	RefreshAll(ctx context.Context) ([]attdom.RefreshResult, error)
	Rebuild(ctx context.Context, user string) (attdom.RefreshResult, error)
	RebuildAll(ctx context.Context) ([]attdom.RefreshResult, error)
}
