// Package domain holds the attendance read models and storage ports
package domain

import (
	"time"

	"garden/internal/core/attendance"
)

type (
	// Date is a calendar day in the roster zone
	Date = attendance.Date
	// Entry is one qualifying message filed under a day
	Entry = attendance.Entry
	// Buckets maps days to entries
	Buckets = attendance.Buckets
)

// UserAttendance is the derived history of one member
type UserAttendance struct {
	User    string  `json:"user"`
	Slack   string  `json:"slack"`
	Buckets Buckets `json:"buckets"`
}

// ReportRow is one member's status on a day
// FirstTS and FirstAt are nil when the member did not attend
type ReportRow struct {
	User    string     `json:"user"`
	Slack   string     `json:"slack"`
	FirstTS *string    `json:"first_ts"`
	FirstAt *time.Time `json:"first_at"`
}

// Attended reports whether the member has an entry on the day
func (r ReportRow) Attended() bool { return r.FirstTS != nil }

// Absentee is a member with no attendance on a day
type Absentee struct {
	User  string `json:"user"`
	Slack string `json:"slack"`
}

// CalendarRow lists the attended season days of one member
type CalendarRow struct {
	User     string `json:"user"`
	Slack    string `json:"slack"`
	Dates    []Date `json:"dates"`
	Attended int    `json:"attended"`
}

// Cursor is the newest message folded into a member's buckets
type Cursor struct {
	TS string
	At time.Time
}

// RefreshResult describes one incremental or full update
type RefreshResult struct {
	User    string `json:"user"`
	Scanned int    `json:"scanned"` // messages read from the store
	Filed   int    `json:"filed"`   // entries added
	Days    int    `json:"days"`    // days touched
	Cursor  string `json:"cursor"`
}

// ExportRow is one attendance_daily row
type ExportRow struct {
	User    string
	Day     Date
	FirstTS string
	FirstAt time.Time
	Commits int
}
