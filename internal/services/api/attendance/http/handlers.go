// Package http provides http transport for attendance queries
package http

import (
	stdhttp "net/http"

	"garden/internal/core/attendance"
	"garden/internal/modkit/httpkit"
	perr "garden/internal/platform/errors"
	"garden/internal/services/api/attendance/domain"
	attdom "garden/internal/services/attendance/domain"
)

// Register mounts attendance endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.UserInput](r, "/user", h.user)
	httpkit.PostJSON[domain.DateInput](r, "/report", h.report)
	httpkit.PostJSON[domain.DateInput](r, "/absentees", h.absentees)
	httpkit.Get(r, "/calendar", h.calendar)
	httpkit.PostJSON[domain.RefreshInput](r, "/refresh", h.refresh)
}

type handlers struct{ svc domain.ServicePort }

func parseDate(s string) (attdom.Date, error) {
	d, err := attendance.ParseDate(s)
	if err != nil {
		return attdom.Date{}, perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "date must be YYYY-MM-DD"), "date")
	}
	return d, nil
}

// swagger:route POST /attendance/user Attendance attendanceUser
// @Summary Attendance history of one member
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body domain.UserInput true "Member"
// @Success 200 {object} domain.UserOutput "ok"
// @Router /attendance/user [post]
func (h *handlers) user(r *stdhttp.Request, in domain.UserInput) (any, error) {
	ua, err := h.svc.History(r.Context(), in.User)
	if err != nil {
		return nil, err
	}
	out := domain.UserOutput{User: ua.User, Slack: ua.Slack, Days: []domain.Day{}}
	for _, d := range ua.Buckets.Dates() {
		out.Days = append(out.Days, domain.Day{Date: d, Entries: ua.Buckets[d]})
	}
	out.Attended = len(out.Days)
	return out, nil
}

// swagger:route POST /attendance/report Attendance attendanceReport
// @Summary First commit of every member on a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body domain.DateInput true "Day"
// @Success 200 {array} attdom.ReportRow "ok"
// @Router /attendance/report [post]
func (h *handlers) report(r *stdhttp.Request, in domain.DateInput) (any, error) {
	d, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	return h.svc.Report(r.Context(), d)
}

// swagger:route POST /attendance/absentees Attendance attendanceAbsentees
// @Summary Members with no attendance on a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body domain.DateInput true "Day"
// @Success 200 {array} attdom.Absentee "ok"
// @Router /attendance/absentees [post]
func (h *handlers) absentees(r *stdhttp.Request, in domain.DateInput) (any, error) {
	d, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Absentees(r.Context(), d)
	if out == nil && err == nil {
		out = []attdom.Absentee{}
	}
	return out, err
}

// swagger:route GET /attendance/calendar Attendance attendanceCalendar
// @Summary Attended days per member inside the season
// @Tags Attendance
// @Produce json
// @Success 200 {array} attdom.CalendarRow "ok"
// @Router /attendance/calendar [get]
func (h *handlers) calendar(r *stdhttp.Request) (any, error) {
	return h.svc.Calendar(r.Context())
}

// swagger:route POST /attendance/refresh Attendance attendanceRefresh
// @Summary Fold new messages into the materialized buckets
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body domain.RefreshInput true "Scope"
// @Success 200 {array} attdom.RefreshResult "ok"
// @Router /attendance/refresh [post]
func (h *handlers) refresh(r *stdhttp.Request, in domain.RefreshInput) (any, error) {
	ctx := r.Context()
	switch {
	case in.User == "" && in.Rebuild:
		return h.svc.RebuildAll(ctx)
	case in.User == "":
		return h.svc.RefreshAll(ctx)
	case in.Rebuild:
		res, err := h.svc.Rebuild(ctx, in.User)
		return []attdom.RefreshResult{res}, err
	default:
		res, err := h.svc.Refresh(ctx, in.User)
		return []attdom.RefreshResult{res}, err
	}
}
