// Package roster loads the season settings and the registered gardeners
// from a YAML file, with GARDEN_* environment overrides layered on top
package roster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // the default zone must resolve on minimal images

	"garden/internal/core/attendance"
	perr "garden/internal/platform/errors"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix namespaces the overrides, e.g. GARDEN_START_DATE
	EnvPrefix = "GARDEN_"
	// EnvPath names the roster file location
	EnvPath = "GARDEN_ROSTER"

	defaultPath     = "users.yaml"
	defaultTimezone = "Asia/Seoul"
	defaultDays     = 100
)

// Member is one registered gardener
type Member struct {
	ID    string `json:"id"`    // github login, matched against attachment author_name
	Slack string `json:"slack"` // chat display name used for mentions
}

// Roster is the loaded, validated registry
type Roster struct {
	Start         attendance.Date
	GardeningDays int
	Location      *time.Location
	CutoffHour    int
	Members       []Member // ascending by ID

	byID map[string]Member
}

type member struct {
	Slack string `koanf:"slack"`
}

type document struct {
	StartDate     string            `koanf:"-"`
	GardeningDays int               `koanf:"gardening_days"`
	Timezone      string            `koanf:"timezone"`
	CutoffHour    int               `koanf:"carry_back_hours"`
	Users         map[string]member `koanf:"users"`
}

// PathFromEnv returns GARDEN_ROSTER or the default users.yaml
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p
	}
	return defaultPath
}

// Load reads path and applies GARDEN_ overrides. Any failure is a
// configuration error and callers are expected to stop before doing I/O
func Load(path string) (*Roster, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "roster %s not found", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "roster %s unreadable", path)
	}

	// GARDEN_START_DATE -> start_date; GARDEN_ROSTER itself lands on an unused key
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "roster env overrides")
	}

	var doc document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "roster %s malformed", path)
	}
	doc.StartDate = dateString(k.Get("start_date"))
	return build(doc)
}

// New builds a roster in code. loc nil means the default zone and
// non-positive days mean the default season length
func New(start attendance.Date, days int, loc *time.Location, members ...Member) (*Roster, error) {
	doc := document{StartDate: start.String(), GardeningDays: days, Users: map[string]member{}}
	for _, m := range members {
		doc.Users[m.ID] = member{Slack: m.Slack}
	}
	r, err := build(doc)
	if err != nil {
		return nil, err
	}
	if loc != nil {
		r.Location = loc
	}
	return r, nil
}

// dateString accepts both a quoted string and a YAML timestamp
func dateString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format(time.DateOnly)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func build(doc document) (*Roster, error) {
	if strings.TrimSpace(doc.StartDate) == "" {
		return nil, perr.InvalidArgf("roster: start_date is required")
	}
	start, err := attendance.ParseDate(strings.TrimSpace(doc.StartDate))
	if err != nil {
		return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "roster: bad start_date"), "start_date")
	}

	tz := strings.TrimSpace(doc.Timezone)
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "roster: unknown timezone %q", tz), "timezone")
	}

	days := doc.GardeningDays
	if days <= 0 {
		days = defaultDays
	}
	cutoff := doc.CutoffHour
	if cutoff <= 0 || cutoff > 23 {
		cutoff = attendance.DefaultCutoffHour
	}

	r := &Roster{
		Start:         start,
		GardeningDays: days,
		Location:      loc,
		CutoffHour:    cutoff,
		byID:          make(map[string]Member, len(doc.Users)),
	}
	for id, m := range doc.Users {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		slack := strings.TrimSpace(m.Slack)
		if slack == "" {
			slack = id
		}
		mem := Member{ID: id, Slack: slack}
		r.Members = append(r.Members, mem)
		r.byID[id] = mem
	}
	sort.Slice(r.Members, func(i, j int) bool { return r.Members[i].ID < r.Members[j].ID })
	return r, nil
}

// Lookup returns the member registered under id
func (r *Roster) Lookup(id string) (Member, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Require is Lookup that returns a NotFound error
func (r *Roster) Require(id string) (Member, error) {
	if m, ok := r.byID[id]; ok {
		return m, nil
	}
	return Member{}, perr.NotFoundf("user %q is not registered", id)
}

// IDs returns member ids in ascending order
func (r *Roster) IDs() []string {
	out := make([]string, len(r.Members))
	for i, m := range r.Members {
		out[i] = m.ID
	}
	return out
}

// End is the first day after the season
func (r *Roster) End() attendance.Date { return r.Start.AddDays(r.GardeningDays) }

// Season lists every day of the season in order
func (r *Roster) Season() []attendance.Date {
	out := make([]attendance.Date, 0, r.GardeningDays)
	for i := 0; i < r.GardeningDays; i++ {
		out = append(out, r.Start.AddDays(i))
	}
	return out
}

// Today returns the current calendar day in the roster zone
func (r *Roster) Today(now time.Time) attendance.Date {
	return attendance.DateOf(now.In(r.Location))
}

// Policy returns the derivation rule parameters
func (r *Roster) Policy() attendance.Policy {
	return attendance.Policy{Start: r.Start, Location: r.Location, CutoffHour: r.CutoffHour}
}

func (r *Roster) String() string {
	return fmt.Sprintf("season %s +%dd (%s), %d members", r.Start, r.GardeningDays, r.Location, len(r.Members))
}
