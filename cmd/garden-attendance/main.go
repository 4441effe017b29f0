// Command garden-attendance is the operator CLI for attendance queries,
// bucket maintenance, export, manual inserts and purge
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"garden/internal/adapters/roster"
	"garden/internal/core/attendance"
	"garden/internal/modkit"
	"garden/internal/platform/config"
	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
	"garden/internal/platform/metrics"
	"garden/internal/platform/store"

	attdom "garden/internal/services/attendance/domain"
	attmod "garden/internal/services/attendance/module"
	manualdom "garden/internal/services/manual/domain"
	manualmod "garden/internal/services/manual/module"
	msgmod "garden/internal/services/messages/module"

	"github.com/joho/godotenv"
)

const usage = `usage: garden-attendance <command> [flags]

commands:
  report     -date YYYY-MM-DD   first entry per member on a day
  absentees  -date YYYY-MM-DD   members with no entry on a day
  user       -id <user>         every bucket of one member
  calendar                      attended dates within the season
  refresh    [-user <user>]     fold new messages into materialized buckets
  rebuild    [-user <user>]     clear and recompute materialized buckets
  export     -from -to          write daily rows to clickhouse
  insert     -url <commit-url>  insert a commit as an attendance message
  purge      -yes               remove every stored message
`

// app carries the wired modules for one invocation
type app struct {
	roster   *roster.Roster
	messages *msgmod.Module
	att      *attmod.Module
	manual   *manualmod.Module
	out      io.Writer
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := roster.Load(roster.PathFromEnv())
	if err != nil {
		l.Fatal().Err(err).Msg("roster.Load failed")
	}

	st, err := store.Open(ctx, store.FromEnv(root, "attendance"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{
		Cfg:     root,
		PG:      st.PG,
		CH:      st.CH,
		Mongo:   st.Mongo,
		Log:     *l,
		Metrics: metrics.New(),
	}
	a, err := wire(deps, r, os.Stdout)
	if err != nil {
		l.Fatal().Err(err).Msg("wiring failed")
	}
	if err := a.run(ctx, cmd, args); err != nil {
		l.Fatal().Err(err).Str("command", cmd).Msg("garden-attendance failed")
	}
}

// wire builds the modules from deps. Options come from deps.Cfg
func wire(deps modkit.Deps, r *roster.Roster, out io.Writer) (*app, error) {
	messages, err := msgmod.New(deps)
	if err != nil {
		return nil, err
	}
	att, err := attmod.New(deps, r, messages, attmod.FromConfig(deps.Cfg))
	if err != nil {
		return nil, err
	}
	return &app{
		roster:   r,
		messages: messages,
		att:      att,
		manual:   manualmod.New(deps, r, messages, manualmod.FromConfig(deps.Cfg)),
		out:      out,
	}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	today := a.roster.Today(time.Now()).String()
	svc := a.att.Service()

	switch cmd {
	case "report":
		date := fs.String("date", today, "day to report (YYYY-MM-DD)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		day, err := attendance.ParseDate(*date)
		if err != nil {
			return err
		}
		rows, err := svc.Report(ctx, day)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.Attended() {
				a.printf("%-16s %-20s %s %s\n", row.User, row.Slack, *row.FirstTS, row.FirstAt.In(a.roster.Location).Format(time.RFC3339))
				continue
			}
			a.printf("%-16s %-20s -\n", row.User, row.Slack)
		}
		return nil

	case "absentees":
		date := fs.String("date", today, "day to check (YYYY-MM-DD)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		day, err := attendance.ParseDate(*date)
		if err != nil {
			return err
		}
		rows, err := svc.Absentees(ctx, day)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			a.printf("everyone attended on %s\n", day)
			return nil
		}
		for _, row := range rows {
			a.printf("@%s (%s)\n", row.Slack, row.User)
		}
		return nil

	case "user":
		id := fs.String("id", "", "member id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		ua, err := svc.History(ctx, *id)
		if err != nil {
			return err
		}
		a.printf("%s (@%s) attended %d days\n", ua.User, ua.Slack, len(ua.Buckets))
		for _, d := range ua.Buckets.Dates() {
			for _, e := range ua.Buckets[d] {
				a.printf("  %s %s %s\n", d, e.TS, strings.Join(e.Commits, " | "))
			}
		}
		return nil

	case "calendar":
		if err := fs.Parse(args); err != nil {
			return err
		}
		rows, err := svc.Calendar(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			days := make([]string, 0, len(row.Dates))
			for _, d := range row.Dates {
				days = append(days, d.String())
			}
			a.printf("%-16s %3d/%d %s\n", row.User, row.Attended, a.roster.GardeningDays, strings.Join(days, ","))
		}
		return nil

	case "refresh", "rebuild":
		user := fs.String("user", "", "member id (default: every member)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := svc.EnsureSchema(ctx); err != nil {
			return err
		}
		var (
			res []attdom.RefreshResult
			err error
		)
		switch {
		case cmd == "refresh" && *user != "":
			var one attdom.RefreshResult
			one, err = svc.Refresh(ctx, *user)
			res = []attdom.RefreshResult{one}
		case cmd == "refresh":
			res, err = svc.RefreshAll(ctx)
		case *user != "":
			var one attdom.RefreshResult
			one, err = svc.Rebuild(ctx, *user)
			res = []attdom.RefreshResult{one}
		default:
			res, err = svc.RebuildAll(ctx)
		}
		if err != nil {
			return err
		}
		for _, r := range res {
			a.printf("%-16s scanned=%d filed=%d days=%d cursor=%s\n", r.User, r.Scanned, r.Filed, r.Days, r.Cursor)
		}
		return nil

	case "export":
		from := fs.String("from", a.roster.Start.String(), "first day (YYYY-MM-DD)")
		to := fs.String("to", today, "last day, inclusive (YYYY-MM-DD)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f, err := attendance.ParseDate(*from)
		if err != nil {
			return err
		}
		t, err := attendance.ParseDate(*to)
		if err != nil {
			return err
		}
		n, err := svc.Export(ctx, f, t)
		if err != nil {
			return err
		}
		a.printf("exported %d rows for %s..%s\n", n, f, t)
		return nil

	case "insert":
		url := fs.String("url", "", "github commit url")
		operator := fs.String("operator", "", "name stamped into the message (default CORE_MANUAL_OPERATOR)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := a.manual.Service().Insert(ctx, manualdom.Request{URL: *url, Operator: *operator})
		if err != nil {
			return err
		}
		if !res.Inserted {
			a.printf("%s already stored for %s\n", res.TS, res.User)
			return nil
		}
		a.printf("inserted %s for %s\n", res.TS, res.User)
		return nil

	case "purge":
		yes := fs.Bool("yes", false, "confirm removal of every stored message")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if !*yes {
			return perr.InvalidArgf("purge: refusing without -yes")
		}
		n, err := a.messages.Service().Purge(ctx)
		if err != nil {
			return err
		}
		a.printf("purged %d messages\n", n)
		return nil
	}

	fmt.Fprint(os.Stderr, usage)
	return perr.InvalidArgf("unknown command %q", cmd)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
