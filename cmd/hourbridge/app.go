package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/christopherklint97/hourbridge/internal/calendar"
	"github.com/christopherklint97/hourbridge/internal/catalog"
	"github.com/christopherklint97/hourbridge/internal/config"
	"github.com/christopherklint97/hourbridge/internal/daydoc"
	"github.com/christopherklint97/hourbridge/internal/harvest"
	"github.com/christopherklint97/hourbridge/internal/mapping"
	"github.com/christopherklint97/hourbridge/internal/notify"
	"github.com/christopherklint97/hourbridge/internal/reconcile"
	"github.com/christopherklint97/hourbridge/internal/store"
	"github.com/christopherklint97/hourbridge/internal/toggl"
	"github.com/christopherklint97/hourbridge/internal/tui"
	"github.com/christopherklint97/hourbridge/internal/worklog"
)

const catalogMaxAge = 7 * 24 * time.Hour

// app holds what every command needs once the config directory is known.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      io.Writer
	db       *store.DB
	notifier *notify.Notifier
}

func newApp(configDir string, verbose bool) (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dir, err := config.Dir(configDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Debug("loaded config", "dir", dir)

	return &app{
		cfg:      cfg,
		logger:   logger,
		out:      os.Stdout,
		notifier: notify.New(cfg.Notifications.Enabled, logger),
	}, nil
}

func (a *app) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *app) openDB() (*store.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := store.Open(a.cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	return db, nil
}

func (a *app) days() *daydoc.Store {
	return daydoc.NewStore(a.cfg.DataDir(), a.logger)
}

func (a *app) interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// resolver loads the project mapping and the cached catalog and warns when
// the cache has not been refreshed for a while.
func (a *app) resolver() (*reconcile.Resolver, error) {
	m, err := mapping.Load(a.cfg.MappingPath())
	if err != nil {
		return nil, err
	}
	projects, err := catalog.LoadFile(a.cfg.CachePath())
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded resolution data", "codes", m.Len(), "projects", len(projects))

	if db, err := a.openDB(); err == nil {
		refreshed, ok, err := db.CatalogRefreshed()
		switch {
		case err != nil:
			a.logger.Warn("checking catalog age", "error", err)
		case !ok || time.Since(refreshed) > catalogMaxAge:
			fmt.Fprintln(a.out, tui.Warning("Ledger cache is more than a week old, run 'hourbridge ledger-cache' to refresh it."))
		}
	}

	return reconcile.NewResolver(m, catalog.New(projects)), nil
}

func (a *app) harvestClient() (*harvest.Client, error) {
	if err := a.cfg.CheckHarvest(); err != nil {
		return nil, err
	}
	h := a.cfg.Harvest
	return harvest.NewClient(harvest.Credentials{AccountID: h.AccountID, Token: h.Token, UserAgent: h.UserAgent}, h.BaseURL, a.logger), nil
}

func (a *app) refreshCatalog(ctx context.Context) (int, error) {
	client, err := a.harvestClient()
	if err != nil {
		return 0, err
	}
	projects, err := client.FetchCatalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching ledger projects: %w", err)
	}
	if err := catalog.SaveFile(a.cfg.CachePath(), projects); err != nil {
		return 0, err
	}

	db, err := a.openDB()
	if err != nil {
		return 0, err
	}
	if err := db.SetCatalogRefreshed(time.Now()); err != nil {
		return 0, err
	}
	return len(projects), nil
}

// fetchRecords reads raw records from the configured tracker.
func (a *app) fetchRecords(ctx context.Context, start, end time.Time) ([]worklog.RawRecord, error) {
	if a.cfg.Calendar.Enabled {
		if a.cfg.Calendar.Source == "" {
			return nil, fmt.Errorf("calendar.source is empty in %s", a.cfg.Path())
		}
		return calendar.Records(ctx, a.cfg.Calendar.Source, start, end, a.cfg.Calendar.Billable)
	}

	if err := a.cfg.CheckToggl(); err != nil {
		return nil, err
	}
	t := a.cfg.Toggl
	client := toggl.NewClient(toggl.Credentials{APIToken: t.APIToken, WorkspaceID: t.WorkspaceID, UserAgent: t.UserAgent}, t.BaseURL, a.logger)
	records, err := client.FetchDetails(ctx, start, end, t.DownloadParams)
	if errors.Is(err, toggl.ErrInvalidCredentials) {
		return nil, fmt.Errorf("toggl rejected the API token, check toggl.api_token in %s: %w", a.cfg.Path(), err)
	}
	return records, err
}

func (a *app) download(ctx context.Context, start, end time.Time) error {
	records, err := a.fetchRecords(ctx, start, end)
	if err != nil {
		return fmt.Errorf("downloading time entries: %w", err)
	}

	result, err := a.days().WriteDays(worklog.Aggregate(records))
	if err != nil {
		return err
	}

	for _, day := range result.Skipped {
		fmt.Fprintf(a.out, "%s exists, skipping\n", day)
	}
	fmt.Fprintln(a.out, tui.Success(fmt.Sprintf("Wrote %d day files from %d records", len(result.Written), len(records))))
	return nil
}

// validate checks every day and returns the number of entries that are
// still not valid. With edit set, a day with errors is offered for editing
// and checked again until it is clean or the user moves on.
func (a *app) validate(ctx context.Context, days []string, edit bool) (int, error) {
	resolver, err := a.resolver()
	if err != nil {
		return 0, err
	}
	engine := reconcile.NewEngine(resolver, a.days(), a.logger)

	total := 0
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		for {
			report, err := engine.ValidateFile(day)
			if err != nil {
				return total, err
			}
			if report.Found {
				fmt.Fprint(a.out, tui.RenderValidation(report))
			}

			if report.Errors() == 0 || !edit {
				total += report.Errors()
				break
			}

			path := a.days().Path(day)
			again, err := tui.Confirm(fmt.Sprintf("Edit %s?", path), true, os.Stdin, a.out)
			if err != nil {
				return total, err
			}
			if !again {
				total += report.Errors()
				break
			}
			if err := openEditor(path); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func (a *app) upload(ctx context.Context, days []string) error {
	resolver, err := a.resolver()
	if err != nil {
		return err
	}
	client, err := a.harvestClient()
	if err != nil {
		return err
	}
	db, err := a.openDB()
	if err != nil {
		return err
	}

	submit := reconcile.SubmitFunc(func(ctx context.Context, s reconcile.Submission) error {
		_, err := client.CreateTimeEntry(ctx, harvest.TimeEntryRequest{
			ProjectID: s.ProjectID,
			TaskID:    s.TaskID,
			SpentDate: s.SpentDate,
			Hours:     s.Hours,
			Notes:     s.Notes,
		})
		return err
	})
	gate := reconcile.NewGate(resolver, a.days(), submit, db, a.logger)

	uploaded, failed, broken := 0, 0, 0
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return err
		}

		report, err := gate.UploadDay(ctx, day)
		var parseErr *daydoc.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintf(a.out, "%s  %s\n", tui.Title(day), tui.Failure(parseErr.Error()))
			broken++
			continue
		}
		if err != nil {
			return err
		}
		if !report.Found {
			continue
		}

		fmt.Fprint(a.out, tui.RenderUpload(report))
		uploaded += report.Count(reconcile.UploadDone)
		failed += report.Count(reconcile.UploadFailed)
	}

	summary := fmt.Sprintf("%d entries uploaded", uploaded)
	if failed > 0 || broken > 0 {
		summary += fmt.Sprintf(", %d failed, %d unreadable days", failed, broken)
	}
	a.notifier.Send("hourbridge", summary)
	fmt.Fprintln(a.out, summary)
	return nil
}

func (a *app) status(days []string) error {
	db, err := a.openDB()
	if err != nil {
		return err
	}

	var statuses []tui.DayStatus
	for _, day := range days {
		entries, err := a.days().Read(day)
		var parseErr *daydoc.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintf(a.out, "%s  %s\n", tui.Title(day), tui.Failure(parseErr.Error()))
			continue
		}
		if err != nil {
			return err
		}

		uploads, err := db.UploadsForDay(day)
		if err != nil {
			return err
		}
		statuses = append(statuses, tui.DayStatus{Day: day, Entries: entries, Uploads: uploads})
	}
	fmt.Fprint(a.out, tui.RenderStatus(statuses))

	failed, err := db.FailedUploads()
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		fmt.Fprintln(a.out, tui.Warning(fmt.Sprintf("%d entries failed to upload on their last attempt:", len(failed))))
		for _, u := range failed {
			fmt.Fprintf(a.out, "  %s #%d  %s  %s\n", u.Day, u.Index, u.Notes, u.Error)
		}
	}
	return nil
}

func openEditor(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	args := strings.Fields(editor)

	cmd := exec.Command(args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor %s: %w", editor, err)
	}
	return nil
}
