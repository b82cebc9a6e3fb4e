package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/christopherklint97/hourbridge/internal/reconcile"
	"github.com/christopherklint97/hourbridge/internal/store"
	"github.com/christopherklint97/hourbridge/internal/worklog"
)

const notesWidth = 48

func Title(s string) string {
	return titleStyle.Render(s)
}

func Warning(s string) string {
	return warningStyle.Render(s)
}

func Success(s string) string {
	return successStyle.Render(s)
}

func Failure(s string) string {
	return errorStyle.Render(s)
}

func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func pad(s string, n int) string {
	if l := len([]rune(s)); l < n {
		return s + strings.Repeat(" ", n-l)
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// RenderValidation lists every entry of a validated day with its status.
func RenderValidation(r *reconcile.FileReport) string {
	var b strings.Builder

	header := titleStyle.Render(r.Day)
	switch {
	case !r.Found:
		b.WriteString(header + "  " + dimStyle.Render("no file") + "\n")
		return b.String()
	case r.ParseErr != nil:
		b.WriteString(header + "  " + errorStyle.Render("unreadable") + "\n")
		b.WriteString("  " + errorStyle.Render("✗") + " " + r.ParseErr.Error() + "\n")
		return b.String()
	}

	summary := subtitleStyle.Render(plural(len(r.Entries), "entry"))
	if n := r.Errors(); n > 0 {
		summary += "  " + errorStyle.Render(plural(n, "error"))
	}
	b.WriteString(header + "  " + summary + "\n")

	for _, e := range r.Entries {
		mark := successStyle.Render("✓")
		detail := dimStyle.Render(fmt.Sprintf("project %d task %d", e.ProjectID, e.TaskID))
		if !e.Valid() {
			mark = errorStyle.Render("✗")
			detail = warningStyle.Render(e.Status.String())
		}
		fmt.Fprintf(&b, "  %s %6s  %s  %s\n",
			mark, worklog.FormatDuration(e.Duration), pad(clip(e.Description, notesWidth), notesWidth), detail)
	}

	return b.String()
}

// RenderUpload lists what happened to every entry of an uploaded day.
func RenderUpload(r *reconcile.UploadReport) string {
	var b strings.Builder

	header := titleStyle.Render(r.Day)
	if !r.Found {
		b.WriteString(header + "  " + dimStyle.Render("no file") + "\n")
		return b.String()
	}

	uploaded := r.Count(reconcile.UploadDone)
	failed := r.Count(reconcile.UploadFailed)
	summary := successStyle.Render(fmt.Sprintf("%d uploaded", uploaded))
	if failed > 0 {
		summary += "  " + errorStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	b.WriteString(header + "  " + summary + "\n")

	for _, o := range r.Outcomes {
		var status string
		switch o.Status {
		case reconcile.UploadDone:
			status = successStyle.Render(o.Status.String())
		case reconcile.UploadFailed:
			status = errorStyle.Render(o.Status.String())
		case reconcile.UploadSkippedInvalid:
			status = warningStyle.Render(o.Status.String())
		default:
			status = dimStyle.Render(o.Status.String())
		}
		fmt.Fprintf(&b, "  %5.2fh  %s  %s\n", o.Hours, pad(clip(o.Notes, notesWidth), notesWidth), status)
		if o.Status == reconcile.UploadFailed && o.Err != nil {
			b.WriteString("          " + dimStyle.Render(clip(o.Err.Error(), 100)) + "\n")
		}
	}

	return b.String()
}

// DayStatus is what the status command knows about one day.
type DayStatus struct {
	Day     string
	Entries []worklog.Entry
	Uploads []store.Upload
}

// Unmarked returns the entries the journal shows as uploaded while the day
// file has no upload mark for them. Uploading the day again would submit
// them a second time.
func (d DayStatus) Unmarked() []int {
	seen := make(map[int]bool)
	var idx []int
	for _, u := range d.Uploads {
		if u.Status != reconcile.UploadDone.String() || seen[u.Index] {
			continue
		}
		seen[u.Index] = true
		if u.Index < len(d.Entries) && !d.Entries[u.Index].Uploaded() {
			idx = append(idx, u.Index)
		}
	}
	return idx
}

func RenderStatus(days []DayStatus) string {
	var b strings.Builder
	var total time.Duration

	for _, d := range days {
		var dayTotal, billable time.Duration
		uploaded := 0
		for i := range d.Entries {
			e := &d.Entries[i]
			dayTotal += e.Duration()
			if e.IsBillable {
				billable += e.Duration()
			}
			if e.Uploaded() {
				uploaded++
			}
		}
		total += dayTotal

		if len(d.Entries) == 0 {
			fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(d.Day), dimStyle.Render("no entries"))
			continue
		}

		fmt.Fprintf(&b, "%s  %6s total  %6s billable  %s\n",
			titleStyle.Render(d.Day),
			worklog.FormatDuration(dayTotal),
			worklog.FormatDuration(billable),
			subtitleStyle.Render(fmt.Sprintf("%d/%d uploaded", uploaded, len(d.Entries))))

		if n := len(d.Uploads); n > 0 {
			last := d.Uploads[n-1]
			line := fmt.Sprintf("last run %s: entry %d %s", last.CreatedAt.Local().Format("2006-01-02 15:04"), last.Index, last.Status)
			b.WriteString("  " + dimStyle.Render(line) + "\n")
		}
		for _, i := range d.Unmarked() {
			line := fmt.Sprintf("entry %d was submitted but is not marked uploaded, check Harvest before uploading again", i)
			b.WriteString("  " + warningStyle.Render(line) + "\n")
		}
	}

	b.WriteString(boxStyle.Render("Total " + worklog.FormatDuration(total)))
	b.WriteString("\n")
	return b.String()
}
