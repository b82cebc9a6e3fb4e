package worklog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/hourbridge/internal/worklog"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func record(t *testing.T, project, task, description string, billable bool, start, end string) worklog.RawRecord {
	t.Helper()
	r := worklog.RawRecord{
		Client:     worklog.StringPtr("Client"),
		IsBillable: billable,
		Start:      mustTime(t, start),
		End:        mustTime(t, end),
	}
	if project != "" {
		r.Project = worklog.StringPtr(project)
	}
	if task != "" {
		r.Task = worklog.StringPtr(task)
	}
	if description != "" {
		r.Description = worklog.StringPtr(description)
	}
	return r
}

func TestAggregate_EmptyInput(t *testing.T) {
	days := worklog.Aggregate(nil)

	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestAggregate_CollapsesSameKey(t *testing.T) {
	records := []worklog.RawRecord{
		record(t, "Web", "Dev", "TEST-1 build", true, "2019-01-01T13:00:00-07:00", "2019-01-01T14:00:00-07:00"),
		record(t, "Web", "Dev", "TEST-1 build", true, "2019-01-01T09:00:00-07:00", "2019-01-01T10:30:00-07:00"),
		record(t, "Web", "Dev", "TEST-1 build", false, "2019-01-01T11:00:00-07:00", "2019-01-01T11:15:00-07:00"),
		record(t, "Web", "", "standup", true, "2019-01-01T08:00:00-07:00", "2019-01-01T08:15:00-07:00"),
	}

	days := worklog.Aggregate(records)

	require.Len(t, days, 1)
	entries := days["2019-01-01"]
	require.Len(t, entries, 3)

	// Order follows the first time each key was seen after sorting by start.
	assert.Equal(t, "standup", *entries[0].Description)
	assert.Equal(t, "TEST-1 build", *entries[1].Description)
	assert.True(t, entries[1].IsBillable)
	assert.False(t, entries[2].IsBillable)

	require.Len(t, entries[1].TimeEntries, 2)
	assert.True(t, entries[1].TimeEntries[0].Start.Before(entries[1].TimeEntries[1].Start.Time))
	assert.Equal(t, 150*time.Minute, entries[1].Duration())

	assert.Nil(t, entries[0].Tracker.Task)
	assert.Equal(t, "Client", *entries[0].Tracker.Client)
	assert.Nil(t, entries[0].ProjectCode)
	assert.Nil(t, entries[0].Ledger.ProjectID)
}

func TestAggregate_NullFieldsCollapseTogether(t *testing.T) {
	records := []worklog.RawRecord{
		record(t, "Web", "", "", true, "2019-01-01T09:00:00Z", "2019-01-01T09:30:00Z"),
		record(t, "Web", "", "", true, "2019-01-01T10:00:00Z", "2019-01-01T10:30:00Z"),
		{
			Project:     worklog.StringPtr("Web"),
			Description: worklog.StringPtr(""),
			IsBillable:  true,
			Start:       mustTime(t, "2019-01-01T11:00:00Z"),
			End:         mustTime(t, "2019-01-01T11:30:00Z"),
		},
	}

	entries := worklog.Aggregate(records)["2019-01-01"]

	require.Len(t, entries, 2, "an empty description is not the same as a missing one")
	assert.Len(t, entries[0].TimeEntries, 2)
	assert.Nil(t, entries[0].Description)
}

func TestAggregate_PartitionsByLocalDate(t *testing.T) {
	records := []worklog.RawRecord{
		// 23:30 local on the 1st is already the 2nd in UTC.
		record(t, "Web", "Dev", "late", true, "2019-01-01T23:30:00-07:00", "2019-01-02T00:30:00-07:00"),
		record(t, "Web", "Dev", "late", true, "2019-01-02T08:00:00-07:00", "2019-01-02T09:00:00-07:00"),
	}

	days := worklog.Aggregate(records)

	assert.Equal(t, []string{"2019-01-01", "2019-01-02"}, worklog.SortedDays(days))
	assert.Len(t, days["2019-01-01"], 1)
	assert.Len(t, days["2019-01-02"], 1)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	base := []worklog.RawRecord{
		record(t, "A", "Dev", "one", true, "2019-01-01T09:00:00Z", "2019-01-01T09:10:00Z"),
		record(t, "B", "Dev", "two", true, "2019-01-01T09:20:00Z", "2019-01-01T09:40:00Z"),
		record(t, "A", "Dev", "one", true, "2019-01-01T10:00:00Z", "2019-01-01T10:05:00Z"),
		record(t, "C", "", "three", false, "2019-01-01T11:00:00Z", "2019-01-01T11:00:00Z"),
		record(t, "B", "Dev", "two", true, "2019-01-01T12:00:00Z", "2019-01-01T13:00:00Z"),
	}
	reversed := make([]worklog.RawRecord, len(base))
	for i, r := range base {
		reversed[len(base)-1-i] = r
	}
	shuffled := []worklog.RawRecord{base[3], base[0], base[4], base[2], base[1]}

	expected := worklog.Aggregate(base)
	for name, input := range map[string][]worklog.RawRecord{"reversed": reversed, "shuffled": shuffled} {
		t.Run(name, func(t *testing.T) {
			got := worklog.Aggregate(input)
			assert.Equal(t, expected, got)
			require.Len(t, got["2019-01-01"], 3)
		})
	}

	var total time.Duration
	for _, e := range expected["2019-01-01"] {
		total += e.Duration()
	}
	assert.Equal(t, 95*time.Minute, total)
}

func TestAggregate_DoesNotDeduplicateOverlaps(t *testing.T) {
	records := []worklog.RawRecord{
		record(t, "A", "Dev", "same", true, "2019-01-01T00:00:00Z", "2019-01-01T00:00:01Z"),
		record(t, "A", "Dev", "same", true, "2019-01-01T00:00:00Z", "2019-01-01T00:00:01Z"),
	}

	entries := worklog.Aggregate(records)["2019-01-01"]

	require.Len(t, entries, 1)
	assert.Equal(t, 2*time.Second, entries[0].Duration())
}

func TestSameKey(t *testing.T) {
	days := worklog.Aggregate([]worklog.RawRecord{
		record(t, "A", "Dev", "one", true, "2019-01-01T09:00:00Z", "2019-01-01T09:10:00Z"),
		record(t, "A", "Dev", "two", true, "2019-01-01T09:20:00Z", "2019-01-01T09:40:00Z"),
	})
	entries := days["2019-01-01"]
	require.Len(t, entries, 2)

	assert.True(t, worklog.SameKey(&entries[0], &entries[0]))
	assert.False(t, worklog.SameKey(&entries[0], &entries[1]))
}
