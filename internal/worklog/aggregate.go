package worklog

import (
	"sort"
)

type optString struct {
	value string
	set   bool
}

func optionalOf(s *string) optString {
	if s == nil {
		return optString{}
	}
	return optString{value: *s, set: true}
}

// collapseKey identifies records that merge into one entry. Absent fields
// compare equal to each other and differ from an empty string.
type collapseKey struct {
	project     optString
	task        optString
	description optString
	billable    bool
}

func keyOf(r RawRecord) collapseKey {
	return collapseKey{
		project:     optionalOf(r.Project),
		task:        optionalOf(r.Task),
		description: optionalOf(r.Description),
		billable:    r.IsBillable,
	}
}

// key returns the collapsing key of an existing entry.
func (e *Entry) key() collapseKey {
	return collapseKey{
		project:     optionalOf(e.Tracker.Project),
		task:        optionalOf(e.Tracker.Task),
		description: optionalOf(e.Description),
		billable:    e.IsBillable,
	}
}

func newEntry(r RawRecord) Entry {
	billable := r.IsBillable
	return Entry{
		Description: copyString(r.Description),
		IsBillable:  r.IsBillable,
		TimeEntries: []Interval{NewInterval(r.Start, r.End)},
		Tracker: TrackerData{
			Client:   copyString(r.Client),
			Project:  copyString(r.Project),
			Task:     copyString(r.Task),
			Billable: &billable,
		},
	}
}

// Aggregate groups raw tracker records into entries per calendar day. The day
// is the date of each record's start in its own offset. Within a day, records
// sharing a collapsing key are appended to the entry created by the first of
// them, in start order. Entries keep the order their key was first seen.
func Aggregate(records []RawRecord) map[string][]Entry {
	sorted := make([]RawRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	days := make(map[string][]Entry)
	index := make(map[string]map[collapseKey]int)

	for _, r := range sorted {
		day := r.Start.Format(DayLayout)
		seen, ok := index[day]
		if !ok {
			seen = make(map[collapseKey]int)
			index[day] = seen
		}

		k := keyOf(r)
		if i, ok := seen[k]; ok {
			days[day][i].TimeEntries = append(days[day][i].TimeEntries, NewInterval(r.Start, r.End))
			continue
		}

		seen[k] = len(days[day])
		days[day] = append(days[day], newEntry(r))
	}

	return days
}

// SortedDays returns the day keys of an aggregation in ascending order.
func SortedDays(days map[string][]Entry) []string {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SameKey reports whether two entries would collapse together.
func SameKey(a, b *Entry) bool {
	return a.key() == b.key()
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
