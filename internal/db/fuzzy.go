package db

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Title resolution runs in two phases over candidates already in id order:
// a case-insensitive exact title, then case-insensitive containment. Tasks
// break containment ties by the shortest title, events by the latest start.

func matchTask(tasks []Task, query string) *Task {
	q := normalize(query)
	if q == "" {
		return nil
	}
	for i := range tasks {
		if normalize(tasks[i].Title) == q {
			return &tasks[i]
		}
	}
	var hits []Task
	for _, t := range tasks {
		if strings.Contains(normalize(t.Title), q) {
			hits = append(hits, t)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		ei, ej := normalize(hits[i].Title) == q, normalize(hits[j].Title) == q
		if ei != ej {
			return ei
		}
		return utf8.RuneCountInString(hits[i].Title) < utf8.RuneCountInString(hits[j].Title)
	})
	return &hits[0]
}

func matchEvent(events []Event, query string) *Event {
	q := normalize(query)
	if q == "" {
		return nil
	}
	for i := range events {
		if normalize(events[i].Title) == q {
			return &events[i]
		}
	}
	var hits []Event
	for _, e := range events {
		if strings.Contains(normalize(e.Title), q) {
			hits = append(hits, e)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		ei, ej := normalize(hits[i].Title) == q, normalize(hits[j].Title) == q
		if ei != ej {
			return ei
		}
		return hits[i].StartTime.After(hits[j].StartTime)
	})
	return &hits[0]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
