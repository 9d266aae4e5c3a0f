package models

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound  = errors.New("calendar item not found")
	ErrInvalidDay    = errors.New("calendar day must be >= 1")
	ErrInvalidStatus = errors.New("invalid calendar item status")
)

// CalendarItemPatch holds the editable fields of a calendar item. Empty values are left untouched.
type CalendarItemPatch struct {
	Title     string     `json:"title,omitempty"`
	Format    string     `json:"format,omitempty"`
	Platform  string     `json:"platform,omitempty"`
	PostTime  string     `json:"postTime,omitempty"`
	Status    ItemStatus `json:"status,omitempty"`
	Rationale string     `json:"rationale,omitempty"`
}

func (p *GeneratedPlan) indexOf(day int) int {
	for i := range p.Calendar {
		if p.Calendar[i].Day == day {
			return i
		}
	}
	return -1
}

// Item returns a copy of the item scheduled on day.
func (p *GeneratedPlan) Item(day int) (CalendarItem, bool) {
	i := p.indexOf(day)
	if i < 0 {
		return CalendarItem{}, false
	}
	return p.Calendar[i], true
}

// UpdateItem edits the item on day in place.
func (p *GeneratedPlan) UpdateItem(day int, patch CalendarItemPatch) error {
	if patch.Status != "" && !patch.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, patch.Status)
	}
	i := p.indexOf(day)
	if i < 0 {
		return ErrItemNotFound
	}
	it := &p.Calendar[i]
	if patch.Title != "" {
		it.Title = patch.Title
	}
	if patch.Format != "" {
		it.Format = patch.Format
	}
	if patch.Platform != "" {
		it.Platform = patch.Platform
	}
	if patch.PostTime != "" {
		it.PostTime = patch.PostTime
	}
	if patch.Status != "" {
		it.Status = patch.Status
	}
	if patch.Rationale != "" {
		it.Rationale = patch.Rationale
	}
	return nil
}

// MoveItem re-keys the item on from to day to. Whatever occupied to is dropped:
// this is move-and-overwrite, not a swap.
func (p *GeneratedPlan) MoveItem(from, to int) error {
	if to < 1 {
		return ErrInvalidDay
	}
	if p.indexOf(from) < 0 {
		return ErrItemNotFound
	}
	if from == to {
		return nil
	}
	out := make([]CalendarItem, 0, len(p.Calendar))
	for _, it := range p.Calendar {
		switch it.Day {
		case to:
			continue
		case from:
			it.Day = to
		}
		out = append(out, it)
	}
	p.Calendar = out
	return nil
}

// FillDefaults sets the initial status on freshly generated items.
func (p *GeneratedPlan) FillDefaults() {
	for i := range p.Calendar {
		if !p.Calendar[i].Status.Valid() {
			p.Calendar[i].Status = StatusToDo
		}
	}
}

// ValidateDays checks that the calendar covers exactly days 1..n, once each,
// and that every item carries a rationale.
func (p *GeneratedPlan) ValidateDays(n int) error {
	if len(p.Calendar) != n {
		return fmt.Errorf("calendar has %d items, want %d", len(p.Calendar), n)
	}
	seen := make(map[int]bool, n)
	for _, it := range p.Calendar {
		if it.Day < 1 || it.Day > n {
			return fmt.Errorf("calendar day %d out of range 1..%d", it.Day, n)
		}
		if seen[it.Day] {
			return fmt.Errorf("calendar day %d appears twice", it.Day)
		}
		seen[it.Day] = true
		if it.Rationale == "" {
			return fmt.Errorf("calendar day %d has no rationale", it.Day)
		}
	}
	return nil
}
