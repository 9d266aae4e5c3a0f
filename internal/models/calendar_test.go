package models

import (
	"errors"
	"reflect"
	"testing"
)

func samplePlan(n int) GeneratedPlan {
	p := GeneratedPlan{BlogTitle: "t", SuggestedFormats: []string{"Blog Post"}, PostFrequency: "3 posts/week"}
	for d := 1; d <= n; d++ {
		p.Calendar = append(p.Calendar, CalendarItem{
			Day:       d,
			Title:     "item",
			Format:    "Blog Post",
			Platform:  "Blog",
			PostTime:  "9 AM",
			Status:    StatusToDo,
			Rationale: "because",
		})
	}
	return p
}

func TestMoveItem_OverwritesTarget(t *testing.T) {
	p := samplePlan(10)
	p.Calendar[2].Title = "A" // day 3
	p.Calendar[6].Title = "B" // day 7
	before := len(p.Calendar)
	moved := p.Calendar[2]

	if err := p.MoveItem(3, 7); err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	if len(p.Calendar) != before-1 {
		t.Fatalf("expected %d items, got %d", before-1, len(p.Calendar))
	}
	got, ok := p.Item(7)
	if !ok {
		t.Fatalf("expected item on day 7")
	}
	moved.Day = 7
	if !reflect.DeepEqual(got, moved) {
		t.Fatalf("moved item changed: got %+v want %+v", got, moved)
	}
	if _, ok := p.Item(3); ok {
		t.Fatalf("day 3 should be empty after move")
	}
	for _, it := range p.Calendar {
		if it.Title == "B" {
			t.Fatalf("overwritten item B still present")
		}
	}
}

func TestMoveItem_ToEmptyDayKeepsCount(t *testing.T) {
	p := samplePlan(5)
	if err := p.MoveItem(2, 9); err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	if len(p.Calendar) != 5 {
		t.Fatalf("expected 5 items, got %d", len(p.Calendar))
	}
	if _, ok := p.Item(9); !ok {
		t.Fatalf("expected item on day 9")
	}
}

func TestMoveItem_Errors(t *testing.T) {
	p := samplePlan(3)
	if err := p.MoveItem(1, 0); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
	if err := p.MoveItem(42, 2); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	snapshot := samplePlan(3)
	if err := p.MoveItem(2, 2); err != nil {
		t.Fatalf("same-day move should be a no-op: %v", err)
	}
	if !reflect.DeepEqual(p, snapshot) {
		t.Fatalf("same-day move changed the plan")
	}
}

func TestUpdateItem_StatusOnlyLeavesEverythingElse(t *testing.T) {
	p := samplePlan(4)
	want := samplePlan(4)
	want.Calendar[1].Status = StatusCompleted

	if err := p.UpdateItem(2, CalendarItemPatch{Status: StatusCompleted}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("unexpected plan after status edit:\n got %+v\nwant %+v", p, want)
	}
}

func TestUpdateItem_Errors(t *testing.T) {
	p := samplePlan(2)
	if err := p.UpdateItem(2, CalendarItemPatch{Status: "Done"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if err := p.UpdateItem(5, CalendarItemPatch{Title: "x"}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestValidateDays(t *testing.T) {
	p := samplePlan(30)
	if err := p.ValidateDays(30); err != nil {
		t.Fatalf("expected valid: %v", err)
	}
	if err := p.ValidateDays(31); err == nil {
		t.Fatalf("expected length mismatch")
	}

	dup := samplePlan(3)
	dup.Calendar[2].Day = 2
	if err := dup.ValidateDays(3); err == nil {
		t.Fatalf("expected duplicate day error")
	}

	gap := samplePlan(3)
	gap.Calendar[2].Day = 4
	if err := gap.ValidateDays(3); err == nil {
		t.Fatalf("expected out of range error")
	}

	noWhy := samplePlan(3)
	noWhy.Calendar[0].Rationale = ""
	if err := noWhy.ValidateDays(3); err == nil {
		t.Fatalf("expected missing rationale error")
	}
}

func TestFillDefaultsAndParseSentiment(t *testing.T) {
	p := GeneratedPlan{Calendar: []CalendarItem{{Day: 1}, {Day: 2, Status: StatusInProgress}}}
	p.FillDefaults()
	if p.Calendar[0].Status != StatusToDo || p.Calendar[1].Status != StatusInProgress {
		t.Fatalf("unexpected statuses: %+v", p.Calendar)
	}
	if ParseSentiment("Positive") != SentimentPositive || ParseSentiment("meh") != SentimentNeutral || ParseSentiment("") != SentimentNeutral {
		t.Fatalf("ParseSentiment mismatch")
	}
}
