package models

import (
	"errors"
	"testing"
	"time"
)

func TestEventValidate(t *testing.T) {
	base := func() *Event {
		return &Event{
			Name:             "Season 1",
			StartDate:        time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
			NRounds:          2,
			RoundsDuration:   []int{7, 14},
			RoundsTimeFormat: []TimeControl{{Base: 600}, {Base: 300, Increment: 3}},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	e := base()
	e.RoundsDuration = []int{7}
	if err := e.Validate(); !errors.Is(err, ErrEventRoundsMismatch) {
		t.Fatalf("err = %v, want ErrEventRoundsMismatch", err)
	}

	e = base()
	e.RoundsDuration[1] = 0
	if err := e.Validate(); !errors.Is(err, ErrEventInvalidDuration) {
		t.Fatalf("err = %v, want ErrEventInvalidDuration", err)
	}

	e = base()
	e.Name = ""
	if err := e.Validate(); !errors.Is(err, ErrEventNameRequired) {
		t.Fatalf("err = %v, want ErrEventNameRequired", err)
	}
}

func TestRoundDeadline(t *testing.T) {
	e := &Event{
		StartDate:      time.Date(2021, 2, 1, 15, 30, 0, 0, time.UTC),
		NRounds:        2,
		RoundsDuration: []int{7, 14},
	}
	if got, want := e.RoundDeadline(1), time.Date(2021, 2, 8, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("round 1 deadline = %s, want %s", got, want)
	}
	if got, want := e.RoundDeadline(2), time.Date(2021, 2, 15, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("round 2 deadline = %s, want %s", got, want)
	}
}

func TestValidationReportFailed(t *testing.T) {
	r := NewValidationReport(true, false, true, false, true)
	if r.Accepted {
		t.Fatal("report with failures must not be accepted")
	}
	failed := r.Failed()
	if len(failed) != 2 || failed[0] != CriterionValidMembers || failed[1] != CriterionWithinDeadline {
		t.Fatalf("failed = %v", failed)
	}
	if ok := NewValidationReport(true, true, true, true, true); !ok.Accepted || len(ok.Failed()) != 0 {
		t.Fatalf("all-pass report = %+v", ok)
	}
}
