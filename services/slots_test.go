package services

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultSlotSet(t *testing.T) {
	s := DefaultSlotSet()
	labels := s.Labels()
	if len(labels) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(labels))
	}
	if labels[0] != "9:00 AM" || labels[6] != "12:00 PM" || labels[17] != "5:30 PM" {
		t.Fatalf("unexpected labels: %v", labels)
	}
	if s.Index("11:00 AM") <= s.Index("9:30 AM") {
		t.Fatal("expected 11:00 AM to come after 9:30 AM")
	}
	if s.Index("6:00 PM") != -1 {
		t.Fatal("expected closing time not to be a slot")
	}
}

func TestSlotSet_Normalize(t *testing.T) {
	s := DefaultSlotSet()
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"10:00 AM", "10:00 AM", true},
		{" 10:00 am ", "10:00 AM", true},
		{"10:00AM", "10:00 AM", true},
		{"14:30", "2:30 PM", true},
		{"09:00", "9:00 AM", true},
		{"9:15 AM", "", false},
		{"18:00", "", false},
		{"noon", "", false},
	}
	for _, tc := range cases {
		got, ok := s.Normalize(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Normalize(%q) = %q, %v; expected %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNewSlotSet_Invalid(t *testing.T) {
	if _, err := NewSlotSet("18:00", "09:00", 30*time.Minute); err == nil {
		t.Fatal("expected error when closing before opening")
	}
	if _, err := NewSlotSet("09:00", "18:00", 0); err == nil {
		t.Fatal("expected error for zero step")
	}
	if _, err := NewSlotSet("9am", "18:00", time.Hour); err == nil {
		t.Fatal("expected error for malformed bound")
	}
	s, err := NewSlotSet("10:00", "12:00", 45*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Labels(); len(got) != 3 || got[2] != "11:30 AM" {
		t.Fatalf("unexpected labels %v", got)
	}
}

func TestCalendar_CheckBookable(t *testing.T) {
	cal := testCalendar()

	label, err := cal.CheckBookable(tomorrow, "14:00")
	if err != nil || label != "2:00 PM" {
		t.Fatalf("expected 2:00 PM, got %q, %v", label, err)
	}
	if _, err := cal.CheckBookable(today, "10:30 AM"); err != nil {
		t.Fatalf("upcoming slot today should be bookable: %v", err)
	}
	for _, slot := range []string{"9:00 AM", "10:00 AM"} {
		if _, err := cal.CheckBookable(today, slot); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s today should be rejected, got %v", slot, err)
		}
	}
	if _, err := cal.CheckBookable(sunday, "10:00 AM"); !errors.Is(err, ErrValidation) {
		t.Fatalf("sunday should be rejected, got %v", err)
	}
	if cal.Open(sunday) || cal.Open(today.AddDays(-1)) || !cal.Open(today) {
		t.Fatal("unexpected Open results")
	}
}

func TestCalendar_TodayUsesLocation(t *testing.T) {
	tz := time.FixedZone("UTC+3", 3*60*60)
	cal := Calendar{
		Slots:     DefaultSlotSet(),
		ClosedDay: time.Sunday,
		Location:  tz,
		Now:       func() time.Time { return time.Date(2026, 3, 4, 22, 30, 0, 0, time.UTC) },
	}
	if got := cal.Today().String(); got != "2026-03-05" {
		t.Fatalf("expected 2026-03-05 in UTC+3, got %s", got)
	}
}
