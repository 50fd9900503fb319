package services

import (
	"fmt"
	"strings"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/utils"
)

const slotLabelLayout = "3:04 PM"

// SlotSet is the ordered list of bookable start times in a day.
type SlotSet struct {
	labels []string
	starts []time.Duration
	index  map[string]int
}

// NewSlotSet builds slots every step from open up to, but not including,
// close. Bounds are "HH:MM" in 24h form.
func NewSlotSet(open, close string, step time.Duration) (*SlotSet, error) {
	from, err := utils.ParseClock(open)
	if err != nil {
		return nil, err
	}
	to, err := utils.ParseClock(close)
	if err != nil {
		return nil, err
	}
	if step <= 0 {
		return nil, fmt.Errorf("slot step must be positive, got %s", step)
	}
	if to <= from {
		return nil, fmt.Errorf("closing time %s must be after opening time %s", close, open)
	}
	s := &SlotSet{index: make(map[string]int)}
	for at := from; at < to; at += step {
		label := slotLabel(at)
		s.index[label] = len(s.labels)
		s.labels = append(s.labels, label)
		s.starts = append(s.starts, at)
	}
	return s, nil
}

// DefaultSlotSet is 9:00 AM to 5:30 PM in half hours.
func DefaultSlotSet() *SlotSet {
	s, err := NewSlotSet("09:00", "18:00", 30*time.Minute)
	if err != nil {
		panic(err)
	}
	return s
}

func slotLabel(d time.Duration) string {
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format(slotLabelLayout)
}

func (s *SlotSet) Labels() []string {
	return append([]string(nil), s.labels...)
}

func (s *SlotSet) Len() int { return len(s.labels) }

// Normalize maps user input such as "10:00 am", "10:00AM" or "10:00" onto
// the canonical label. ok is false when the time is not a slot.
func (s *SlotSet) Normalize(input string) (string, bool) {
	raw := strings.ToUpper(strings.TrimSpace(input))
	if i, ok := s.index[raw]; ok {
		return s.labels[i], true
	}
	for _, layout := range []string{slotLabelLayout, "3:04PM", "15:04"} {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if i, ok := s.index[slotLabel(utils.SinceMidnight(t))]; ok {
			return s.labels[i], true
		}
	}
	return "", false
}

// Index returns the chronological position of a canonical label, or -1.
func (s *SlotSet) Index(label string) int {
	if i, ok := s.index[label]; ok {
		return i
	}
	return -1
}

func (s *SlotSet) Start(label string) (time.Duration, bool) {
	i, ok := s.index[label]
	if !ok {
		return 0, false
	}
	return s.starts[i], true
}

// Calendar answers which dates and slots can still be booked.
type Calendar struct {
	Slots     *SlotSet
	ClosedDay time.Weekday
	Location  *time.Location
	Now       func() time.Time
}

func (c Calendar) now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	if c.Now == nil {
		return time.Now().In(loc)
	}
	return c.Now().In(loc)
}

// Today is the current date in the salon's time zone.
func (c Calendar) Today() models.Date {
	return models.DateOf(c.now())
}

// CheckBookable validates a date and slot for a new appointment and returns
// the canonical slot label.
func (c Calendar) CheckBookable(date models.Date, slot string) (string, error) {
	if date.IsZero() {
		return "", invalid("date", "is required")
	}
	label, ok := c.Slots.Normalize(slot)
	if !ok {
		return "", invalid("timeSlot", "%q is not a bookable time slot", slot)
	}
	now := c.now()
	today := models.DateOf(now)
	if date.Before(today) {
		return "", invalid("date", "%s is in the past", date)
	}
	if date.Weekday() == c.ClosedDay {
		return "", invalid("date", "the salon is closed on %s", c.ClosedDay)
	}
	if date.Equal(today) {
		start, _ := c.Slots.Start(label)
		if start <= utils.SinceMidnight(now) {
			return "", invalid("timeSlot", "%s today has already passed", label)
		}
	}
	return label, nil
}

// Open reports whether any slot on date could still be booked.
func (c Calendar) Open(date models.Date) bool {
	today := c.Today()
	return !date.IsZero() && !date.Before(today) && date.Weekday() != c.ClosedDay
}

// futureSlots lists the labels of date that have not started yet.
func (c Calendar) futureSlots(date models.Date) []string {
	if !c.Open(date) {
		return []string{}
	}
	now := c.now()
	today := models.DateOf(now)
	out := make([]string, 0, c.Slots.Len())
	for i, label := range c.Slots.labels {
		if date.Equal(today) && c.Slots.starts[i] <= utils.SinceMidnight(now) {
			continue
		}
		out = append(out, label)
	}
	return out
}
