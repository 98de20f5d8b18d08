package domain

import (
	"strconv"
	"strings"
	"time"
)

// Severity is the urgency colour attached to an open/closed label.
type Severity string

const (
	SeverityGreen Severity = "green"
	SeverityAmber Severity = "amber"
	SeverityRed   Severity = "red"
)

// closingSoon is how close to closing time a clinic turns amber.
const closingSoon = 60

// OpenStatus is the evaluated open/closed state of a clinic at one instant.
type OpenStatus struct {
	Open     bool     `json:"isOpen"`
	Label    string   `json:"label"`
	Severity Severity `json:"color"`
}

// Evaluate computes the open/closed status of a schedule at now. It never
// fails: a missing or unparseable range for today is reported as closed.
// Callers showing live status must re-evaluate periodically.
func Evaluate(s Schedule, now time.Time) OpenStatus {
	r := s.Range(now.Weekday())
	if r == "" {
		return OpenStatus{Label: "Closed today", Severity: SeverityRed}
	}

	opens, closes, openMin, closeMin, ok := parseTimeRange(r)
	if !ok {
		return OpenStatus{Label: "Closed", Severity: SeverityRed}
	}

	nowMin := now.Hour()*60 + now.Minute()
	switch {
	case nowMin < openMin:
		return OpenStatus{Label: "Opens at " + opens, Severity: SeverityRed}
	case nowMin >= closeMin:
		return OpenStatus{Label: "Closed", Severity: SeverityRed}
	case closeMin-nowMin <= closingSoon:
		return OpenStatus{Open: true, Label: "Closes at " + closes, Severity: SeverityAmber}
	default:
		return OpenStatus{Open: true, Label: "Open · Closes " + closes, Severity: SeverityGreen}
	}
}

// IsOpenAt reports whether the clinic is open at now.
func IsOpenAt(s Schedule, now time.Time) bool {
	return Evaluate(s, now).Open
}

// CurrentStatus evaluates the schedule against the package clock.
func CurrentStatus(s Schedule) OpenStatus {
	return Evaluate(s, Now())
}

// parseTimeRange splits "H:MM-H:MM" into its two clock times and their
// minutes since midnight.
func parseTimeRange(r string) (opens, closes string, openMin, closeMin int, ok bool) {
	parts := strings.Split(r, "-")
	if len(parts) != 2 {
		return "", "", 0, 0, false
	}
	opens, closes = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

	openMin, ok = clockMinutes(opens)
	if !ok {
		return "", "", 0, 0, false
	}
	closeMin, ok = clockMinutes(closes)
	if !ok {
		return "", "", 0, 0, false
	}
	return opens, closes, openMin, closeMin, true
}

// clockMinutes converts "H:MM" to minutes since midnight. A missing or
// non-numeric minute part counts as zero.
func clockMinutes(t string) (int, bool) {
	hh, mm, _ := strings.Cut(t, ":")
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil {
		m = 0
	}
	return h*60 + m, true
}
