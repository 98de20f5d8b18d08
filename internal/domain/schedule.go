package domain

import "time"

// dayKeys maps time.Weekday (Sunday = 0) to the schedule key for that day.
var dayKeys = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayKey returns the schedule key for a weekday.
func DayKey(d time.Weekday) string {
	return dayKeys[d%7]
}

// Schedule maps a lower-case day name to an "H:MM-H:MM" range. A nil or
// missing entry means the clinic is closed that day.
type Schedule map[string]*string

// Range returns the opening range for a weekday, or "" when closed.
func (s Schedule) Range(d time.Weekday) string {
	if r := s[DayKey(d)]; r != nil {
		return *r
	}
	return ""
}

const (
	emergencyWeekday  = "8:00-22:00"
	emergencySaturday = "9:00-21:00"
	emergencySunday   = "10:00-20:00"

	weekdayFullDay  = "9:00-20:00"
	weekdaySplitDay = "9:00-13:30 / 16:00-20:00"
	saturdayMorning = "9:00-13:30"
	sundayMorning   = "10:00-13:00"
)

// GenerateHours builds the weekly schedule for a clinic. Emergency clinics get
// fixed long hours every day; other clinics derive weekend opening and a lunch
// break from the seed.
func GenerateHours(seed string, emergency bool) Schedule {
	if emergency {
		return Schedule{
			"monday":    strPtr(emergencyWeekday),
			"tuesday":   strPtr(emergencyWeekday),
			"wednesday": strPtr(emergencyWeekday),
			"thursday":  strPtr(emergencyWeekday),
			"friday":    strPtr(emergencyWeekday),
			"saturday":  strPtr(emergencySaturday),
			"sunday":    strPtr(emergencySunday),
		}
	}

	openSat := seededChance(seed+"sat", 0.3)
	openSun := seededChance(seed+"sun", 0.8)
	lunchBreak := seededChance(seed+"lunch", 0.5)

	weekday := weekdayFullDay
	if lunchBreak {
		weekday = weekdaySplitDay
	}

	s := Schedule{
		"monday":    strPtr(weekday),
		"tuesday":   strPtr(weekday),
		"wednesday": strPtr(weekday),
		"thursday":  strPtr(weekday),
		"friday":    strPtr(weekday),
		"saturday":  nil,
		"sunday":    nil,
	}
	if openSat {
		s["saturday"] = strPtr(saturdayMorning)
	}
	if openSun {
		s["sunday"] = strPtr(sundayMorning)
	}
	return s
}

// GenerateLanguages returns the languages spoken at a clinic. Catalan and
// Spanish are always present.
func GenerateLanguages(seed string) []string {
	langs := []string{"Catalán", "Castellano"}
	if seededChance(seed+"en", 0.6) {
		langs = append(langs, "Inglés")
	}
	if seededChance(seed+"fr", 0.85) {
		langs = append(langs, "Francés")
	}
	return langs
}

func strPtr(s string) *string { return &s }
