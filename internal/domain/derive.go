package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// PlaceholderPhone is used when the feed has no usable phone number.
	PlaceholderPhone = "900 000 000"

	defaultBarrio = "Barcelona"
)

// clinicNamespace scopes the UUIDv5 clinic IDs derived from register IDs.
var clinicNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://opendata-ajuntament.barcelona.cat/vet-clinics"))

var nonDigitRe = regexp.MustCompile(`\D`)

// Establishment groups every feed row that shares a register ID.
type Establishment struct {
	ID   string
	Rows []SourceRecord
}

// Primary is the row carrying the establishment's name, address and coordinates.
func (e Establishment) Primary() SourceRecord {
	return e.Rows[0]
}

// SkipReason explains why an establishment was left out of the clinic set.
type SkipReason string

const (
	SkipNone   SkipReason = ""
	SkipClosed SkipReason = "closed"
	SkipNotVet SkipReason = "not_veterinary"
)

// DeriveStats summarizes one derivation run.
type DeriveStats struct {
	Rows           int
	Establishments int
	Closed         int
	NotVeterinary  int
	Clinics        int
}

// GroupByEstablishment groups rows by register ID, preserving the order in
// which each establishment first appears.
func GroupByEstablishment(records []SourceRecord) []Establishment {
	index := make(map[string]int)
	var groups []Establishment
	for _, r := range records {
		i, ok := index[r.RegisterID]
		if !ok {
			i = len(groups)
			index[r.RegisterID] = i
			groups = append(groups, Establishment{ID: r.RegisterID})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// Classify decides whether an establishment becomes a clinic.
func Classify(e Establishment) SkipReason {
	p := e.Primary()
	if p.EndDate != "" {
		return SkipClosed
	}
	if !IsVeterinary(p.Name) {
		return SkipNotVet
	}
	return SkipNone
}

// DeriveClinics turns raw feed rows into the full clinic set. The output is a
// pure function of the input: rerunning on identical rows yields identical
// clinics, slugs included.
func DeriveClinics(records []SourceRecord) ([]Clinic, DeriveStats) {
	groups := GroupByEstablishment(records)
	stats := DeriveStats{Rows: len(records), Establishments: len(groups)}

	slugs := NewSlugSet()
	clinics := make([]Clinic, 0, len(groups))
	for _, g := range groups {
		switch Classify(g) {
		case SkipClosed:
			stats.Closed++
			continue
		case SkipNotVet:
			stats.NotVeterinary++
			continue
		}
		clinics = append(clinics, BuildClinic(g, slugs))
	}
	stats.Clinics = len(clinics)
	return clinics, stats
}

// BuildClinic derives the clinic entity for an accepted establishment and
// claims its slug in slugs.
func BuildClinic(e Establishment, slugs *SlugSet) Clinic {
	p := e.Primary()
	seed := e.ID
	emergency := IsEmergency(p.Name)

	return Clinic{
		ID:          ClinicID(e.ID),
		SourceID:    e.ID,
		Slug:        slugs.Assign(p.Name),
		Name:        p.Name,
		Address:     buildAddress(p),
		Barrio:      pickBarrio(p),
		Phone:       findPhone(e.Rows),
		Rating:      roundTenth(SeededRandom(seed, 3.2, 5.0)),
		ReviewCount: SeededInt(seed+"rc", 8, 320),
		Price:       SeededInt(seed+"pr", 1, 3),
		IsEmergency: emergency,
		Specialties: DetectSpecialties(p.Name, emergency),
		AnimalTypes: DetectAnimalTypes(p.Name),
		Languages:   GenerateLanguages(seed),
		Hours:       GenerateHours(seed, emergency),
		Lat:         parseCoordinate(p.Lat),
		Lng:         parseCoordinate(p.Lon),
	}
}

// ClinicID returns the stable clinic ID for a register ID.
func ClinicID(registerID string) string {
	return uuid.NewSHA1(clinicNamespace, []byte(registerID)).String()
}

func buildAddress(p SourceRecord) string {
	return strings.TrimSpace(p.RoadType + " " + p.RoadName + ", " + p.StreetNumber)
}

func pickBarrio(p SourceRecord) string {
	switch {
	case strings.TrimSpace(p.Neighborhood) != "":
		return p.Neighborhood
	case strings.TrimSpace(p.District) != "":
		return p.District
	default:
		return defaultBarrio
	}
}

// parseCoordinate returns nil for empty, unparseable or zero values.
func parseCoordinate(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v == 0 {
		return nil
	}
	return &v
}

// findPhone takes the first row whose attribute name mentions "tel" and has a
// value, and formats its digits.
func findPhone(rows []SourceRecord) string {
	for _, r := range rows {
		if r.AttributeValue == "" || !strings.Contains(strings.ToLower(r.AttributeName), "tel") {
			continue
		}
		if phone := FormatPhone(r.AttributeValue); phone != "" {
			return phone
		}
		break
	}
	return PlaceholderPhone
}

// FormatPhone keeps the digits of raw and groups the first nine as
// "DDD DDD DDD"; any further digits are appended unchanged.
func FormatPhone(raw string) string {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if len(digits) < 9 {
		return digits
	}
	return digits[:3] + " " + digits[3:6] + " " + digits[6:9] + digits[9:]
}
