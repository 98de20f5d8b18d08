package domain

import "strings"

// Specialty and animal-type tags as shown to users.
const (
	SpecialtySurgery     = "Cirugía"
	SpecialtyDermatology = "Dermatología"
	SpecialtyOphthalmo   = "Oftalmología"
	SpecialtyDentistry   = "Odontología"
	SpecialtyCardiology  = "Cardiología"
	SpecialtyOncology    = "Oncología"
	SpecialtyImaging     = "Diagnóstico por imagen"
	SpecialtyRehab       = "Rehabilitación"
	SpecialtyNutrition   = "Nutrición"
	SpecialtyPreventive  = "Medicina preventiva"

	AnimalCats    = "Gatos"
	AnimalDogs    = "Perros"
	AnimalExotics = "Exoticos"
	AnimalBirds   = "Aves"
	AnimalRabbits = "Conejos"
)

// vetKeywords identify establishments that offer veterinary services.
var vetKeywords = []string{"veterinari", "veterinary", "clínica vet", "clinica vet"}

var emergencyKeywords = []string{"urgent", "24h", "hospital"}

// tagRule adds tag when any keyword occurs in the lower-cased name.
type tagRule struct {
	keywords []string
	tag      string
}

var specialtyRules = []tagRule{
	{[]string{"dermatolog"}, SpecialtyDermatology},
	{[]string{"oftalmolog"}, SpecialtyOphthalmo},
	{[]string{"odontolog", "dental"}, SpecialtyDentistry},
	{[]string{"cardiolog"}, SpecialtyCardiology},
	{[]string{"oncolog"}, SpecialtyOncology},
	{[]string{"radiolog", "diagnos"}, SpecialtyImaging},
	{[]string{"rehab", "fisio"}, SpecialtyRehab},
	{[]string{"nutric", "dieteti"}, SpecialtyNutrition},
}

// animalRules match loosely on purpose: "av" alone tags birds.
var animalRules = []tagRule{
	{[]string{"felin", "gat", "cat"}, AnimalCats},
	{[]string{"cani", "gos", "perr"}, AnimalDogs},
	{[]string{"exotic", "exòtic", "rèptil", "reptil"}, AnimalExotics},
	{[]string{"av", "ocell"}, AnimalBirds},
	{[]string{"conill", "conejo"}, AnimalRabbits},
}

// IsVeterinary reports whether the establishment name indicates veterinary services.
func IsVeterinary(name string) bool {
	return containsAny(strings.ToLower(name), vetKeywords)
}

// IsEmergency reports whether the name suggests an emergency or hospital service.
func IsEmergency(name string) bool {
	return containsAny(strings.ToLower(name), emergencyKeywords)
}

// DetectSpecialties derives the specialty tags for a clinic name. Every clinic
// offers preventive medicine, which is always the last tag.
func DetectSpecialties(name string, emergency bool) []string {
	n := strings.ToLower(name)
	tags := newTagList()

	hospital := strings.Contains(n, "hospital")
	if hospital || emergency {
		tags.add(SpecialtySurgery)
	}
	tags.apply(n, specialtyRules)

	if tags.empty() && hospital {
		tags.add(SpecialtySurgery, SpecialtyImaging)
	}
	tags.add(SpecialtyPreventive)
	return tags.items
}

// DetectAnimalTypes derives the animal tags for a clinic name, defaulting to
// dogs and cats when nothing matches.
func DetectAnimalTypes(name string) []string {
	n := strings.ToLower(name)
	tags := newTagList()
	tags.apply(n, animalRules)
	if tags.empty() {
		tags.add(AnimalDogs, AnimalCats)
	}
	return tags.items
}

// tagList is an order-preserving set of tags.
type tagList struct {
	items []string
	seen  map[string]struct{}
}

func newTagList() *tagList {
	return &tagList{items: []string{}, seen: make(map[string]struct{})}
}

func (l *tagList) add(tags ...string) {
	for _, t := range tags {
		if _, ok := l.seen[t]; ok {
			continue
		}
		l.seen[t] = struct{}{}
		l.items = append(l.items, t)
	}
}

func (l *tagList) apply(name string, rules []tagRule) {
	for _, r := range rules {
		if containsAny(name, r.keywords) {
			l.add(r.tag)
		}
	}
}

func (l *tagList) empty() bool { return len(l.items) == 0 }

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
