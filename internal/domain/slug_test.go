package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents stripped", "Clínica Veterinària Sant Antoni", "clinica-veterinaria-sant-antoni"},
		{"punctuation and dash runs", "  Hospital Veterinari  24h -- Glòries!! ", "hospital-veterinari-24h-glories"},
		{"apostrophe dropped", "Centre Veterinari l'Eixample", "centre-veterinari-leixample"},
		{"cedilla and middle dot", "Clínica Veterinària Gràcia · Ç", "clinica-veterinaria-gracia-c"},
		{"already a slug", "vet-bcn", "vet-bcn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugSet_Assign_SuffixesCollisions(t *testing.T) {
	s := NewSlugSet()

	assert.Equal(t, "clinica-veterinaria-sants", s.Assign("Clínica Veterinària Sants"))
	assert.Equal(t, "clinica-veterinaria-sants-2", s.Assign("Clinica Veterinaria Sants"))
	assert.Equal(t, "clinica-veterinaria-sants-3", s.Assign("CLÍNICA VETERINÀRIA SANTS"))
	assert.Equal(t, "centre-veterinari-horta", s.Assign("Centre Veterinari Horta"))
}

func TestSlugSet_Assign_SkipsTakenSuffix(t *testing.T) {
	s := NewSlugSet()

	assert.Equal(t, "vet-2", s.Assign("Vet 2"))
	assert.Equal(t, "vet", s.Assign("Vet"))
	assert.Equal(t, "vet-3", s.Assign("Vet"), "vet-2 is already taken by another name")
}
