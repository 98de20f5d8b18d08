package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSantAntoniID = "75990208561"
	testHospitalID   = "76990214302"
	testClosedID     = "99000511234"
	testPharmacyID   = "87654321012"
	testDuplicateID  = "12345"
)

func fixtureRecords() []SourceRecord {
	return []SourceRecord{
		{
			RegisterID: testSantAntoniID, Name: "Clínica Veterinària Sant Antoni",
			RoadType: "Carrer", RoadName: "del Comte Borrell", StreetNumber: "45",
			Neighborhood: "Sant Antoni", District: "Eixample", Lat: "41.3789", Lon: "2.1602",
		},
		{
			RegisterID: testHospitalID, Name: "Hospital Veterinari 24h Glòries",
			RoadType: "Avinguda", RoadName: "Diagonal", StreetNumber: "210",
			District: "Sant Martí",
		},
		{RegisterID: testHospitalID, Name: "Hospital Veterinari 24h Glòries", AttributeName: "Telèfon", AttributeValue: "+34 934 567 890"},
		{
			RegisterID: testClosedID, Name: "Clínica Veterinària Sants", EndDate: "2021-05-01T00:00:00",
			Neighborhood: "Sants", Lat: "41.375", Lon: "2.135",
		},
		{RegisterID: testPharmacyID, Name: "Farmacia Central", Neighborhood: "el Raval"},
		{RegisterID: testDuplicateID, Name: "Clinica Veterinaria Sant Antoni", RoadName: "Sepúlveda", StreetNumber: "1"},
		{RegisterID: testSantAntoniID, Name: "Clínica Veterinària Sant Antoni", AttributeName: "Email", AttributeValue: "info@example.com"},
		{RegisterID: testSantAntoniID, Name: "Clínica Veterinària Sant Antoni", AttributeName: "Tel.", AttributeValue: "93 423 45 67"},
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestGroupByEstablishment_PreservesFirstSeenOrder(t *testing.T) {
	groups := GroupByEstablishment(fixtureRecords())

	require.Len(t, groups, 5)
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	assert.Equal(t, []string{testSantAntoniID, testHospitalID, testClosedID, testPharmacyID, testDuplicateID}, ids)
	assert.Len(t, groups[0].Rows, 3)
	assert.Equal(t, "Sant Antoni", groups[0].Primary().Neighborhood)
}

func TestClassify(t *testing.T) {
	closed := Establishment{ID: "1", Rows: []SourceRecord{{Name: "Clínica Veterinària Horta", EndDate: "2020-01-01"}}}
	notVet := Establishment{ID: "2", Rows: []SourceRecord{{Name: "Farmacia Central"}}}
	vet := Establishment{ID: "3", Rows: []SourceRecord{{Name: "Centre Veterinari Horta"}}}

	assert.Equal(t, SkipClosed, Classify(closed))
	assert.Equal(t, SkipNotVet, Classify(notVet))
	assert.Equal(t, SkipNone, Classify(vet))
}

func TestDeriveClinics(t *testing.T) {
	clinics, stats := DeriveClinics(fixtureRecords())

	assert.Equal(t, DeriveStats{Rows: 8, Establishments: 5, Closed: 1, NotVeterinary: 1, Clinics: 3}, stats)

	want := []Clinic{
		{
			ID:          ClinicID(testSantAntoniID),
			SourceID:    testSantAntoniID,
			Slug:        "clinica-veterinaria-sant-antoni",
			Name:        "Clínica Veterinària Sant Antoni",
			Address:     "Carrer del Comte Borrell, 45",
			Barrio:      "Sant Antoni",
			Phone:       "934 234 567",
			Rating:      4.9,
			ReviewCount: 249,
			Price:       3,
			Specialties: []string{SpecialtyPreventive},
			AnimalTypes: []string{AnimalDogs, AnimalCats},
			Languages:   []string{"Catalán", "Castellano", "Inglés"},
			Hours:       GenerateHours(testSantAntoniID, false),
			Lat:         floatPtr(41.3789),
			Lng:         floatPtr(2.1602),
		},
		{
			ID:          ClinicID(testHospitalID),
			SourceID:    testHospitalID,
			Slug:        "hospital-veterinari-24h-glories",
			Name:        "Hospital Veterinari 24h Glòries",
			Address:     "Avinguda Diagonal, 210",
			Barrio:      "Sant Martí",
			Phone:       "349 345 678 90",
			Rating:      4.9,
			ReviewCount: 315,
			Price:       3,
			IsEmergency: true,
			Specialties: []string{SpecialtySurgery, SpecialtyPreventive},
			AnimalTypes: []string{AnimalDogs, AnimalCats},
			Languages:   []string{"Catalán", "Castellano", "Inglés", "Francés"},
			Hours:       GenerateHours(testHospitalID, true),
		},
		{
			ID:          ClinicID(testDuplicateID),
			SourceID:    testDuplicateID,
			Slug:        "clinica-veterinaria-sant-antoni-2",
			Name:        "Clinica Veterinaria Sant Antoni",
			Address:     "Sepúlveda, 1",
			Barrio:      "Barcelona",
			Phone:       PlaceholderPhone,
			Rating:      3.2,
			ReviewCount: 155,
			Price:       2,
			Specialties: []string{SpecialtyPreventive},
			AnimalTypes: []string{AnimalDogs, AnimalCats},
			Languages:   []string{"Catalán", "Castellano"},
			Hours:       GenerateHours(testDuplicateID, false),
		},
	}

	if diff := cmp.Diff(want, clinics); diff != "" {
		t.Errorf("DeriveClinics mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveClinics_Reproducible(t *testing.T) {
	first, _ := DeriveClinics(fixtureRecords())
	second, _ := DeriveClinics(fixtureRecords())

	assert.Empty(t, cmp.Diff(first, second))
}

func TestDeriveClinics_EndDateWinsOverEverything(t *testing.T) {
	records := []SourceRecord{
		{RegisterID: "1", Name: "Hospital Veterinari 24h", EndDate: "2019-01-01", Lat: "41.4", Lon: "2.1"},
		{RegisterID: "1", Name: "Hospital Veterinari 24h", AttributeName: "Tel.", AttributeValue: "931112233"},
	}
	clinics, stats := DeriveClinics(records)

	assert.Empty(t, clinics)
	assert.Equal(t, 1, stats.Closed)
}

func TestDeriveClinics_NonVeterinaryExcluded(t *testing.T) {
	clinics, stats := DeriveClinics([]SourceRecord{{RegisterID: "9", Name: "Farmacia Central"}})

	assert.Empty(t, clinics)
	assert.Equal(t, 1, stats.NotVeterinary)
}

func TestDeriveClinics_HospitalSpecialties(t *testing.T) {
	clinics, _ := DeriveClinics([]SourceRecord{{RegisterID: "42", Name: "Hospital Veterinari 24h"}})

	require.Len(t, clinics, 1)
	assert.True(t, clinics[0].IsEmergency)
	assert.Contains(t, clinics[0].Specialties, SpecialtySurgery)
	assert.Contains(t, clinics[0].Specialties, SpecialtyPreventive)
	assert.Equal(t, SpecialtyPreventive, clinics[0].Specialties[len(clinics[0].Specialties)-1])
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"93 423 45 67", "934 234 567"},
		{"934-234-567", "934 234 567"},
		{"+34 934 567 890", "349 345 678 90"},
		{"1234", "1234"},
		{"n/a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPhone(tt.in))
		})
	}
}

func TestFindPhone(t *testing.T) {
	rows := []SourceRecord{
		{AttributeName: "Fax", AttributeValue: "932223344"},
		{AttributeName: "TELÈFON", AttributeValue: ""},
		{AttributeName: "Tel. mòbil", AttributeValue: "600 11 22 33"},
		{AttributeName: "Tel.", AttributeValue: "931112233"},
	}
	assert.Equal(t, "600 112 233", findPhone(rows))
	assert.Equal(t, PlaceholderPhone, findPhone(nil))
	assert.Equal(t, PlaceholderPhone, findPhone([]SourceRecord{{AttributeName: "Tel.", AttributeValue: "--"}}))
}

func TestParseCoordinate(t *testing.T) {
	assert.Nil(t, parseCoordinate(""))
	assert.Nil(t, parseCoordinate("  "))
	assert.Nil(t, parseCoordinate("not-a-number"))
	assert.Nil(t, parseCoordinate("0"))
	require.NotNil(t, parseCoordinate(" 41.3851 "))
	assert.Equal(t, 41.3851, *parseCoordinate(" 41.3851 "))
}

func TestPickBarrio(t *testing.T) {
	assert.Equal(t, "Gràcia", pickBarrio(SourceRecord{Neighborhood: "Gràcia", District: "Gràcia"}))
	assert.Equal(t, "Eixample", pickBarrio(SourceRecord{District: "Eixample"}))
	assert.Equal(t, "Barcelona", pickBarrio(SourceRecord{}))
}

func TestClinicID_Stable(t *testing.T) {
	assert.Equal(t, ClinicID("75990208561"), ClinicID("75990208561"))
	assert.NotEqual(t, ClinicID("75990208561"), ClinicID("76990214302"))
	assert.Len(t, ClinicID("1"), 36)
}
