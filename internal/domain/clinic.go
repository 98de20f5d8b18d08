package domain

import "time"

// SourceRecord is one row of the open-data feed. Several rows can describe the
// same establishment; they share RegisterID. Absent values are empty strings.
type SourceRecord struct {
	RegisterID     string
	Name           string
	RoadType       string
	RoadName       string
	StreetNumber   string
	Neighborhood   string
	District       string
	ZipCode        string
	Lat            string
	Lon            string
	AttributeName  string
	AttributeValue string
	EndDate        string // non-empty when the establishment has closed
}

// Clinic is the derived, publishable clinic entity.
type Clinic struct {
	ID          string   `json:"id"`
	SourceID    string   `json:"sourceId"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Address     string   `json:"address"`
	Barrio      string   `json:"barrio"`
	Phone       string   `json:"phone"`
	Email       *string  `json:"email"`
	Website     *string  `json:"website"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	Price       int      `json:"price"`
	IsEmergency bool     `json:"isEmergency"`
	Specialties []string `json:"specialties"`
	AnimalTypes []string `json:"animalTypes"`
	Languages   []string `json:"languages"`
	Hours       Schedule `json:"hours"`
	ImageURL    *string  `json:"imageUrl"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (c Clinic) HasCoordinates() bool {
	return c.Lat != nil && c.Lng != nil
}

// Review is a single user review attached to a clinic.
type Review struct {
	ID       string    `json:"id"`
	ClinicID string    `json:"clinicId"`
	Author   string    `json:"author"`
	Rating   int       `json:"rating"`
	Comment  string    `json:"comment"`
	Date     time.Time `json:"date"`
	Helpful  int       `json:"helpful"`
}
