package domain

// SortOrder selects the ordering of clinic listings.
type SortOrder string

const (
	SortRating   SortOrder = "rating"
	SortName     SortOrder = "name"
	SortDistance SortOrder = "distance"
)

// ParseSortOrder maps a query value to a SortOrder. Unknown values fall back
// to rating order.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortName, SortDistance:
		return SortOrder(s)
	default:
		return SortRating
	}
}

// ClinicFilter narrows a clinic listing. Zero-valued fields do not filter.
type ClinicFilter struct {
	Barrio        string
	AnimalType    string
	Specialty     string
	MinRating     float64
	Prices        []int // any of
	EmergencyOnly bool
	Search        string // case-insensitive substring of name or description
	IDs           []string
	Sort          SortOrder
}
