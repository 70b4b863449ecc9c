package travels

// TravelInput carries the write fields of a create or update request as received.
//
// A nil pointer means the field was absent (or JSON null). Malformed lists fields
// that were present but had the wrong JSON type; adapters fill it so validation
// can name every bad field in one response.
type TravelInput struct {
	Destination   *string
	Description   *string
	DepartureDate *string
	Duration      *int64

	Malformed map[string]string
}

// Field names as they appear on the wire and in validation details.
const (
	FieldDestination   = "destination"
	FieldDescription   = "description"
	FieldDepartureDate = "departureDate"
	FieldDuration      = "duration"
)
