package travels

import (
	"math"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
)

// ValidateInput checks every field of in and returns the normalized fields.
//
// On failure it returns a KindValidation *Error whose Details names each missing
// or invalid field. It performs no I/O.
func ValidateInput(in TravelInput) (domain.TravelFields, error) {
	details := map[string]any{}
	var out domain.TravelFields

	for field, reason := range in.Malformed {
		details[field] = reason
	}

	requireText := func(field string, v *string, dst *string) {
		if _, bad := details[field]; bad {
			return
		}
		if v == nil {
			details[field] = "is required"
			return
		}
		s := domain.NormalizeText(*v)
		if s == "" {
			details[field] = "must be non-empty"
			return
		}
		*dst = s
	}
	requireText(FieldDestination, in.Destination, &out.Destination)
	requireText(FieldDescription, in.Description, &out.Description)

	if _, bad := details[FieldDepartureDate]; !bad {
		switch {
		case in.DepartureDate == nil:
			details[FieldDepartureDate] = "is required"
		default:
			d, err := domain.ParseCalendarDate(*in.DepartureDate)
			if err != nil {
				details[FieldDepartureDate] = "must be a calendar date (YYYY-MM-DD)"
			} else {
				out.DepartureDate = d
			}
		}
	}

	if _, bad := details[FieldDuration]; !bad {
		switch {
		case in.Duration == nil:
			details[FieldDuration] = "is required"
		case *in.Duration < 1 || *in.Duration > math.MaxInt32:
			details[FieldDuration] = "must be a positive integer"
		default:
			out.DurationDays = int(*in.Duration)
		}
	}

	if len(details) > 0 {
		return domain.TravelFields{}, validationError(details)
	}
	return out, nil
}
