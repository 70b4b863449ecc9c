package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Overland-East-Bay/travel-log-api/internal/app/travels"
	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
)

const maxBodyBytes = 1 << 20

// Travel is the wire form of a travel record.
type Travel struct {
	Id            string             `json:"id"`
	Destination   string             `json:"destination"`
	Description   string             `json:"description"`
	DepartureDate openapi_types.Date `json:"departureDate"`
	Duration      int                `json:"duration"`
	OwnerId       string             `json:"ownerId"`
}

func travelFromDomain(t domain.Travel) Travel {
	return Travel{
		Id:            string(t.ID),
		Destination:   t.Destination,
		Description:   t.Description,
		DepartureDate: openapi_types.Date{Time: t.DepartureDate},
		Duration:      t.DurationDays,
		OwnerId:       string(t.OwnerID),
	}
}

var errBodyNotObject = errors.New("request body must be a JSON object")

// readBody reads at most maxBodyBytes. An empty body is returned as "{}".
func readBody(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []byte("{}"), nil
	}
	return b, nil
}

// decodeTravelInput decodes a write body field by field so a wrong JSON type on
// one field is reported alongside problems with the others. Unknown fields,
// including any client-supplied owner, are ignored.
func decodeTravelInput(body []byte) (travels.TravelInput, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return travels.TravelInput{}, errBodyNotObject
	}

	in := travels.TravelInput{Malformed: map[string]string{}}
	in.Destination = decodeString(raw, travels.FieldDestination, "must be a string", in.Malformed)
	in.Description = decodeString(raw, travels.FieldDescription, "must be a string", in.Malformed)
	in.DepartureDate = decodeString(raw, travels.FieldDepartureDate, "must be a calendar date (YYYY-MM-DD)", in.Malformed)

	if v, ok := raw[travels.FieldDuration]; ok && !isNull(v) {
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		var tok any
		if err := dec.Decode(&tok); err != nil {
			in.Malformed[travels.FieldDuration] = "must be a positive integer"
		} else if n, isNum := tok.(json.Number); !isNum {
			in.Malformed[travels.FieldDuration] = "must be a positive integer"
		} else if i, err := n.Int64(); err != nil {
			in.Malformed[travels.FieldDuration] = "must be a positive integer"
		} else {
			in.Duration = &i
		}
	}

	if len(in.Malformed) == 0 {
		in.Malformed = nil
	}
	return in, nil
}

func decodeString(raw map[string]json.RawMessage, field, reason string, malformed map[string]string) *string {
	v, ok := raw[field]
	if !ok || isNull(v) {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		malformed[field] = reason
		return nil
	}
	return &s
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}
