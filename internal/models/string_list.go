package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"marketplace/internal/apperr"
)

// SizeList holds the size variants of a product. It accepts either a
// structured list or a single delimited string ("S,M,L" or "S|M|L") on input
// and is always written back as a list.
type SizeList []Size

// ParseSizes resolves raw form or JSON input into a SizeList. Each value may
// itself be a JSON array, a delimited string or a single size. Unknown, empty
// and repeated entries are rejected.
func ParseSizes(values ...string) (SizeList, error) {
	out := SizeList{}
	seen := map[Size]struct{}{}

	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		var parts []string
		if strings.HasPrefix(trimmed, "[") {
			if err := json.Unmarshal([]byte(trimmed), &parts); err != nil {
				return nil, apperr.Wrap(apperr.Validation, "sizes must be a list of strings", err)
			}
		} else {
			parts = strings.FieldsFunc(trimmed, func(r rune) bool { return r == ',' || r == '|' })
			if strings.Count(trimmed, ",")+strings.Count(trimmed, "|")+1 != len(parts) {
				return nil, apperr.New(apperr.Validation, "sizes contains an empty entry")
			}
		}

		for _, part := range parts {
			size := Size(strings.ToUpper(strings.TrimSpace(part)))
			if size == "" {
				return nil, apperr.New(apperr.Validation, "sizes contains an empty entry")
			}
			if !size.Valid() {
				return nil, apperr.Newf(apperr.Validation, "invalid size %q", part)
			}
			if _, ok := seen[size]; ok {
				return nil, apperr.Newf(apperr.Validation, "duplicate size %q", part)
			}
			seen[size] = struct{}{}
			out = append(out, size)
		}
	}
	return out, nil
}

func (s *SizeList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*s = nil
		return nil
	case strings.HasPrefix(trimmed, "["):
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return apperr.Wrap(apperr.Validation, "sizes must be a list of strings", err)
		}
		parsed, err := ParseSizes(values...)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	default:
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return apperr.Wrap(apperr.Validation, "sizes must be a list or a delimited string", err)
		}
		parsed, err := ParseSizes(value)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
}

// UnmarshalBSONValue accepts both string and array BSON types, so documents
// written with a delimited string still decode.
func (s *SizeList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null:
		*s = nil
		return nil
	case bsontype.Array:
		var values []string
		if err := bson.UnmarshalValue(t, data, &values); err != nil {
			return err
		}
		parsed, err := ParseSizes(values...)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		parsed, err := ParseSizes(value)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode %s into SizeList", t)
	}
}

// MarshalBSONValue always stores the list as an array.
func (s SizeList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	values := make([]string, len(s))
	for i, size := range s {
		values[i] = string(size)
	}
	return bson.MarshalValue(values)
}
