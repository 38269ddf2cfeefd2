package extractor

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/buger/jsonparser"
)

var errStop = errors.New("stop")

// firstObjectKey returns the first key of the JSON object in data, in
// document order. Malformed input yields "".
func firstObjectKey(data string) string {
	raw := []byte(strings.TrimSpace(data))
	if len(raw) == 0 || !json.Valid(raw) {
		return ""
	}

	var first string
	// ObjectEach hands the callback keys already unescaped.
	err := jsonparser.ObjectEach(raw, func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
		first = string(key)
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return ""
	}
	return first
}

// linkedDataField reads a string field from a JSON-LD object. An array
// value yields its first string element.
func linkedDataField(data, field string) string {
	raw := []byte(strings.TrimSpace(data))
	if len(raw) == 0 || !json.Valid(raw) {
		return ""
	}

	value, typ, _, err := jsonparser.Get(raw, field)
	if err != nil {
		return ""
	}

	switch typ {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return s
	case jsonparser.Array:
		var first string
		_, _ = jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
			if first != "" || t != jsonparser.String {
				return
			}
			if s, err := jsonparser.ParseString(v); err == nil {
				first = s
			}
		})
		return first
	}
	return ""
}
