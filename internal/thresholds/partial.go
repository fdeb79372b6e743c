package thresholds

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// FromValues picks the wire fields out of query or form values.
// Only the first value of a repeated parameter is used.
func FromValues(v url.Values) Partial {
	p := Partial{}
	for _, f := range Fields {
		if _, ok := v[string(f)]; ok {
			p[f] = v.Get(string(f))
		}
	}
	return p
}

// FromJSON decodes an object such as {"tLow": 21, "pHigh": "1040"}.
// Numbers and strings are both accepted; other value types are dropped.
func FromJSON(data []byte) (Partial, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("threshold update: %w", err)
	}

	p := Partial{}
	for _, f := range Fields {
		msg, ok := raw[string(f)]
		if !ok {
			continue
		}
		var num json.Number
		if err := json.Unmarshal(msg, &num); err == nil {
			p[f] = num.String()
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			p[f] = s
		}
	}
	return p, nil
}

// Values renders s as query values, the inverse of FromValues.
func (s Set) Values() url.Values {
	v := url.Values{}
	for _, f := range Fields {
		v.Set(string(f), strconv.FormatFloat(*s.ptr(f), 'f', -1, 64))
	}
	return v
}
