package remote

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args gives typed access to positional call arguments. Numeric accessors
// also accept numeric strings, since senders often forward text fields
// verbatim.
type Args struct {
	method string
	raw    []json.RawMessage
}

// Len returns the number of arguments.
func (a Args) Len() int { return len(a.raw) }

// Expect fails unless exactly n arguments were given.
func (a Args) Expect(n int) error {
	if len(a.raw) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrBadArgs, a.method, n, len(a.raw))
	}
	return nil
}

// Float returns argument i as a float64.
func (a Args) Float(i int) (float64, error) {
	raw, err := a.at(i)
	if err != nil {
		return 0, err
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %s argument %d is not a number: %s", ErrBadArgs, a.method, i, raw)
}

// Int returns argument i as an int. Fractional values are rejected.
func (a Args) Int(i int) (int, error) {
	f, err := a.Float(i)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s argument %d is not an integer: %v", ErrBadArgs, a.method, i, f)
	}
	return int(f), nil
}

// String returns argument i as text. Non-string JSON values are returned in
// their JSON form.
func (a Args) String(i int) (string, error) {
	raw, err := a.at(i)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return string(raw), nil
}

// Decode unmarshals argument i into v.
func (a Args) Decode(i int, v any) error {
	raw, err := a.at(i)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s argument %d: %v", ErrBadArgs, a.method, i, err)
	}
	return nil
}

func (a Args) at(i int) (json.RawMessage, error) {
	if i < 0 || i >= len(a.raw) {
		return nil, fmt.Errorf("%w: %s missing argument %d", ErrBadArgs, a.method, i)
	}
	return a.raw[i], nil
}
