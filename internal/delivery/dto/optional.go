package dto

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// OptionalNumber accepts a JSON number, a numeric string, "" or null.
// Blank input leaves it unset.
type OptionalNumber struct {
	value *decimal.Decimal
}

func (n *OptionalNumber) UnmarshalJSON(data []byte) error {
	raw, blank, err := optionalLiteral(data)
	if err != nil || blank {
		n.value = nil
		return err
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	n.value = &d
	return nil
}

func (n OptionalNumber) MarshalJSON() ([]byte, error) {
	if n.value == nil {
		return []byte("null"), nil
	}
	return []byte(n.value.String()), nil
}

// Decimal returns nil when the field was blank or absent
func (n OptionalNumber) Decimal() *decimal.Decimal {
	if n.value == nil {
		return nil
	}
	d := *n.value
	return &d
}

// OptionalInt is the integer counterpart of OptionalNumber
type OptionalInt struct {
	value *int
}

func (n *OptionalInt) UnmarshalJSON(data []byte) error {
	raw, blank, err := optionalLiteral(data)
	if err != nil || blank {
		n.value = nil
		return err
	}

	i, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	n.value = &i
	return nil
}

func (n OptionalInt) MarshalJSON() ([]byte, error) {
	if n.value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*n.value)), nil
}

func (n OptionalInt) Int() *int {
	if n.value == nil {
		return nil
	}
	i := *n.value
	return &i
}

// optionalLiteral unwraps a JSON scalar into its text, reporting null and blank strings
func optionalLiteral(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", true, nil
	}

	raw := string(data)
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return "", false, fmt.Errorf("invalid string %s", data)
		}
		raw = unquoted
	}

	raw = strings.TrimSpace(raw)
	return raw, raw == "", nil
}

// OptionalString trims s and returns nil when nothing is left
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
