package erd

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// Codec translates between a domain value and the vendor hex encoding for
// one ERD code. Encode receives the current raw value so codecs that own
// only part of a record can read-modify-write without touching the rest.
type Codec interface {
	Decode(raw string) (any, error)
	Encode(current string, value any) (string, error)

	// NeedsCurrent reports whether Encode requires the current raw value,
	// i.e. the codec owns only part of the record.
	NeedsCurrent() bool
}

// BoolCodec maps a one-byte flag: anything non-zero decodes true, and
// true/false encode as "01"/"00".
type BoolCodec struct{}

func (BoolCodec) Decode(raw string) (any, error) {
	b, err := decodeHex(raw)
	if err != nil {
		return nil, err
	}
	for _, v := range b {
		if v != 0 {
			return true, nil
		}
	}
	return false, nil
}

func (BoolCodec) NeedsCurrent() bool { return false }

func (BoolCodec) Encode(_ string, value any) (string, error) {
	on, ok := value.(bool)
	if !ok {
		return "", fmt.Errorf("erd: bool codec got %T", value)
	}
	if on {
		return "01", nil
	}
	return "00", nil
}

// TempCodec exposes a Celsius float over a big-endian uint16 Fahrenheit
// field embedded at Offset inside a larger record. Encoding preserves all
// bytes outside the field.
type TempCodec struct {
	Offset int
}

func (TempCodec) NeedsCurrent() bool { return true }

func (c TempCodec) Decode(raw string) (any, error) {
	b, err := decodeHex(raw)
	if err != nil {
		return nil, err
	}
	if len(b) < c.Offset+2 {
		return nil, fmt.Errorf("erd: record too short for temperature at offset %d: %q", c.Offset, raw)
	}
	f := binary.BigEndian.Uint16(b[c.Offset:])
	return FahrenheitToCelsius(float64(f)), nil
}

func (c TempCodec) Encode(current string, value any) (string, error) {
	celsius, ok := value.(float64)
	if !ok {
		return "", fmt.Errorf("erd: temperature codec got %T", value)
	}
	b, err := decodeHex(current)
	if err != nil {
		return "", err
	}
	if len(b) < c.Offset+2 {
		return "", fmt.Errorf("erd: record too short for temperature at offset %d: %q", c.Offset, current)
	}
	f := math.Round(CelsiusToFahrenheit(celsius))
	if f < 0 || f > math.MaxUint16 {
		return "", fmt.Errorf("erd: temperature %g out of range", celsius)
	}
	binary.BigEndian.PutUint16(b[c.Offset:], uint16(f))
	return hex.EncodeToString(b), nil
}

// FahrenheitToCelsius converts the vendor unit to the exposed unit.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// CelsiusToFahrenheit converts the exposed unit back to the vendor unit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func decodeHex(raw string) ([]byte, error) {
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("erd: bad hex value %q: %w", raw, err)
	}
	return b, nil
}
