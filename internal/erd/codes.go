// Package erd interprets SmartHQ property codes and their hex-encoded
// values. Every appliance attribute travels the wire as an opaque hex
// string whose meaning is fixed by its ERD code; this package is the only
// place those bytes are given a type.
package erd

// Code identifies one controllable or observable appliance attribute.
type Code string

const (
	UpperOvenCookMode Code = "0x5100"
	UpperOvenLight    Code = "0x5107"
	AccentLight       Code = "0x5108"
)

// CookModeTempOffset is the byte offset of the big-endian uint16 target
// temperature (degrees Fahrenheit) inside the cook-mode record.
const CookModeTempOffset = 1
