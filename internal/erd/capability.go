package erd

// Kind names the external shape a capability is exposed as.
type Kind string

const (
	KindLight       Kind = "light"
	KindTemperature Kind = "temperature"
)

// Capability binds one ERD code to its decode/encode behavior and the
// shape an accessory framework should expose it as.
type Capability struct {
	Name  string
	Kind  Kind
	Code  Code
	Codec Codec
}

var catalog = map[string][]Capability{
	"COOKING_V1_UPPER_OVEN_FOUNDATION": {
		{Name: "Upper Oven Light", Kind: KindLight, Code: UpperOvenLight, Codec: BoolCodec{}},
		{Name: "Upper Oven Temperature", Kind: KindTemperature, Code: UpperOvenCookMode, Codec: TempCodec{Offset: CookModeTempOffset}},
	},
	"COOKING_V1_ACCENT_LIGHTING": {
		{Name: "Accent Light", Kind: KindLight, Code: AccentLight, Codec: BoolCodec{}},
	},
}

// Capabilities maps declared feature strings to capabilities. Unrecognized
// features are ignored.
func Capabilities(features []string) []Capability {
	var out []Capability
	for _, feature := range features {
		out = append(out, catalog[feature]...)
	}
	return out
}

// Lookup finds the capability owning an ERD code, across the whole catalog.
// Inbound events carry only the code, not the feature that declared it.
func Lookup(code Code) (Capability, bool) {
	for _, caps := range catalog {
		for _, c := range caps {
			if c.Code == code {
				return c, true
			}
		}
	}
	return Capability{}, false
}
