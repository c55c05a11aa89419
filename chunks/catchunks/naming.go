package catchunks

import (
	"fmt"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
)

// NamingConvention selects the on-wire encoding of segment and version name
// components. The typed convention (NDN Packet Format v0.3) uses dedicated
// TLV types; the marker convention (NDN-TLV 0.2) prefixes a generic
// component's value with a one-byte marker. This is the repository's one
// process-wide option (spec.md §9's "Global state" note): pass it
// explicitly, never read it off a hidden global.
type NamingConvention interface {
	AppendSegment(n enc.Name, seg uint64) enc.Name
	AppendVersion(n enc.Name, v uint64) enc.Name
	ToSegment(c enc.Component) (uint64, bool)
	ToVersion(c enc.Component) (uint64, bool)
	String() string
}

// TypedConvention is the NDN Packet Format v0.3 naming convention,
// already native to std/encoding (NewSegmentComponent/NewVersionComponent).
type TypedConvention struct{}

func (TypedConvention) AppendSegment(n enc.Name, seg uint64) enc.Name {
	return n.Append(enc.NewSegmentComponent(seg))
}

func (TypedConvention) AppendVersion(n enc.Name, v uint64) enc.Name {
	return n.Append(enc.NewVersionComponent(v))
}

func (TypedConvention) ToSegment(c enc.Component) (uint64, bool) {
	if !c.IsSegment() {
		return 0, false
	}
	return c.NumberVal(), true
}

func (TypedConvention) ToVersion(c enc.Component) (uint64, bool) {
	if !c.IsVersion() {
		return 0, false
	}
	return c.NumberVal(), true
}

func (TypedConvention) String() string { return "typed" }

// Marker-convention byte prefixes (NDN-TLV 0.2 naming convention rev2).
const (
	markerSegment byte = 0x00
	markerVersion byte = 0xFD
)

// MarkerConvention is the older, marker-prefixed-generic-component
// convention, kept for interop with producers that predate Packet Format
// v0.3 typed components.
type MarkerConvention struct{}

func (MarkerConvention) AppendSegment(n enc.Name, seg uint64) enc.Name {
	return n.Append(markedComponent(markerSegment, seg))
}

func (MarkerConvention) AppendVersion(n enc.Name, v uint64) enc.Name {
	return n.Append(markedComponent(markerVersion, v))
}

func (MarkerConvention) ToSegment(c enc.Component) (uint64, bool) {
	return unmarkComponent(c, markerSegment)
}

func (MarkerConvention) ToVersion(c enc.Component) (uint64, bool) {
	return unmarkComponent(c, markerVersion)
}

func (MarkerConvention) String() string { return "marker" }

func markedComponent(marker byte, v uint64) enc.Component {
	num := enc.Nat(v).Bytes()
	val := make([]byte, 0, len(num)+1)
	val = append(val, marker)
	val = append(val, num...)
	return enc.NewBytesComponent(enc.TypeGenericNameComponent, val)
}

func unmarkComponent(c enc.Component, marker byte) (uint64, bool) {
	if c.Typ != enc.TypeGenericNameComponent || len(c.Val) < 2 || c.Val[0] != marker {
		return 0, false
	}
	n, _, err := enc.ParseNat(c.Val[1:])
	if err != nil {
		return 0, false
	}
	return uint64(n), true
}

// ParseNamingConvention maps the CLI's --naming-convention value to a
// NamingConvention implementation.
func ParseNamingConvention(name string) (NamingConvention, error) {
	switch name {
	case "", "typed":
		return TypedConvention{}, nil
	case "marker":
		return MarkerConvention{}, nil
	default:
		return nil, fmt.Errorf("unknown naming convention %q", name)
	}
}
