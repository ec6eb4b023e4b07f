// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package bitheap

import (
	"fmt"
	"strings"
)

// Family identifies a target device family, which determines which
// compressors are available and what they cost.
type Family int

const (
	LUT6 Family = iota
	LUT4
	ASIC
)

func (f Family) String() string {
	switch f {
	case LUT6:
		return "lut6"
	case LUT4:
		return "lut4"
	case ASIC:
		return "asic"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily parses the name of a device family.
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(name) {
	case "lut6":
		return LUT6, nil
	case "lut4":
		return LUT4, nil
	case "asic":
		return ASIC, nil
	}
	return 0, Errorf(ErrConfig, "unknown device family %q", name)
}

// Standard compressor shapes.
var (
	fullAdder = Compressor{Name: "fa", Height: []int{3}, Outputs: []int{1, 1}}
	halfAdder = Compressor{Name: "ha", Height: []int{2}, Outputs: []int{1, 1}}
	wire      = Compressor{Name: "wire", Height: []int{1}, Outputs: []int{1}}
	gpc63     = Compressor{Name: "gpc6_3", Height: []int{6}, Outputs: []int{1, 1, 1}}
	gpc153    = Compressor{Name: "gpc15_3", Height: []int{5, 1}, Outputs: []int{1, 1, 1}}
	gpc233    = Compressor{Name: "gpc23_3", Height: []int{3, 2}, Outputs: []int{1, 1, 1}}
	rowLow    = Compressor{Name: "row3_low", Height: []int{3}, Outputs: []int{1},
		Chain: &ChainPart{Family: "row3", Part: PartLow}}
	rowMiddle = Compressor{Name: "row3_mid", Height: []int{3}, Outputs: []int{1},
		Chain: &ChainPart{Family: "row3", Part: PartMiddle}}
	rowHigh = Compressor{Name: "row3_high", Height: []int{3}, Outputs: []int{1, 1, 1},
		Chain: &ChainPart{Family: "row3", Part: PartHigh}}
)

func costed(c Compressor, cost float64) Compressor {
	c.Cost = cost
	return c
}

// FullHalfAdders returns the catalog of a full adder (cost 1) and a half
// adder (cost 0.5).
func FullHalfAdders() *Catalog {
	return MustCatalog(costed(fullAdder, 1), costed(halfAdder, 0.5))
}

// StandardCatalog returns the compressors available on family f, costed
// in that family's area unit (LUTs for FPGA families, full adder
// equivalents for ASIC).
func StandardCatalog(f Family) (*Catalog, error) {
	switch f {
	case LUT6:
		return NewCatalog(
			costed(fullAdder, 1),
			costed(halfAdder, 1),
			costed(wire, 0),
			costed(gpc63, 3),
			costed(gpc153, 3),
			costed(gpc233, 2),
			costed(rowLow, 1),
			costed(rowMiddle, 1),
			costed(rowHigh, 2))
	case LUT4:
		return NewCatalog(
			costed(fullAdder, 2),
			costed(halfAdder, 1),
			costed(wire, 0),
			costed(rowLow, 2),
			costed(rowMiddle, 2),
			costed(rowHigh, 3))
	case ASIC:
		return NewCatalog(
			costed(fullAdder, 1),
			costed(halfAdder, 0.5),
			costed(wire, 0))
	}
	return nil, Errorf(ErrConfig, "unknown device family %d", int(f))
}
