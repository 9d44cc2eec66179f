package enums

import "fmt"

// PrintArea names the garment surface the artwork is placed on.
type PrintArea string

const (
	PrintAreaFront PrintArea = "Front"
	PrintAreaBack  PrintArea = "Back"
)

var validPrintAreas = []PrintArea{
	PrintAreaFront,
	PrintAreaBack,
}

// String implements fmt.Stringer.
func (p PrintArea) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PrintArea.
func (p PrintArea) IsValid() bool {
	for _, candidate := range validPrintAreas {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePrintArea converts raw input into a PrintArea.
func ParsePrintArea(value string) (PrintArea, error) {
	for _, candidate := range validPrintAreas {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid print area %q", value)
}
