package enums

import "fmt"

// DesignStatus distinguishes private drafts from marketplace listings.
type DesignStatus string

const (
	DesignStatusDraft     DesignStatus = "draft"
	DesignStatusPublished DesignStatus = "published"
)

var validDesignStatuses = []DesignStatus{
	DesignStatusDraft,
	DesignStatusPublished,
}

// String implements fmt.Stringer.
func (d DesignStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DesignStatus.
func (d DesignStatus) IsValid() bool {
	for _, candidate := range validDesignStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDesignStatus converts raw input into a DesignStatus.
func ParseDesignStatus(value string) (DesignStatus, error) {
	for _, candidate := range validDesignStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid design status %q", value)
}
