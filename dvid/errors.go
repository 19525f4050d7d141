package dvid

import (
	"bytes"
	"fmt"
)

// ConfigurationError is returned when inputs cannot be used, e.g., mismatched geometry
// across multi-scale maps or no seeds.  It is fatal and should never be retried.
type ConfigurationError struct {
	msg string
}

// NewConfigurationError returns a ConfigurationError with a formatted message.
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return "bad configuration: " + e.msg
}

// Outside marks a neighborhood position that falls outside the volume.
const Outside int64 = -1

// InvariantViolation is returned when the internal bookkeeping of a segmentation is
// found to be corrupt, e.g., a claimed voxel whose label has no live region.  The labels
// of the 3x3x3 neighborhood around the offending voxel are attached, indexed [dz][dy][dx],
// with Outside for positions beyond the volume.
type InvariantViolation struct {
	Point        Point3d
	Label        uint32
	Reason       string
	Neighborhood [3][3][3]int64
}

func (e *InvariantViolation) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "invariant violation at %s (label %d): %s; neighborhood labels:", e.Point, e.Label, e.Reason)
	for dz := 0; dz < 3; dz++ {
		fmt.Fprintf(&buf, " z%+d%v", dz-1, e.Neighborhood[dz])
	}
	return buf.String()
}

// NewInvariantViolation captures the neighborhood of a point using the given label lookup.
func NewInvariantViolation(dims Dims, pt Point3d, label uint32, reason string, labelAt func(i int) uint32) *InvariantViolation {
	e := &InvariantViolation{Point: pt, Label: label, Reason: reason}
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				q := pt.Add(Point3d{dx, dy, dz})
				if dims.Contains(q) {
					e.Neighborhood[dz+1][dy+1][dx+1] = int64(labelAt(dims.Index(q)))
				} else {
					e.Neighborhood[dz+1][dy+1][dx+1] = Outside
				}
			}
		}
	}
	return e
}

// DegenerateResult is returned when an operation produced a result that is technically
// valid but useless, e.g., a merge that collapsed a population to one or zero regions.
type DegenerateResult struct {
	Regions int
	Reason  string
}

func (e *DegenerateResult) Error() string {
	return fmt.Sprintf("degenerate result with %d regions: %s", e.Regions, e.Reason)
}
