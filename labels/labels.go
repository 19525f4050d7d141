/*
	Package labels holds the label arena and region types shared by the growth and merge
	layers.  Regions are always referenced by their integer label, never by pointer, so
	that copies of a segmentation are plain slice clones.
*/
package labels

import (
	"fmt"
	"sort"
	"strings"
)

// Background is the label of unclaimed voxels.
const Background uint32 = 0

// Set is a set of labels.
type Set map[uint32]struct{}

// NewSet returns a set holding the given labels.
func NewSet(lbls ...uint32) Set {
	s := make(Set, len(lbls))
	for _, label := range lbls {
		s[label] = struct{}{}
	}
	return s
}

// Contains returns true if the label is in the set.
func (s Set) Contains(label uint32) bool {
	_, found := s[label]
	return found
}

// Sorted returns the labels in ascending order.
func (s Set) Sorted() []uint32 {
	lbls := make([]uint32, 0, len(s))
	for label := range s {
		lbls = append(lbls, label)
	}
	sort.Slice(lbls, func(i, j int) bool { return lbls[i] < lbls[j] })
	return lbls
}

func (s Set) String() string {
	strs := make([]string, 0, len(s))
	for _, label := range s.Sorted() {
		strs = append(strs, fmt.Sprintf("%d", label))
	}
	return "[" + strings.Join(strs, ",") + "]"
}
