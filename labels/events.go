package labels

import "fmt"

// MergeOp represents the fusion of one region into a target region.  The target always
// has the lower label; the merged label is retired and never reused.
type MergeOp struct {
	Target       uint32
	Merged       uint32
	TargetVoxels int // size of target before the fusion
	MergedVoxels int
}

func (op MergeOp) String() string {
	return fmt.Sprintf("merge %d (%d voxels) -> label %d (%d voxels)", op.Merged, op.MergedVoxels, op.Target, op.TargetVoxels)
}

// FusionHandler is notified of every fusion, wherever it originates.
type FusionHandler func(op MergeOp)

// MergeLog is the ordered history of fusions in a run.
type MergeLog []MergeOp

// Add appends a fusion to the log.
func (ml *MergeLog) Add(op MergeOp) {
	*ml = append(*ml, op)
}

// Retired returns the set of labels that were absorbed.
func (ml MergeLog) Retired() Set {
	s := make(Set, len(ml))
	for _, op := range ml {
		s[op.Merged] = struct{}{}
	}
	return s
}

// FinalLabel follows the fusion chain of a label to the label that finally holds its
// voxels.
func (ml MergeLog) FinalLabel(label uint32) uint32 {
	for _, op := range ml {
		if op.Merged == label {
			label = op.Target
		}
	}
	return label
}

// MergeTuples groups the log into tuples whose first element is the final target label
// and later elements are every label absorbed into it, directly or transitively.
func (ml MergeLog) MergeTuples() []MergeTuple {
	groups := make(map[uint32]Set)
	for _, op := range ml {
		final := ml.FinalLabel(op.Merged)
		if groups[final] == nil {
			groups[final] = make(Set)
		}
		groups[final][op.Merged] = struct{}{}
	}
	targets := make(Set, len(groups))
	for target := range groups {
		targets[target] = struct{}{}
	}
	tuples := make([]MergeTuple, 0, len(groups))
	for _, target := range targets.Sorted() {
		tuple := MergeTuple{target}
		tuple = append(tuple, groups[target].Sorted()...)
		tuples = append(tuples, tuple)
	}
	return tuples
}

// MergeTuple represents a merge of labels.  Its first element is the destination label
// and all later elements in the slice are labels that were merged.
type MergeTuple []uint32
