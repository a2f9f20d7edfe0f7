package lighttree

import "errors"

var (
	ErrInvalidWorkBudget = errors.New("lighttree: work budget must be positive")
	ErrNotPrepared       = errors.New("lighttree: builder has no light set; call Prepare first")
	ErrStaleLeaves       = errors.New("lighttree: leaves must be generated before the tree is constructed")
)
