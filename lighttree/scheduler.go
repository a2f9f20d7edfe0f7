package lighttree

// Default number of destination nodes per construction dispatch.
const DefaultWorkBudget = 2048

// A construction batch. All nodes in [Start, End) are computed in a single
// dispatch from the finished nodes on SrcLevel. The range always covers the
// whole levels FirstLevel..LastLevel.
type Batch struct {
	SrcLevel   int
	FirstLevel int
	LastLevel  int
	Start      int
	End        int
}

// Number of nodes written by the batch.
func (b Batch) Size() int {
	return b.End - b.Start
}

// The BatchScheduler interface is implemented by all construction
// scheduling strategies.
type BatchScheduler interface {
	// Split the internal levels of the tree into an ordered list of batches.
	// Batches are executed in order; every batch only reads levels that
	// earlier batches (or the leaf stage) have completed.
	Schedule(layout Layout) []Batch
}

// The budget scheduler groups whole levels, starting with the level right
// above the last finished one and extending toward the root, as long as the
// accumulated node count stays within the budget. Every batch holds at least
// one level, so a level that exceeds the budget on its own is dispatched whole.
type budgetScheduler struct {
	budget int

	// The last schedule, reused while the level count stays the same.
	levelCount int
	batches    []Batch
}

// Create a new budget scheduler instance. Non-positive budgets select the
// default budget.
func NewBudgetScheduler(budget int) BatchScheduler {
	if budget <= 0 {
		budget = DefaultWorkBudget
	}
	return &budgetScheduler{budget: budget}
}

func (sch *budgetScheduler) Schedule(layout Layout) []Batch {
	if layout.LevelCount == sch.levelCount && sch.batches != nil {
		return sch.batches
	}

	sch.levelCount = layout.LevelCount
	sch.batches = make([]Batch, 0)

	for srcLevel := layout.LevelCount - 1; srcLevel > 0; {
		lastLevel := srcLevel - 1
		workLoad := LevelSize(lastLevel)
		firstLevel := lastLevel
		for firstLevel > 0 && workLoad+LevelSize(firstLevel-1) <= sch.budget {
			firstLevel--
			workLoad += LevelSize(firstLevel)
		}

		sch.batches = append(sch.batches, Batch{
			SrcLevel:   srcLevel,
			FirstLevel: firstLevel,
			LastLevel:  lastLevel,
			Start:      LevelStart(firstLevel),
			End:        LevelStart(lastLevel) + LevelSize(lastLevel),
		})
		srcLevel = firstLevel
	}

	return sch.batches
}
