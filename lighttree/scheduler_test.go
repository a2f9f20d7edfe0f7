package lighttree

import "testing"

func TestBudgetScheduler(t *testing.T) {
	type spec struct {
		lightCount uint32
		budget     int
		exp        []Batch
	}
	specs := []spec{
		// Single light: one batch producing the root from two leaves.
		spec{1, 2048, []Batch{{1, 0, 0, 0, 1}}},
		// 5 lights: levels 0..2 fit in one batch reading level 3.
		spec{5, 2048, []Batch{{3, 0, 2, 0, 7}}},
		// Budget of 4: level 2 (4 nodes) alone, then levels 0..1 (3 nodes).
		spec{5, 4, []Batch{{3, 2, 2, 3, 7}, {2, 0, 1, 0, 3}}},
		// Budget of 2: level 2 exceeds the budget and is dispatched whole,
		// then level 1 alone, then the root.
		spec{8, 2, []Batch{{3, 2, 2, 3, 7}, {2, 1, 1, 1, 3}, {1, 0, 0, 0, 1}}},
		// 2^14 lights: levels 13 and 12 exceed the default budget and get a
		// batch each; levels 0..10 fit a single batch.
		spec{1 << 14, 2048, []Batch{
			{14, 13, 13, 8191, 16383},
			{13, 12, 12, 4095, 8191},
			{12, 11, 11, 2047, 4095},
			{11, 0, 10, 0, 2047},
		}},
		// Zero lights: nothing to do.
		spec{0, 2048, []Batch{}},
	}

	for index, s := range specs {
		sch := NewBudgetScheduler(s.budget)
		batches := sch.Schedule(NewLayout(s.lightCount))

		if len(batches) != len(s.exp) {
			t.Fatalf("[spec %d] expected %d batches; got %d (%v)", index, len(s.exp), len(batches), batches)
		}
		for bIndex, batch := range batches {
			if batch != s.exp[bIndex] {
				t.Fatalf("[spec %d] expected batch %d to be %+v; got %+v", index, bIndex, s.exp[bIndex], batch)
			}
		}
	}
}

func TestBudgetSchedulerCoversEveryInternalNodeOnce(t *testing.T) {
	for _, budget := range []int{1, 3, 100, 2048} {
		for _, lightCount := range []uint32{2, 17, 1000, 70000} {
			layout := NewLayout(lightCount)
			batches := NewBudgetScheduler(budget).Schedule(layout)

			written := make([]bool, layout.LeafStart())
			finishedLevel := layout.LeafLevel()
			for bIndex, batch := range batches {
				if batch.Start != LevelStart(batch.FirstLevel) || batch.End != LevelStart(batch.LastLevel)+LevelSize(batch.LastLevel) {
					t.Fatalf("[budget %d, lights %d] batch %d does not cover whole levels: %+v", budget, lightCount, bIndex, batch)
				}
				// Only a single level may exceed the budget.
				if batch.Size() > budget && batch.FirstLevel != batch.LastLevel {
					t.Fatalf("[budget %d, lights %d] multi-level batch %d exceeds budget: %d", budget, lightCount, bIndex, batch.Size())
				}
				// A batch may only read a level that is already complete.
				if batch.SrcLevel < finishedLevel {
					t.Fatalf("[budget %d, lights %d] batch %d reads unfinished level %d", budget, lightCount, bIndex, batch.SrcLevel)
				}
				if batch.LastLevel >= batch.SrcLevel {
					t.Fatalf("[budget %d, lights %d] batch %d writes its own source level", budget, lightCount, bIndex)
				}
				for i := batch.Start; i < batch.End; i++ {
					if written[i] {
						t.Fatalf("[budget %d, lights %d] node %d written twice", budget, lightCount, i)
					}
					written[i] = true
				}

				finishedLevel = batch.FirstLevel
			}

			for i, ok := range written {
				if !ok {
					t.Fatalf("[budget %d, lights %d] node %d never written", budget, lightCount, i)
				}
			}
		}
	}
}

func TestBudgetSchedulerReusesSchedule(t *testing.T) {
	sch := NewBudgetScheduler(0)
	first := sch.Schedule(NewLayout(600))
	second := sch.Schedule(NewLayout(1000))

	if &first[0] != &second[0] {
		t.Fatal("expected schedule to be reused for layouts with the same level count")
	}

	third := sch.Schedule(NewLayout(5000))
	if len(third) == 0 || third[0].SrcLevel != NewLayout(5000).LeafLevel() {
		t.Fatalf("expected a new schedule starting at the leaf level; got %v", third)
	}
}
