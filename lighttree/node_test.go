package lighttree

import (
	"testing"

	"github.com/achilleasa/lightcuts/types"
)

func TestMergeNodes(t *testing.T) {
	a := Node{Min: types.XYZ(0, 0, 0), Max: types.XYZ(0, 0, 0), Power: 1, Code: 0b101100, Light: 3}
	b := Node{Min: types.XYZ(1, 2, 3), Max: types.XYZ(1, 2, 3), Power: 2, Code: 0b101011, Light: 7}
	bogus := bogusNode()

	merged := mergeNodes(&a, &b, 6)
	if merged.Power != 3 {
		t.Fatalf("expected merged power to be 3; got %v", merged.Power)
	}
	if merged.Min != a.Min || merged.Max != b.Max {
		t.Fatalf("expected merged bounds to be [%v, %v]; got [%v, %v]", a.Min, b.Max, merged.Min, merged.Max)
	}
	if merged.Light != a.Light {
		t.Fatalf("expected representative light to be %d; got %d", a.Light, merged.Light)
	}
	if merged.Code != 0b101000 {
		t.Fatalf("expected merged code to be %b; got %b", 0b101000, merged.Code)
	}

	if merged = mergeNodes(&bogus, &b, 6); merged != b {
		t.Fatalf("expected merging with a bogus left node to return the right node; got %+v", merged)
	}
	if merged = mergeNodes(&a, &bogus, 6); merged != a {
		t.Fatalf("expected merging with a bogus right node to return the left node; got %+v", merged)
	}
	if merged = mergeNodes(&bogus, &bogus, 6); !merged.IsBogus() || !merged.BBox().IsEmpty() || merged.Power != 0 {
		t.Fatalf("expected merging two bogus nodes to yield a bogus node; got %+v", merged)
	}
}
