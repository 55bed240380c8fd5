package farm

import (
	"testing"
)

// TestAggregateCounts verifies folding results into counts and concatenated
// issue/artifact lists.
func TestAggregateCounts(t *testing.T) {
	agg := NewAggregator()
	agg.Add(&Result{TaskID: "t1", Status: StatusSuccess, Artifacts: []string{"out1.log"}})
	agg.Add(&Result{TaskID: "t2", Status: StatusSuccess, Artifacts: []string{"out2.log"}})
	agg.Add(FailureResult("t3", "a1", "tests failed"))
	agg.Add(BlockedResult("t4", "deploy"))
	agg.Add(nil) // ignored

	summary := agg.Summary()
	if len(summary.Results) != 4 {
		t.Fatalf("len(Results) = %d, want 4", len(summary.Results))
	}

	a := summary.Aggregate
	if a.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", a.SuccessCount)
	}
	if a.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", a.FailureCount)
	}
	if a.BlockedCount != 1 {
		t.Errorf("BlockedCount = %d, want 1", a.BlockedCount)
	}
	if len(a.Issues) != 2 {
		t.Errorf("len(Issues) = %d, want 2 (failure + blocked)", len(a.Issues))
	}
	if len(a.Artifacts) != 2 || a.Artifacts[0] != "out1.log" || a.Artifacts[1] != "out2.log" {
		t.Errorf("Artifacts = %v, want [out1.log out2.log] in add order", a.Artifacts)
	}
}

// TestIsOverallSuccess verifies failures flip the overall verdict and
// blocked results do not.
func TestIsOverallSuccess(t *testing.T) {
	tests := []struct {
		name    string
		results []*Result
		want    bool
	}{
		{
			name:    "empty",
			results: nil,
			want:    true,
		},
		{
			name: "all success",
			results: []*Result{
				{TaskID: "t1", Status: StatusSuccess},
				{TaskID: "t2", Status: StatusSuccess},
			},
			want: true,
		},
		{
			name: "one failure",
			results: []*Result{
				{TaskID: "t1", Status: StatusSuccess},
				FailureResult("t2", "a1", "boom"),
			},
			want: false,
		},
		{
			name: "blocked only",
			results: []*Result{
				{TaskID: "t1", Status: StatusSuccess},
				BlockedResult("t2", "code"),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverallSuccess(tt.results); got != tt.want {
				t.Errorf("IsOverallSuccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestResultsAddOrder verifies accumulated results keep their add order.
func TestResultsAddOrder(t *testing.T) {
	agg := NewAggregator()
	for _, id := range []string{"t3", "t1", "t2"} {
		agg.Add(&Result{TaskID: id, Status: StatusSuccess})
	}

	results := agg.Results()
	for i, want := range []string{"t3", "t1", "t2"} {
		if results[i].TaskID != want {
			t.Errorf("results[%d] = %q, want %q", i, results[i].TaskID, want)
		}
	}
}
