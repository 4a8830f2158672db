package engine

import "testing"

func TestPaginate(t *testing.T) {
	cases := []struct {
		total      int64
		page       int
		perPage    int
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{23, 1, 10, 3, true, false},
		{23, 2, 10, 3, true, true},
		{23, 3, 10, 3, false, true},
		{23, 4, 10, 3, false, true},
		{20, 2, 10, 2, false, true},
		{0, 1, 10, 0, false, false},
		{1, 1, 25, 1, false, false},
	}

	for _, tc := range cases {
		totalPages, hasNext, hasPrev := paginate(tc.total, tc.page, tc.perPage)
		if totalPages != tc.totalPages || hasNext != tc.hasNext || hasPrev != tc.hasPrev {
			t.Fatalf("paginate(%d, %d, %d) = (%d, %v, %v), want (%d, %v, %v)",
				tc.total, tc.page, tc.perPage,
				totalPages, hasNext, hasPrev,
				tc.totalPages, tc.hasNext, tc.hasPrev)
		}
	}
}

func TestAsInt64(t *testing.T) {
	if asInt64(int64(5)) != 5 || asInt64(int32(5)) != 5 || asInt64(5) != 5 || asInt64(5.0) != 5 {
		t.Fatal("numeric conversions must agree")
	}
	if asInt64("5") != 0 {
		t.Fatal("non-numeric input must yield zero")
	}
}
