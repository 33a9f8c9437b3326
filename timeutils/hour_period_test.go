package timeutils

import "testing"

func TestHourPeriodContains(t *testing.T) {
	const n = 8760

	cases := []struct {
		name   string
		period HourPeriod
		hour   int
		want   bool
	}{
		{"inside simple period", HourPeriod{Start: 100, End: 200}, 150, true},
		{"start is inclusive", HourPeriod{Start: 100, End: 200}, 100, true},
		{"end is exclusive", HourPeriod{Start: 100, End: 200}, 200, false},
		{"before period", HourPeriod{Start: 100, End: 200}, 99, false},
		{"empty period", HourPeriod{Start: 100, End: 100}, 100, false},
		{"wrap-around late side", HourPeriod{Start: 8000, End: 500}, 8500, true},
		{"wrap-around early side", HourPeriod{Start: 8000, End: 500}, 100, true},
		{"wrap-around gap", HourPeriod{Start: 8000, End: 500}, 4000, false},
	}
	for _, tc := range cases {
		if got := tc.period.Contains(tc.hour, n); got != tc.want {
			t.Fatalf("%s: Contains(%d) = %v, want %v", tc.name, tc.hour, got, tc.want)
		}
	}
}

func TestHourPeriodValidate(t *testing.T) {
	if err := (HourPeriod{Start: 0, End: 10}).Validate(10); err != nil {
		t.Fatalf("valid period rejected: %v", err)
	}
	if err := (HourPeriod{Start: -1, End: 5}).Validate(10); err == nil {
		t.Fatal("negative start accepted")
	}
	if err := (HourPeriod{Start: 0, End: 11}).Validate(10); err == nil {
		t.Fatal("end past horizon accepted")
	}
}
