package ml

import "testing"

func TestLabelFor(t *testing.T) {
	cases := map[int]string{
		0:  LabelNegative,
		1:  LabelPositive,
		2:  LabelUnknown,
		-1: LabelUnknown,
	}
	for code, want := range cases {
		if got := LabelFor(code); got != want {
			t.Errorf("LabelFor(%d) = %q, want %q", code, got, want)
		}
	}
}
