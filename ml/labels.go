package ml

const (
	LabelNegative = "Negative"
	LabelPositive = "Positive"
	LabelUnknown  = "Unknown"
)

var feedbackLabels = map[int]string{
	0: LabelNegative,
	1: LabelPositive,
}

// LabelFor maps a class code to its feedback label. Codes outside the
// table map to LabelUnknown.
func LabelFor(code int) string {
	if label, ok := feedbackLabels[code]; ok {
		return label
	}
	return LabelUnknown
}
