package axis

// FontSize picks a label font size that keeps long axis labels inside the
// panel margin.
func FontSize(label string) float64 {
	switch n := len(label); {
	case n <= 14:
		return 10
	case n <= 18:
		return 9
	case n <= 22:
		return 8
	default:
		return 7
	}
}
