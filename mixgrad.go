package pie

// Mix combines a source gradient a with a target gradient b. Both builders
// apply it per channel.
func Mix(a, b float32, g Gradient) float32 {
	switch g {
	case GradientSrc:
		return a
	case GradientAvg:
		return (a + b) / 2
	default:
		if abs32(a) < abs32(b) {
			return b
		}
		return a
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
