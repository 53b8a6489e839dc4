package utils

// GetDimmerFadeValue returns the DMX level of a flash fading out from target over
// numSteps output frames. Step 0 is the full target and the last step is dark.
func GetDimmerFadeValue(target, step, numSteps int) int {
	if numSteps <= 1 || step <= 0 {
		return int(Clamp(float64(target), 0, 255))
	}
	progress := float64(step) / float64(numSteps-1)
	if progress >= 1 {
		return 0
	}

	out := Clamp((1-progress)*float64(target), 0, 255)
	return int(out)
}
