package dsp

// Peak is a local maximum of a 1-D curve together with its topographic
// prominence and the bases that prominence was measured from.
type Peak struct {
	Index      int
	Prominence float64
	LeftBase   int
	RightBase  int
}

// Width is the extent of a peak at a given relative height. Left and Right
// are fractional sample positions obtained by linear interpolation.
type Width struct {
	Width  float64
	Height float64
	Left   float64
	Right  float64
}

// LocalMaxima returns the indices of all samples greater than their left
// neighbour and greater than the next differing sample on the right. A flat
// top is reported at its midpoint (rounded down). The first and last samples
// are never maxima.
func LocalMaxima(x []float64) []int {
	var peaks []int
	iMax := len(x) - 1
	for i := 1; i < iMax; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}
		ahead := i + 1
		for ahead < iMax && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			left, right := i, ahead-1
			peaks = append(peaks, (left+right)/2)
			i = ahead
		}
	}
	return peaks
}

// Prominences computes the prominence of each peak index in x. The search
// for each base walks outward until a higher sample or the curve edge.
func Prominences(x []float64, indices []int) []Peak {
	peaks := make([]Peak, len(indices))
	for n, p := range indices {
		leftMin, leftBase := x[p], p
		for i := p; i >= 0 && x[i] <= x[p]; i-- {
			if x[i] < leftMin {
				leftMin, leftBase = x[i], i
			}
		}

		rightMin, rightBase := x[p], p
		for i := p; i < len(x) && x[i] <= x[p]; i++ {
			if x[i] < rightMin {
				rightMin, rightBase = x[i], i
			}
		}

		peaks[n] = Peak{
			Index:      p,
			Prominence: x[p] - max(leftMin, rightMin),
			LeftBase:   leftBase,
			RightBase:  rightBase,
		}
	}
	return peaks
}

// FindPeaks returns the local maxima of x whose prominence is at least
// minProminence, in ascending index order.
func FindPeaks(x []float64, minProminence float64) []Peak {
	all := Prominences(x, LocalMaxima(x))
	kept := all[:0]
	for _, p := range all {
		if p.Prominence >= minProminence {
			kept = append(kept, p)
		}
	}
	return kept
}

// Widths measures every peak at relHeight of its prominence below the peak
// (0.5 gives the full width at half maximum). The crossing search is bounded
// by the peak's bases.
func Widths(x []float64, peaks []Peak, relHeight float64) []Width {
	widths := make([]Width, len(peaks))
	for n, p := range peaks {
		height := x[p.Index] - p.Prominence*relHeight

		i := p.Index
		for p.LeftBase < i && height < x[i] {
			i--
		}
		left := float64(i)
		if x[i] < height {
			left += (height - x[i]) / (x[i+1] - x[i])
		}

		i = p.Index
		for i < p.RightBase && height < x[i] {
			i++
		}
		right := float64(i)
		if x[i] < height {
			right -= (height - x[i]) / (x[i-1] - x[i])
		}

		widths[n] = Width{
			Width:  right - left,
			Height: height,
			Left:   left,
			Right:  right,
		}
	}
	return widths
}
