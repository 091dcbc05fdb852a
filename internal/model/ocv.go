package model

// The open-circuit voltage curve is a piecewise-linear shape anchored on the
// profile's cutoffs and nominal voltage:
//
//	soc:  0      0.1                  0.5      0.9                  1
//	ocv:  lower  lower+0.6(nom-lower) nominal  nom+0.6(upper-nom)   upper
//
// It is strictly increasing whenever lower < nominal < upper.
var ocvKnotsSoC = [...]float64{0, 0.1, 0.5, 0.9, 1}

func (p CellProfile) ocvKnots() [5]float64 {
	lo, nom, hi := p.LowerCutoffV, p.NominalVoltage, p.UpperCutoffV
	return [5]float64{
		lo,
		lo + 0.6*(nom-lo),
		nom,
		nom + 0.6*(hi-nom),
		hi,
	}
}

// OCV returns the open-circuit voltage at soc. soc outside [0,1] is clamped.
func (p CellProfile) OCV(soc float64) float64 {
	soc = Clamp01(soc)
	v := p.ocvKnots()
	for i := 1; i < len(ocvKnotsSoC); i++ {
		if soc <= ocvKnotsSoC[i] {
			s0, s1 := ocvKnotsSoC[i-1], ocvKnotsSoC[i]
			return v[i-1] + (v[i]-v[i-1])*(soc-s0)/(s1-s0)
		}
	}
	return v[len(v)-1]
}

// OCVSegment returns the linear piece of the curve that holds soc, as its
// bounds [lo, hi] and the line ocv = intercept + slope*soc. On a knot, dir
// picks the piece above (dir > 0) or below (dir < 0).
func (p CellProfile) OCVSegment(soc, dir float64) (lo, hi, intercept, slope float64) {
	soc = Clamp01(soc)
	v := p.ocvKnots()
	i := 1
	for ; i < len(ocvKnotsSoC)-1; i++ {
		if soc < ocvKnotsSoC[i] || (soc == ocvKnotsSoC[i] && dir < 0) {
			break
		}
	}
	lo, hi = ocvKnotsSoC[i-1], ocvKnotsSoC[i]
	slope = (v[i] - v[i-1]) / (hi - lo)
	intercept = v[i-1] - slope*lo
	return lo, hi, intercept, slope
}

// InverseOCV returns the state of charge whose open-circuit voltage is v,
// clamped to [0,1].
func (p CellProfile) InverseOCV(v float64) float64 {
	k := p.ocvKnots()
	if v <= k[0] {
		return 0
	}
	for i := 1; i < len(k); i++ {
		if v <= k[i] {
			s0, s1 := ocvKnotsSoC[i-1], ocvKnotsSoC[i]
			return s0 + (s1-s0)*(v-k[i-1])/(k[i]-k[i-1])
		}
	}
	return 1
}

func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
