package exif

import (
	"math"
	"math/big"
)

// Rational is the EXIF unsigned rational field: numerator over denominator.
type Rational struct {
	Num uint32 `json:"num"`
	Den uint32 `json:"den"`
}

// Float returns the value the rational encodes.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// SecondsDenominator bounds the seconds slot of a DMS angle, giving
// sub-second coordinate precision in the encoded tag.
const SecondsDenominator = 1_000_000

// ToRational converts a finite value to the closest rational with
// denominator <= maxDen, by continued-fraction best approximation. The sign
// is carried on the numerator. Deterministic for all finite inputs.
func ToRational(v float64, maxDen int64) (num, den int64) {
	if maxDen < 1 {
		maxDen = 1
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, 1
	}

	neg := v < 0
	num, den = limitDenominator(math.Abs(v), maxDen)
	if neg {
		num = -num
	}
	return num, den
}

// limitDenominator finds the best rational approximation of x >= 0 with
// denominator <= maxDen. Works on the exact binary expansion of x so the
// result never depends on rounding order.
func limitDenominator(x float64, maxDen int64) (int64, int64) {
	r := new(big.Rat).SetFloat64(x)
	maxD := big.NewInt(maxDen)

	// Exactly representable within the bound: nothing to approximate.
	if r.Denom().Cmp(maxD) <= 0 && r.Num().IsInt64() {
		return r.Num().Int64(), r.Denom().Int64()
	}

	// Walk the continued-fraction convergents p/q until the next
	// denominator would exceed the bound.
	n := new(big.Int).Set(r.Num())
	d := new(big.Int).Set(r.Denom())
	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	a, t := new(big.Int), new(big.Int)

	for d.Sign() != 0 {
		a.Quo(n, d)
		q2 := new(big.Int).Add(q0, t.Mul(a, q1))
		if q2.Cmp(maxD) > 0 {
			break
		}
		p2 := new(big.Int).Add(p0, new(big.Int).Mul(a, p1))
		p0, q0, p1, q1 = p1, q1, p2, q2

		rem := new(big.Int).Sub(n, new(big.Int).Mul(a, d))
		n, d = d, rem
	}

	// The answer is either the last convergent p1/q1 or the best
	// semiconvergent under the bound; take whichever lies closer to x.
	k := new(big.Int).Quo(new(big.Int).Sub(maxD, q0), q1)
	sn := new(big.Int).Add(p0, new(big.Int).Mul(k, p1))
	sd := new(big.Int).Add(q0, new(big.Int).Mul(k, q1))

	conv := new(big.Rat).SetFrac(p1, q1)
	semi := new(big.Rat).SetFrac(sn, sd)
	dc := new(big.Rat).Sub(conv, r)
	dc.Abs(dc)
	ds := new(big.Rat).Sub(semi, r)
	ds.Abs(ds)

	if dc.Cmp(ds) <= 0 {
		return p1.Int64(), q1.Int64()
	}
	return sn.Int64(), sd.Int64()
}

// rat is ToRational on an absolute value, packed into the EXIF field type.
func rat(v float64, maxDen int64) Rational {
	n, d := ToRational(math.Abs(v), maxDen)
	return Rational{Num: uint32(n), Den: uint32(d)}
}

// DegreesToDMS decomposes the absolute value of a decimal-degree angle into
// whole degrees, whole minutes, and fractional seconds. Hemisphere is never
// encoded here; callers pick the reference letter from the original sign.
func DegreesToDMS(decimalDegrees float64) (deg, min, sec Rational) {
	dd := math.Abs(decimalDegrees)
	d := math.Floor(dd)
	mf := (dd - d) * 60
	m := math.Floor(mf)
	s := (mf - m) * 60
	return rat(d, 1), rat(m, 1), rat(s, SecondsDenominator)
}
