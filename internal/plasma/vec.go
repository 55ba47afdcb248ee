package plasma

import "math"

type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a Vec3) Scale(f float64) Vec3 {
	return Vec3{a[0] * f, a[1] * f, a[2] * f}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vec3) Norm2() float64 {
	return a.Dot(a)
}

func (a Vec3) Norm() float64 {
	return math.Sqrt(a.Norm2())
}

func (a Vec3) IsValid() bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CloneVecs returns an independent copy of vs.
func CloneVecs(vs []Vec3) []Vec3 {
	c := make([]Vec3, len(vs))
	copy(c, vs)
	return c
}

// ValidVecs reports the first index holding NaN or Inf, or -1.
func ValidVecs(vs []Vec3) int {
	for i, v := range vs {
		if !v.IsValid() {
			return i
		}
	}
	return -1
}
