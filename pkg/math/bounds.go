package math

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// BoundsOf returns the bounding box of points. The zero Bounds is returned
// for an empty slice.
func BoundsOf(points []Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}

// Extend returns b grown to contain p.
func (b Bounds) Extend(p Vec3) Bounds {
	return Bounds{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Size returns the extent along each axis.
func (b Bounds) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside or on the box.
func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
