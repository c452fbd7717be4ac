package geom

// Frame is a rotation around an origin.
type Frame struct {
	Angle  float64
	Origin Vec
}

// Frames is a cumulative rotation stack. Frames apply in push order.
type Frames []Frame

// Push appends a rotation. The origin is given in the unrotated space, so it
// is first carried through every frame already on the stack.
func (fs Frames) Push(angle float64, origin Vec) Frames {
	for _, f := range fs {
		origin = origin.RotateAround(f.Angle, f.Origin)
	}
	return append(fs, Frame{Angle: angle, Origin: origin})
}

// Apply carries a point through every frame in order.
func (fs Frames) Apply(p Point) Point {
	for _, f := range fs {
		p = p.Rotate(f.Angle, f.Origin, true)
	}
	return p
}

// Compose folds the stack into a single rigid transform.
func (fs Frames) Compose() Transform {
	t := Identity()
	for _, f := range fs {
		t = RotationAround(f.Angle, f.Origin).After(t)
	}
	return t
}

// Transform is a rigid motion: rotate by Angle around the origin, then
// translate by Offset.
type Transform struct {
	Angle  float64
	Offset Vec
}

// Identity returns the transform that changes nothing.
func Identity() Transform { return Transform{} }

// RotationAround returns the transform rotating by angle around origin.
func RotationAround(angle float64, origin Vec) Transform {
	return Transform{Angle: angle, Offset: origin.Sub(origin.Rotate(angle))}
}

// Apply maps a position.
func (t Transform) Apply(v Vec) Vec {
	return v.Rotate(t.Angle).Add(t.Offset)
}

// ApplyPoint maps a position and adds the rotation to the orientation.
func (t Transform) ApplyPoint(p Point) Point {
	pos := t.Apply(p.Pos())
	p.X, p.Y = pos.X, pos.Y
	p.R += t.Angle
	return p
}

// After returns the transform equivalent to applying u first, then t.
func (t Transform) After(u Transform) Transform {
	return Transform{
		Angle:  t.Angle + u.Angle,
		Offset: u.Offset.Rotate(t.Angle).Add(t.Offset),
	}
}
