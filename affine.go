package regrid

// An Affine is a 2D affine transform over (row, col) coordinates,
// stored as [c0, r0, c1, c2, r1, r2] so that
//
//	row' = c0 + r0*row + c1*col
//	col' = c2 + r1*row + r2*col
//
// following the GDAL geotransform layout with offsets first. Affines
// serve as navigation corrections on grids and as the pixel-to-map
// mapping of projection-backed transforms.
type Affine [6]float64

// NewAffine returns the affine with the given coefficients.
func NewAffine(a, b, c, d, e, f float64) *Affine {
	affine := Affine{a, b, c, d, e, f}
	return &affine
}

// IdentityAffine returns the identity transform.
func IdentityAffine() *Affine {
	return NewAffine(0, 1, 0, 0, 0, 1)
}

// TranslationAffine returns a transform that adds (dRow, dCol).
func TranslationAffine(dRow, dCol float64) *Affine {
	return NewAffine(dRow, 1, 0, dCol, 0, 1)
}

// ScaleAffine returns a transform that scales by (sRow, sCol).
func ScaleAffine(sRow, sCol float64) *Affine {
	return NewAffine(0, sRow, 0, 0, 0, sCol)
}

// IsIdentity reports whether a is nil or the identity transform.
func (a *Affine) IsIdentity() bool {
	return a == nil || *a == Affine{0, 1, 0, 0, 0, 1}
}

// Apply transforms (row, col).
func (a *Affine) Apply(row, col float64) (float64, float64) {
	return a[0] + a[1]*row + a[2]*col, a[3] + a[4]*row + a[5]*col
}

// Transform returns loc transformed by a. Locations that are not 2D
// are returned as an unchanged clone.
func (a *Affine) Transform(loc DataLocation) DataLocation {
	if len(loc) != 2 {
		return loc.Clone()
	}
	row, col := a.Apply(loc[Rows], loc[Cols])
	return Loc2(row, col)
}

// TransformInPlace transforms a 2D loc in place.
func (a *Affine) TransformInPlace(loc DataLocation) {
	if len(loc) != 2 {
		return
	}
	loc[Rows], loc[Cols] = a.Apply(loc[Rows], loc[Cols])
}

// Invertible reports whether a has an inverse.
func (a *Affine) Invertible() bool {
	return a[1]*a[5]-a[2]*a[4] != 0
}

// Inverse returns the inverse transform. Inverse panics if a is not
// invertible.
func (a *Affine) Inverse() *Affine {
	det := a[1]*a[5] - a[2]*a[4]
	if det == 0 {
		panic("regrid: affine is not invertible")
	}
	inv := Affine{0, a[5] / det, -a[2] / det, 0, -a[4] / det, a[1] / det}
	inv[0], inv[3] = inv.Apply(-a[0], -a[3])
	return &inv
}
