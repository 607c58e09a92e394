package regrid_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

func TestAffine_Apply(t *testing.T) {
	a := regrid.NewAffine(1, 2, 0, -1, 0, 3)
	row, col := a.Apply(2, 3)
	assert.Equal(t, 5.0, row)
	assert.Equal(t, 8.0, col)

	assert.Equal(t, regrid.Loc2(5, 8), a.Transform(regrid.Loc2(2, 3)))

	loc := regrid.Loc2(2, 3)
	a.TransformInPlace(loc)
	assert.Equal(t, regrid.Loc2(5, 8), loc)
}

func TestAffine_Identity(t *testing.T) {
	assert.True(t, regrid.IdentityAffine().IsIdentity())
	assert.True(t, (*regrid.Affine)(nil).IsIdentity())
	assert.False(t, regrid.TranslationAffine(1, 0).IsIdentity())
	assert.False(t, regrid.ScaleAffine(2, 2).IsIdentity())
}

func TestAffine_Inverse(t *testing.T) {
	a := regrid.NewAffine(3, 0.5, -1, -2, 2, 0.25)
	assert.True(t, a.Invertible())

	inv := a.Inverse()
	row, col := a.Apply(4, -7)
	backRow, backCol := inv.Apply(row, col)
	assertNear(t, 4, backRow, 1e-12)
	assertNear(t, -7, backCol, 1e-12)

	singular := regrid.NewAffine(0, 1, 2, 0, 2, 4)
	assert.False(t, singular.Invertible())
	assert.Panics(t, func() { singular.Inverse() })
}
