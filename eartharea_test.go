package regrid_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

func TestEarthArea_AddRemove(t *testing.T) {
	area := regrid.NewEarthArea()
	assert.True(t, area.IsEmpty())

	loc := regrid.NewEarthLocation(45.5, -123.5)
	area.Add(loc)
	assert.True(t, area.Contains(loc))
	assert.True(t, area.ContainsSquare(45, -124))
	assert.False(t, area.Contains(regrid.NewEarthLocation(46.5, -123.5)))
	assert.Equal(t, 1, area.Len())

	area.Remove(loc)
	assert.True(t, area.IsEmpty())
}

func TestEarthArea_AddAll(t *testing.T) {
	area := regrid.NewEarthArea()
	area.AddAll()
	assert.Equal(t, 360*180, area.Len())
	assert.True(t, area.Contains(regrid.NewEarthLocation(-89.5, 179.5)))
}

func TestEarthArea_SetOperations(t *testing.T) {
	a := regrid.NewEarthArea()
	a.Add(regrid.NewEarthLocation(10.5, 10.5))
	a.Add(regrid.NewEarthLocation(11.5, 10.5))

	b := regrid.NewEarthArea()
	b.Add(regrid.NewEarthLocation(11.5, 10.5))
	b.Add(regrid.NewEarthLocation(12.5, 10.5))

	inter := a.Intersection(b)
	assert.Equal(t, 1, inter.Len())
	assert.True(t, inter.Contains(regrid.NewEarthLocation(11.5, 10.5)))

	union := a.Union(b)
	assert.Equal(t, 3, union.Len())

	clone := a.Clone()
	assert.True(t, clone.Equal(a))
	clone.Add(regrid.NewEarthLocation(50.5, 50.5))
	assert.False(t, clone.Equal(a))
	assert.Equal(t, 2, a.Len())
}

func TestEarthArea_Expand(t *testing.T) {
	area := regrid.NewEarthArea()
	area.Add(regrid.NewEarthLocation(20.5, 30.5))
	area.Expand()
	assert.Equal(t, 9, area.Len())
	for lat := 19; lat <= 21; lat++ {
		for lon := 29; lon <= 31; lon++ {
			assert.True(t, area.ContainsSquare(lat, lon))
		}
	}
}

func TestEarthArea_Squares(t *testing.T) {
	area := regrid.NewEarthArea()
	area.Add(regrid.NewEarthLocation(-0.5, 0.5))
	area.Add(regrid.NewEarthLocation(0.5, 0.5))

	count := 0
	for s := range area.Squares() {
		assert.True(t, area.ContainsSquare(s[0], s[1]))
		count++
	}
	assert.Equal(t, 2, count)
}

func TestExploreEarthArea(t *testing.T) {
	// A 30x30 grid of one degree cells from 39.5N 0.5E southeast.
	trans := linearGrid(t, 30, 30, 39.5, 0.5, 1)

	area, err := regrid.ExploreEarthArea(trans, regrid.Loc2(0, 0), regrid.Loc2(29, 29))
	assert.NoError(t, err)

	// Thirty squares per axis explored, then expanded by one ring.
	assert.Equal(t, 32*32, area.Len())

	north, south, east, west := area.Extremes()
	assert.Equal(t, 41, north)
	assert.Equal(t, 9, south)
	assert.Equal(t, 31, east)
	assert.Equal(t, -1, west)
}

func TestEarthArea_ExploreInvalidStart(t *testing.T) {
	trans := linearGrid(t, 30, 30, 39.5, 0.5, 1)

	area := regrid.NewEarthArea()
	area.Explore(trans, regrid.Loc2(0, 0), regrid.Loc2(29, 29), regrid.InvalidEarthLocation())
	assert.Equal(t, 0, area.Len())
}

func TestExploreEarthArea_NoStart(t *testing.T) {
	_, err := regrid.ExploreEarthArea(nowhereTransform{}, regrid.Loc2(0, 0), regrid.Loc2(7, 7))
	assert.IsError(t, err, regrid.ErrNoAreaStart)
}

func TestEarthArea_ExtremesAntimeridian(t *testing.T) {
	area := regrid.NewEarthArea()
	area.Add(regrid.NewEarthLocation(0.5, 179.5))
	area.Add(regrid.NewEarthLocation(0.5, -179.5))

	north, south, east, west := area.Extremes()
	assert.Equal(t, 1, north)
	assert.Equal(t, 0, south)
	assert.Equal(t, 181, east)
	assert.Equal(t, 179, west)
}

func TestEarthArea_ExtremesEmpty(t *testing.T) {
	north, south, east, west := regrid.NewEarthArea().Extremes()
	assert.Equal(t, 0, north)
	assert.Equal(t, 0, south)
	assert.Equal(t, 0, east)
	assert.Equal(t, 0, west)
}
