package regrid

import (
	"fmt"
	"math"
	"strings"
)

// A DataLocation is a coordinate in a grid's pixel space, one value per
// axis. A location with any NaN component is invalid, the normal "no
// data here" signal. Methods that return a new location never alias the
// receiver; mutating methods are not safe for concurrent use.
type DataLocation []float64

// NewDataLocation returns a zero location of the given rank.
func NewDataLocation(rank int) DataLocation {
	return make(DataLocation, rank)
}

// Loc2 returns a 2D location at (row, col).
func Loc2(row, col float64) DataLocation {
	return DataLocation{row, col}
}

// InvalidLocation returns an invalid location of the given rank.
func InvalidLocation(rank int) DataLocation {
	loc := make(DataLocation, rank)
	loc.MarkInvalid()
	return loc
}

// Clone returns an independent copy of loc.
func (loc DataLocation) Clone() DataLocation {
	clone := make(DataLocation, len(loc))
	copy(clone, loc)
	return clone
}

// Valid reports whether no component of loc is NaN.
func (loc DataLocation) Valid() bool {
	for _, c := range loc {
		if math.IsNaN(c) {
			return false
		}
	}
	return true
}

// Invalid reports whether any component of loc is NaN.
func (loc DataLocation) Invalid() bool { return !loc.Valid() }

// MarkInvalid sets every component of loc to NaN.
func (loc DataLocation) MarkInvalid() {
	for i := range loc {
		loc[i] = math.NaN()
	}
}

// Round returns loc with each component rounded to the nearest integer.
func (loc DataLocation) Round() DataLocation {
	rounded := make(DataLocation, len(loc))
	for i, c := range loc {
		rounded[i] = math.Round(c)
	}
	return rounded
}

// Floor returns loc with each component rounded down.
func (loc DataLocation) Floor() DataLocation {
	floored := make(DataLocation, len(loc))
	for i, c := range loc {
		floored[i] = math.Floor(c)
	}
	return floored
}

// Ceil returns loc with each component rounded up.
func (loc DataLocation) Ceil() DataLocation {
	ceiled := make(DataLocation, len(loc))
	for i, c := range loc {
		ceiled[i] = math.Ceil(c)
	}
	return ceiled
}

// Contained reports whether min[i] <= loc[i] <= max[i] for every axis.
// Locations of mismatched rank or with NaN components are never
// contained.
func (loc DataLocation) Contained(min, max DataLocation) bool {
	if len(min) != len(loc) || len(max) != len(loc) {
		return false
	}
	for i, c := range loc {
		if !(c >= min[i] && c <= max[i]) {
			return false
		}
	}
	return true
}

// ContainedIn reports whether loc is within [0, dims[i]-1] on every
// axis. Locations with NaN components are never contained.
func (loc DataLocation) ContainedIn(dims []int) bool {
	if len(dims) != len(loc) {
		return false
	}
	for i, c := range loc {
		if !(c >= 0 && c <= float64(dims[i]-1)) {
			return false
		}
	}
	return true
}

// Truncate returns loc with each component clamped to [0, dims[i]-1].
func (loc DataLocation) Truncate(dims []int) DataLocation {
	truncated := loc.Clone()
	for i := range truncated {
		if truncated[i] < 0 {
			truncated[i] = 0
		} else if truncated[i] > float64(dims[i]-1) {
			truncated[i] = float64(dims[i] - 1)
		}
	}
	return truncated
}

// Index returns the row-major flat index of loc rounded to the nearest
// integer coordinate, or -1 if the rounded location is outside dims.
func (loc DataLocation) Index(dims []int) int {
	rounded := loc.Round()
	if !rounded.ContainedIn(dims) {
		return -1
	}
	multiplier := 1
	index := 0
	for i := len(dims) - 1; i >= 0; i-- {
		index += int(rounded[i]) * multiplier
		multiplier *= dims[i]
	}
	return index
}

// LocationFromIndex returns the location for a row-major flat index
// within dims.
func LocationFromIndex(index int, dims []int) DataLocation {
	rank := len(dims)
	loc := make(DataLocation, rank)
	divisor := 1
	for i := rank - 1; i > 0; i-- {
		divisor *= dims[i]
	}
	for i := range rank {
		coord := index / divisor
		loc[i] = float64(coord)
		index -= coord * divisor
		if i != rank-1 {
			divisor /= dims[i+1]
		}
	}
	return loc
}

// Translate returns loc with delta added per axis. A delta of
// mismatched rank returns a clone unchanged.
func (loc DataLocation) Translate(delta ...float64) DataLocation {
	translated := loc.Clone()
	if len(delta) != len(loc) {
		return translated
	}
	for i := range translated {
		translated[i] += delta[i]
	}
	return translated
}

// Increment advances loc by stride within the window [start, end],
// last axis fastest, resetting exhausted axes to start. It reports
// false when the window is exhausted. Together with a start location
// this enumerates a subsampled window in row-major order.
func (loc DataLocation) Increment(stride []int, start, end DataLocation) bool {
	i := len(loc) - 1
	for i >= 0 && loc[i]+float64(stride[i]) > end[i] {
		loc[i] = start[i]
		i--
	}
	if i < 0 {
		return false
	}
	loc[i] += float64(stride[i])
	return true
}

func (loc DataLocation) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range loc {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%g", c)
	}
	sb.WriteByte(']')
	return sb.String()
}
