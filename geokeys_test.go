package regrid

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseGeoKeys(t *testing.T) {
	directory := []uint16{
		1, 1, 0, 5,
		uint16(GeoKeyGTModelType), 0, 1, modelTypeProjected,
		uint16(GeoKeyGTRasterType), 0, 1, 1,
		uint16(GeoKeyGTCitation), 34737, 4, 0,
		uint16(GeoKeyProjectedCRS), 0, 1, 3035,
		uint16(GeoKeyEllipsoid), 34736, 1, 1,
	}
	doubleParams := []float64{0, 6378137}
	asciiParams := []byte("ETRS|")

	parsed, err := ParseGeoKeys(directory, doubleParams, asciiParams)
	assert.NoError(t, err)
	assert.Equal(t, modelTypeProjected, parsed.Params[GeoKeyGTModelType])
	assert.Equal(t, 3035, parsed.Params[GeoKeyProjectedCRS])
	assert.Equal(t, 6378137, parsed.DoubleParams[GeoKeyEllipsoid])
	assert.Equal(t, "ETRS", parsed.ASCIIParams[GeoKeyGTCitation])

	crs, err := parsed.CRS()
	assert.NoError(t, err)
	assert.Equal(t, "EPSG:3035", crs)
}

func TestParseGeoKeys_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		directory []uint16
	}{
		{"TooShort", []uint16{1, 1, 0}},
		{"BadVersion", []uint16{2, 1, 0, 0}},
		{"BadRevision", []uint16{1, 2, 0, 0}},
		{"BadMinorRevision", []uint16{1, 1, 2, 0}},
		{"BadKeyCount", []uint16{1, 1, 0, 2, 1024, 0, 1, 1}},
		{"BadValueCount", []uint16{1, 1, 0, 1, 1024, 0, 2, 1}},
		{"DoubleOffsetOutOfRange", []uint16{1, 1, 0, 1, uint16(GeoKeyEllipsoid), 34736, 1, 5}},
		{"ASCIIOffsetOutOfRange", []uint16{1, 1, 0, 1, uint16(GeoKeyGTCitation), 34737, 4, 2}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseGeoKeys(test.directory, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestParsedGeoKeysCRS(t *testing.T) {
	geographic := []uint16{
		1, 1, 1, 2,
		uint16(GeoKeyGTModelType), 0, 1, modelTypeGeographic,
		uint16(GeoKeyGeodeticCRS), 0, 1, 4326,
	}
	parsed, err := ParseGeoKeys(geographic, nil, nil)
	assert.NoError(t, err)
	crs, err := parsed.CRS()
	assert.NoError(t, err)
	assert.Equal(t, "EPSG:4326", crs)

	userDefined := []uint16{
		1, 1, 0, 2,
		uint16(GeoKeyGTModelType), 0, 1, modelTypeProjected,
		uint16(GeoKeyProjectedCRS), 0, 1, userDefinedCode,
	}
	parsed, err = ParseGeoKeys(userDefined, nil, nil)
	assert.NoError(t, err)
	_, err = parsed.CRS()
	assert.Error(t, err)

	noModelType := []uint16{1, 1, 0, 0}
	parsed, err = ParseGeoKeys(noModelType, nil, nil)
	assert.NoError(t, err)
	_, err = parsed.CRS()
	assert.Error(t, err)
}
