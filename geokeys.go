package regrid

import (
	"errors"
	"fmt"
)

var errGeoKeys = errors.New("malformed geo key directory")

// A GeoKey identifies a GeoTIFF geo key.
type GeoKey uint16

const (
	GeoKeyGTModelType  GeoKey = 1024
	GeoKeyGTRasterType GeoKey = 1025
	GeoKeyGTCitation   GeoKey = 1026

	GeoKeyGeodeticCRS   GeoKey = 2048
	GeoKeyGeogCitation  GeoKey = 2049
	GeoKeyGeodeticDatum GeoKey = 2050
	GeoKeyAngularUnits  GeoKey = 2054
	GeoKeyEllipsoid     GeoKey = 2056

	GeoKeyProjectedCRS GeoKey = 3072
	GeoKeyPCSCitation  GeoKey = 3073
	GeoKeyProjection   GeoKey = 3074
	GeoKeyProjMethod   GeoKey = 3075
	GeoKeyLinearUnits  GeoKey = 3076

	GeoKeyVertical      GeoKey = 4096
	GeoKeyVerticalUnits GeoKey = 4099
)

const (
	modelTypeProjected  = 1
	modelTypeGeographic = 2
	undefinedCode       = 0
	userDefinedCode     = 32767
)

// ParsedGeoKeys holds the geo keys of a GeoTIFF file, split by value
// type.
type ParsedGeoKeys struct {
	Params       map[GeoKey]int
	DoubleParams map[GeoKey]float64
	ASCIIParams  map[GeoKey]string
}

// Companion tags that geo key entries may store their values in.
const (
	tagGeoDoubleParams = 34736
	tagGeoASCIIParams  = 34737
)

// geoKeyCount validates the four entry directory header and returns
// the number of key entries that follow it.
func geoKeyCount(directory []uint16) (int, error) {
	if len(directory) < 4 {
		return 0, errGeoKeys
	}
	version, revision, minor := directory[0], directory[1], directory[2]
	if version != 1 || revision != 1 || minor > 1 {
		return 0, errGeoKeys
	}
	count := int(directory[3])
	if len(directory) != 4+4*count {
		return 0, errGeoKeys
	}
	return count, nil
}

// ParseGeoKeys parses a GeoKeyDirectoryTag and its companion double
// and ASCII parameter tags. Entries whose value offsets fall outside
// the companion tags are malformed.
func ParseGeoKeys(directory []uint16, doubleParams []float64, asciiParams []byte) (*ParsedGeoKeys, error) {
	count, err := geoKeyCount(directory)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedGeoKeys{
		Params:       make(map[GeoKey]int),
		DoubleParams: make(map[GeoKey]float64),
		ASCIIParams:  make(map[GeoKey]string),
	}
	for i := range count {
		entry := directory[4+4*i:]
		key := GeoKey(entry[0])
		values := int(entry[2])
		offset := int(entry[3])
		switch location := entry[1]; location {
		case 0:
			if values != 1 {
				return nil, errGeoKeys
			}
			parsed.Params[key] = offset
		case tagGeoDoubleParams:
			if values != 1 || offset >= len(doubleParams) {
				return nil, errGeoKeys
			}
			parsed.DoubleParams[key] = doubleParams[offset]
		case tagGeoASCIIParams:
			if offset+values > len(asciiParams) {
				return nil, errGeoKeys
			}
			parsed.ASCIIParams[key] = string(asciiParams[offset : offset+values])
		default:
			return nil, errors.ErrUnsupported
		}
	}
	return parsed, nil
}

// CRS returns the EPSG coordinate reference system declared by the
// geo keys, in "EPSG:n" form. Projected files report their projected
// CRS, geographic files their geodetic CRS. User-defined and missing
// codes return an error.
func (p *ParsedGeoKeys) CRS() (string, error) {
	var key GeoKey
	switch modelType := p.Params[GeoKeyGTModelType]; modelType {
	case modelTypeProjected:
		key = GeoKeyProjectedCRS
	case modelTypeGeographic:
		key = GeoKeyGeodeticCRS
	default:
		return "", fmt.Errorf("unsupported model type %d", modelType)
	}
	code, ok := p.Params[key]
	if !ok || code == undefinedCode || code == userDefinedCode {
		return "", errors.New("no EPSG code in geo keys")
	}
	return fmt.Sprintf("EPSG:%d", code), nil
}
