package regrid

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"github.com/maypok86/otter/v2"
	"golang.org/x/image/tiff/lzw"
)

const gridNoDataBits = 0xff7fffff

var (
	errShortRead = errors.New("short read")
	gridNoData   = math.Float32frombits(gridNoDataBits)
)

// A GeoTIFFGrid is a read-only source Grid backed by a tiled,
// LZW-compressed, single-band float32 GeoTIFF file. Tiles are
// decompressed on demand and held in a bounded cache, so grids much
// larger than memory can serve as resampling sources. No-data pixels
// read as NaN.
type GeoTIFFGrid struct {
	file                      *os.File
	rows                      int
	cols                      int
	tileWidth                 int
	tileLength                int
	tilesAcross               int
	tileOffsets               []uint64
	tileByteCounts            []uint64
	smallestTileByteCount     uint64
	tileSampleCount           int
	tileByteCountUncompressed int
	tileCacheSizeBytes        int
	tileCache                 *otter.Cache[gridTileCoord, []float32]
	emptyTileBytes            []byte
	georef                    *Affine
	nav                       *Affine
	crs                       string
}

type gridTileCoord struct {
	r, c int
}

// A GeoTIFFGridOption sets an option on a GeoTIFFGrid.
type GeoTIFFGridOption func(*GeoTIFFGrid)

// WithTileCacheSize sets the decompressed tile cache size in bytes.
// The default is 128MB.
func WithTileCacheSize(tileCacheSize int) GeoTIFFGridOption {
	return func(g *GeoTIFFGrid) {
		g.tileCacheSizeBytes = tileCacheSize
	}
}

// WithGridNavigation sets the grid's navigation correction.
func WithGridNavigation(nav *Affine) GeoTIFFGridOption {
	return func(g *GeoTIFFGrid) {
		g.nav = nav
	}
}

// A geoTIFFIFD is a struct into which github.com/google/tiff can
// unmarshal an IFD.
type geoTIFFIFD struct {
	ImageWidth                uint16    `tiff:"field,tag=256"`
	ImageLength               uint16    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	TileLength                uint16    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag         string    `tiff:"field,tag=34737"`
	GDALMetadata              string    `tiff:"field,tag=42112"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

// NewGeoTIFFGrid opens the GeoTIFF file at filename in fsys.
func NewGeoTIFFGrid(fsys fs.FS, filename string, options ...GeoTIFFGridOption) (*GeoTIFFGrid, error) {
	var err error
	ok := false

	g := &GeoTIFFGrid{
		tileCacheSizeBytes: 128 << 20, // 128MB.
	}
	for _, option := range options {
		option(g)
	}

	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	osFile, isOSFile := file.(*os.File)
	if !isOSFile {
		_ = file.Close()
		return nil, errors.ErrUnsupported
	}
	g.file = osFile
	defer func() {
		if !ok {
			_ = g.file.Close()
		}
	}()

	tiffTIFF, err := tiff.Parse(g.file, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, err
	}

	if len(tiffTIFF.IFDs()) != 1 {
		return nil, fmt.Errorf("found %d IFDs, expected 1", len(tiffTIFF.IFDs()))
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, err
	}

	if ifd.BitsPerSample != 32 ||
		ifd.Compression != 5 ||
		ifd.PhotometricInterpretation != 1 ||
		ifd.SamplesPerPixel != 1 ||
		ifd.PlanarConfiguration != 1 ||
		ifd.Predictor != 1 ||
		ifd.SampleFormat != 3 ||
		len(ifd.ModelPixelScaleTag) != 3 || ifd.ModelPixelScaleTag[2] != 0 ||
		len(ifd.ModelTiepointTag) != 6 || ifd.ModelTiepointTag[5] != 0 {
		return nil, errors.ErrUnsupported
	}

	g.cols = int(ifd.ImageWidth)
	g.rows = int(ifd.ImageLength)
	g.tileWidth = int(ifd.TileWidth)
	g.tileLength = int(ifd.TileLength)
	g.tilesAcross = (g.cols + g.tileWidth - 1) / g.tileWidth
	tilesDown := (g.rows + g.tileLength - 1) / g.tileLength
	tilesPerImage := g.tilesAcross * tilesDown
	if len(ifd.TileByteCounts) != tilesPerImage || len(ifd.TileOffsets) != tilesPerImage {
		return nil, errors.New("incorrect number of tile byte counts or offsets")
	}
	g.tileOffsets = ifd.TileOffsets
	g.tileByteCounts = ifd.TileByteCounts
	g.smallestTileByteCount = ifd.TileByteCounts[0]
	for _, tileByteCount := range ifd.TileByteCounts[1:] {
		if tileByteCount < g.smallestTileByteCount {
			g.smallestTileByteCount = tileByteCount
		}
	}
	g.tileSampleCount = g.tileWidth * g.tileLength
	g.tileByteCountUncompressed = g.tileSampleCount * int(ifd.BitsPerSample) / 8

	tileCacheCount := max(g.tileCacheSizeBytes/g.tileByteCountUncompressed, 1)
	g.tileCache, err = otter.New(&otter.Options[gridTileCoord, []float32]{
		MaximumSize: tileCacheCount,
	})
	if err != nil {
		return nil, err
	}

	// The pixel scale and tiepoint tags give the affine from pixel
	// (row, col) to projected (x, y). Only a zero raster-space
	// tiepoint is supported.
	if i, j, k := ifd.ModelTiepointTag[0], ifd.ModelTiepointTag[1], ifd.ModelTiepointTag[2]; i != 0 || j != 0 || k != 0 {
		return nil, errors.ErrUnsupported
	}
	scaleX, scaleY := ifd.ModelPixelScaleTag[0], ifd.ModelPixelScaleTag[1]
	x, y := ifd.ModelTiepointTag[3], ifd.ModelTiepointTag[4]
	g.georef = NewAffine(x, 0, scaleX, y, -scaleY, 0)

	if len(ifd.GeoKeyDirectoryTag) != 0 {
		geoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
		if err != nil {
			return nil, err
		}
		if crs, err := geoKeys.CRS(); err == nil {
			g.crs = crs
		}
	}

	ok = true
	return g, nil
}

// Close closes the underlying file.
func (g *GeoTIFFGrid) Close() error {
	return g.file.Close()
}

// Dimensions returns the grid dimensions as [rows, cols].
func (g *GeoTIFFGrid) Dimensions() []int { return []int{g.rows, g.cols} }

// Navigation returns the grid's navigation correction, or nil for
// none.
func (g *GeoTIFFGrid) Navigation() *Affine { return g.nav }

// Georeference returns the affine mapping pixel (row, col) to
// projected (x, y), for use with NewProjTransform.
func (g *GeoTIFFGrid) Georeference() *Affine { return g.georef }

// CRS returns the file's coordinate reference system in "EPSG:n"
// form, or the empty string if the file does not declare one.
func (g *GeoTIFFGrid) CRS() string { return g.crs }

// Value returns the value at (row, col), or NaN if the coordinate is
// outside the grid, the pixel holds the no-data value, or the tile
// cannot be read.
func (g *GeoTIFFGrid) Value(row, col int) float64 {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return math.NaN()
	}
	coord := gridTileCoord{r: row / g.tileLength, c: col / g.tileWidth}
	tileSamples, err := g.tileCache.Get(context.Background(), coord,
		otter.LoaderFunc[gridTileCoord, []float32](g.loadTileSamples))
	if err != nil {
		return math.NaN()
	}
	sample := tileSamples[col%g.tileWidth+(row%g.tileLength)*g.tileWidth]
	if sample == gridNoData {
		return math.NaN()
	}
	return float64(sample)
}

// readCompressedTile returns the compressed tile data at coord. If
// the tile is known to be empty, it returns the error
// otter.ErrNotFound so the cache holds no entry for it.
func (g *GeoTIFFGrid) readCompressedTile(coord gridTileCoord) ([]byte, error) {
	tileIndex := coord.c + g.tilesAcross*coord.r
	tileByteCount := g.tileByteCounts[tileIndex]
	tileOffset := g.tileOffsets[tileIndex]
	compressedData := make([]byte, tileByteCount)
	switch n, err := g.file.ReadAt(compressedData, int64(tileOffset)); {
	case err != nil:
		return nil, err
	case n != int(tileByteCount):
		return nil, errShortRead
	case g.emptyTileBytes != nil && bytes.Equal(compressedData, g.emptyTileBytes):
		return nil, otter.ErrNotFound
	default:
		return compressedData, nil
	}
}

// decompressTile decompresses the LZW tile data in compressedData.
func (g *GeoTIFFGrid) decompressTile(compressedData []byte) ([]byte, error) {
	tileData := make([]byte, g.tileByteCountUncompressed)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	for bytesRead := 0; bytesRead < g.tileByteCountUncompressed; {
		n, err := r.Read(tileData[bytesRead:])
		if err != nil {
			return nil, err
		}
		bytesRead += n
	}
	return tileData, nil
}

// loadTileSamples reads, decompresses, and decodes the tile at coord.
func (g *GeoTIFFGrid) loadTileSamples(_ context.Context, coord gridTileCoord) ([]float32, error) {
	compressedData, err := g.readCompressedTile(coord)
	if err != nil {
		return nil, err
	}

	tileData, err := g.decompressTile(compressedData)
	if err != nil {
		return nil, err
	}
	tileSamples := make([]float32, g.tileSampleCount)
	for i := range g.tileSampleCount {
		b := binary.LittleEndian.Uint32(tileData[i*4 : (i+1)*4])
		tileSamples[i] = math.Float32frombits(b)
	}

	// If we do not know what an empty tile looks like compressed,
	// check whether this is one, and, if so, remember its bytes to
	// detect empty tiles before decompression. The empty tile is
	// assumed to be the smallest tile.
	if g.emptyTileBytes == nil && len(compressedData) == int(g.smallestTileByteCount) {
		isEmptyTile := true
		for _, sample := range tileSamples {
			if sample != gridNoData {
				isEmptyTile = false
				break
			}
		}
		if isEmptyTile {
			g.emptyTileBytes = compressedData
			return nil, otter.ErrNotFound
		}
	}

	return tileSamples, nil
}
