package sqlite

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/banshee-data/voxel.carve/internal/geometry"
	"github.com/banshee-data/voxel.carve/internal/voxelgrid"
)

const blobVersion = 1

// voxelBlob is the gob wire form of a voxel collection. Indices and colors
// are flattened xyz / rgb triples in collection order.
type voxelBlob struct {
	Version int
	Indices []int64
	Colors  []float64
}

// encoder and decoder are shared; EncodeAll and DecodeAll are safe for
// concurrent use.
var (
	encoder = must(zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)))
	decoder = must(zstd.NewReader(nil))
)

// must panics at init if a codec cannot be built. With a nil stream and
// static options that only happens on an invalid option.
func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("zstd codec: %v", err))
	}
	return v
}

// encodeVoxels serialises the grid's voxels.
func encodeVoxels(g *voxelgrid.VoxelGrid) ([]byte, error) {
	voxels := g.Voxels()
	b := voxelBlob{
		Version: blobVersion,
		Indices: make([]int64, 0, 3*len(voxels)),
		Colors:  make([]float64, 0, 3*len(voxels)),
	}
	for _, v := range voxels {
		b.Indices = append(b.Indices, int64(v.GridIndex[0]), int64(v.GridIndex[1]), int64(v.GridIndex[2]))
		b.Colors = append(b.Colors, v.Color.R, v.Color.G, v.Color.B)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&b); err != nil {
		return nil, fmt.Errorf("encode voxels: %w", err)
	}
	return encoder.EncodeAll(buf.Bytes(), nil), nil
}

// decodeVoxels rebuilds a grid from a blob.
func decodeVoxels(data []byte, voxelSize float64, origin [3]float64) (*voxelgrid.VoxelGrid, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress voxels: %w", err)
	}
	var b voxelBlob
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode voxels: %w", err)
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("unsupported voxel blob version %d", b.Version)
	}
	if len(b.Indices)%3 != 0 || len(b.Indices) != len(b.Colors) {
		return nil, fmt.Errorf("corrupt voxel blob: %d index and %d color values", len(b.Indices), len(b.Colors))
	}

	g, err := voxelgrid.New(voxelSize, toVec(origin))
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(b.Indices); i += 3 {
		v := voxelgrid.Voxel{
			GridIndex: geometry.GridIndex{int(b.Indices[i]), int(b.Indices[i+1]), int(b.Indices[i+2])},
			Color:     geometry.Color{R: b.Colors[i], G: b.Colors[i+1], B: b.Colors[i+2]},
		}
		added, err := g.AddVoxel(v)
		if err != nil {
			return nil, err
		}
		if !added {
			return nil, fmt.Errorf("corrupt voxel blob: duplicate index %v", v.GridIndex)
		}
	}
	return g, nil
}
