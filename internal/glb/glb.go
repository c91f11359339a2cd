// Package glb serializes simplified meshes into a binary glTF 2.0 (.glb)
// container. Each mesh becomes one node and one mesh with a single
// primitive; tube meshes are indexed triangle lists, wire meshes are
// non-indexed point clouds.
package glb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/nobisoft/dxf2glb/internal/mesh"
	"github.com/nobisoft/dxf2glb/internal/version"
)

// ErrNoMeshes is returned when there is nothing to export.
var ErrNoMeshes = errors.New("glb: no meshes to export")

const (
	headerMagic = 0x46546C67 // "glTF"
	gltfVersion = 2

	chunkJSON = 0x4E4F534A // "JSON"
	chunkBIN  = 0x004E4942 // "BIN\0"

	componentFloat  = 5126
	componentUint32 = 5125

	targetArrayBuffer        = 34962
	targetElementArrayBuffer = 34963

	modePoints    = 0
	modeTriangles = 4
)

// The JSON chunk mirrors the glTF 2.0 schema, trimmed to the fields this
// exporter emits.

type document struct {
	Asset       asset        `json:"asset"`
	Scene       int          `json:"scene"`
	Scenes      []scene      `json:"scenes"`
	Nodes       []node       `json:"nodes"`
	Meshes      []meshDef    `json:"meshes"`
	Accessors   []accessor   `json:"accessors"`
	BufferViews []bufferView `json:"bufferViews"`
	Buffers     []buffer     `json:"buffers"`
}

type asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type scene struct {
	Nodes []int `json:"nodes"`
}

type node struct {
	Name string `json:"name,omitempty"`
	Mesh int    `json:"mesh"`
}

type meshDef struct {
	Name       string      `json:"name,omitempty"`
	Primitives []primitive `json:"primitives"`
}

type primitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Mode       int            `json:"mode"`
}

type accessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

type bufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target,omitempty"`
}

type buffer struct {
	ByteLength int `json:"byteLength"`
}

// Write serializes the meshes as a GLB stream. Meshes with no vertices are
// skipped; if none remain, ErrNoMeshes is returned.
func Write(w io.Writer, meshes []*mesh.Mesh) error {
	doc := document{
		Asset:  asset{Version: "2.0", Generator: "dxf2glb " + version.Version},
		Scene:  0,
		Scenes: []scene{{}},
	}
	var bin bytes.Buffer

	for _, m := range meshes {
		if m == nil || m.VertexCount() == 0 {
			continue
		}
		if err := appendMesh(&doc, &bin, m); err != nil {
			return fmt.Errorf("glb: mesh %q: %w", m.Name, err)
		}
	}
	if len(doc.Meshes) == 0 {
		return ErrNoMeshes
	}
	doc.Buffers = []buffer{{ByteLength: bin.Len()}}

	jsonChunk, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("glb: encode document: %w", err)
	}
	// The JSON chunk is padded with spaces, the BIN chunk with zeros, both
	// to 4-byte boundaries.
	jsonChunk = pad(jsonChunk, ' ')
	binChunk := pad(bin.Bytes(), 0)

	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)

	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:], headerMagic)
	binary.LittleEndian.PutUint32(header[4:], gltfVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(total))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("glb: write header: %w", err)
	}
	if err := writeChunk(w, chunkJSON, jsonChunk); err != nil {
		return err
	}
	return writeChunk(w, chunkBIN, binChunk)
}

// Export writes the meshes to a .glb file.
func Export(path string, meshes []*mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("glb: create %s: %w", path, err)
	}
	if err := Write(f, meshes); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("glb: close %s: %w", path, err)
	}
	return nil
}

// appendMesh encodes one mesh's vertex and index data into the binary
// buffer and registers the matching accessors, buffer views, mesh, and
// node in the document.
func appendMesh(doc *document, bin *bytes.Buffer, m *mesh.Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}

	minV := []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	maxV := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	positions := make([]float32, 0, 3*len(m.Vertices))
	for _, v := range m.Vertices {
		for i, c := range []float64{v.X, v.Y, v.Z} {
			minV[i] = math.Min(minV[i], c)
			maxV[i] = math.Max(maxV[i], c)
		}
		positions = append(positions, float32(v.X), float32(v.Y), float32(v.Z))
	}
	// float32 truncation can push a coordinate outside the float64 bounds,
	// so the accessor min/max are recomputed on the encoded values.
	for i, p := range positions {
		c := float64(p)
		minV[i%3] = math.Min(minV[i%3], c)
		maxV[i%3] = math.Max(maxV[i%3], c)
	}

	posView := bufferView{
		Buffer:     0,
		ByteOffset: bin.Len(),
		ByteLength: 4 * len(positions),
		Target:     targetArrayBuffer,
	}
	if err := binary.Write(bin, binary.LittleEndian, positions); err != nil {
		return err
	}
	doc.BufferViews = append(doc.BufferViews, posView)
	posAccessor := len(doc.Accessors)
	doc.Accessors = append(doc.Accessors, accessor{
		BufferView:    len(doc.BufferViews) - 1,
		ComponentType: componentFloat,
		Count:         len(m.Vertices),
		Type:          "VEC3",
		Min:           minV,
		Max:           maxV,
	})

	prim := primitive{
		Attributes: map[string]int{"POSITION": posAccessor},
		Mode:       modePoints,
	}

	if !m.IsWire() {
		indices := make([]uint32, 0, 3*len(m.Faces))
		for _, f := range m.Faces {
			indices = append(indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
		}
		idxView := bufferView{
			Buffer:     0,
			ByteOffset: bin.Len(),
			ByteLength: 4 * len(indices),
			Target:     targetElementArrayBuffer,
		}
		if err := binary.Write(bin, binary.LittleEndian, indices); err != nil {
			return err
		}
		doc.BufferViews = append(doc.BufferViews, idxView)
		idxAccessor := len(doc.Accessors)
		doc.Accessors = append(doc.Accessors, accessor{
			BufferView:    len(doc.BufferViews) - 1,
			ComponentType: componentUint32,
			Count:         len(indices),
			Type:          "SCALAR",
		})
		prim.Indices = &idxAccessor
		prim.Mode = modeTriangles
	}

	meshIndex := len(doc.Meshes)
	doc.Meshes = append(doc.Meshes, meshDef{Name: m.Name, Primitives: []primitive{prim}})
	nodeIndex := len(doc.Nodes)
	doc.Nodes = append(doc.Nodes, node{Name: m.Name, Mesh: meshIndex})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, nodeIndex)
	return nil
}

func writeChunk(w io.Writer, kind uint32, data []byte) error {
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(hdr[4:], kind)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("glb: write chunk header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("glb: write chunk body: %w", err)
	}
	return nil
}

func pad(data []byte, fill byte) []byte {
	for len(data)%4 != 0 {
		data = append(data, fill)
	}
	return data
}
