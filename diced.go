package figurecomposer

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MeshVertex is one decoded vertex of a diced sprite's mesh: a model-space
// position paired with its atlas UV coordinate (§4.7).
type MeshVertex struct {
	X, Y float64
	U, V float64
}

// MeshQuad is the axis-aligned bounding box of one 4-vertex mesh quad, in
// both model space and UV space (§4.7).
type MeshQuad struct {
	MinX, MinY, MinU, MinV float64
	MaxX, MaxY, MaxU, MaxV float64
}

// ParseMeshVertices reads a diced mesh asset file and decodes its vertex
// buffer (§4.7, §6). The first three lines are a Unity class-id header that
// must be discarded, matching the sprite descriptor convention.
//
// The vertex buffer is a hex-encoded blob of little-endian float32 values,
// laid out as a position section (interleaved x, y, and a zero pad float per
// vertex) followed by a UV section (interleaved u, v).
func ParseMeshVertices(path string) ([]MeshVertex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: read mesh asset %s: %w", path, err)
	}
	lines := strings.SplitN(string(data), "\n", 4)
	if len(lines) < 4 {
		return nil, fmt.Errorf("figurecomposer: mesh asset %s too short to contain a header", path)
	}

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(lines[3]), &doc); err != nil {
		return nil, fmt.Errorf("figurecomposer: parse mesh asset %s: %w", path, err)
	}

	sprite := asMap(doc["Sprite"])
	rd := asMap(sprite["m_RD"])
	vertexData := asMap(rd["m_VertexData"])
	hexStr, _ := vertexData["_typelessdata"].(string)
	if hexStr == "" {
		return nil, fmt.Errorf("figurecomposer: mesh asset %s has no _typelessdata", path)
	}
	subMeshes := asSlice(rd["m_SubMeshes"])
	if len(subMeshes) == 0 {
		return nil, fmt.Errorf("figurecomposer: mesh asset %s has no m_SubMeshes", path)
	}
	vertexCount := int(asFloat(asMap(subMeshes[0])["vertexCount"]))

	// Each vertex contributes 3 position floats (x, y, pad) of 8 hex chars.
	borderIndex := vertexCount * 8 * 3
	if borderIndex > len(hexStr) {
		return nil, fmt.Errorf("figurecomposer: mesh asset %s _typelessdata too short for %d vertices", path, vertexCount)
	}
	positionFloats, err := decodeHexFloats(hexStr[:borderIndex])
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: decode mesh asset %s positions: %w", path, err)
	}
	uvFloats, err := decodeHexFloats(hexStr[borderIndex:])
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: decode mesh asset %s uvs: %w", path, err)
	}

	if len(positionFloats) != vertexCount*3 {
		return nil, fmt.Errorf("figurecomposer: mesh asset %s expected %d position floats, got %d", path, vertexCount*3, len(positionFloats))
	}
	if len(uvFloats) != vertexCount*2 {
		return nil, fmt.Errorf("figurecomposer: mesh asset %s expected %d uv floats, got %d", path, vertexCount*2, len(uvFloats))
	}

	vertices := make([]MeshVertex, vertexCount)
	for i := 0; i < vertexCount; i++ {
		x, y, pad := positionFloats[i*3], positionFloats[i*3+1], positionFloats[i*3+2]
		if pad != 0 {
			return nil, fmt.Errorf("figurecomposer: mesh asset %s vertex %d has non-zero padding float %v", path, i, pad)
		}
		vertices[i] = MeshVertex{X: x, Y: y, U: uvFloats[i*2], V: uvFloats[i*2+1]}
	}
	return vertices, nil
}

// decodeHexFloats decodes a string of concatenated 8-hex-char little-endian
// float32 values.
func decodeHexFloats(hexStr string) ([]float64, error) {
	if len(hexStr)%8 != 0 {
		return nil, fmt.Errorf("hex float buffer length %d not a multiple of 8", len(hexStr))
	}
	out := make([]float64, 0, len(hexStr)/8)
	for i := 0; i < len(hexStr); i += 8 {
		raw, err := hex.DecodeString(hexStr[i : i+8])
		if err != nil {
			return nil, fmt.Errorf("decode hex chunk at %d: %w", i, err)
		}
		bits := binary.LittleEndian.Uint32(raw)
		out = append(out, float64(math.Float32frombits(bits)))
	}
	return out, nil
}

// QuadsFromVertices groups a flat vertex list into 4-vertex quads and
// computes each quad's model-space and UV-space bounding box (§4.7).
func QuadsFromVertices(vertices []MeshVertex) []MeshQuad {
	quads := make([]MeshQuad, 0, len(vertices)/4)
	for i := 0; i+4 <= len(vertices); i += 4 {
		group := vertices[i : i+4]
		q := MeshQuad{
			MinX: group[0].X, MaxX: group[0].X,
			MinY: group[0].Y, MaxY: group[0].Y,
			MinU: group[0].U, MaxU: group[0].U,
			MinV: group[0].V, MaxV: group[0].V,
		}
		for _, v := range group[1:] {
			q.MinX, q.MaxX = math.Min(q.MinX, v.X), math.Max(q.MaxX, v.X)
			q.MinY, q.MaxY = math.Min(q.MinY, v.Y), math.Max(q.MaxY, v.Y)
			q.MinU, q.MaxU = math.Min(q.MinU, v.U), math.Max(q.MaxU, v.U)
			q.MinV, q.MaxV = math.Min(q.MinV, v.V), math.Max(q.MaxV, v.V)
		}
		quads = append(quads, q)
	}
	return quads
}

// quadTextureRect converts a quad's UV bounding box into an atlas pixel rect
// in the bottom-left-origin convention Atlas.Crop expects (§4.7).
func quadTextureRect(q MeshQuad, atlasW, atlasH int) SpriteRect {
	return SpriteRect{
		X:      int(math.Round(q.MinU * float64(atlasW))),
		Y:      int(math.Round(q.MinV * float64(atlasH))),
		Width:  int(math.Round((q.MaxU - q.MinU) * float64(atlasW))),
		Height: int(math.Round((q.MaxV - q.MinV) * float64(atlasH))),
	}
}

// AssembleDicedQuads reassembles a diced figure by pasting each quad's
// cropped atlas region onto its own canvas position, opaquely: no blend
// modes or masks apply to this alternate path (§4.7).
func AssembleDicedQuads(atlas *Atlas, quads []MeshQuad) (pix []uint8, width, height int, err error) {
	if len(quads) == 0 {
		return nil, 0, 0, fmt.Errorf("figurecomposer: no mesh quads to assemble")
	}

	minX, maxX := quads[0].MinX, quads[0].MaxX
	minY, maxY := quads[0].MinY, quads[0].MaxY
	for _, q := range quads[1:] {
		minX, maxX = math.Min(minX, q.MinX), math.Max(maxX, q.MaxX)
		minY, maxY = math.Min(minY, q.MinY), math.Max(maxY, q.MaxY)
	}
	canvasW := int(math.Round((maxX - minX) * WorldToPixelScale))
	canvasH := int(math.Round((maxY - minY) * WorldToPixelScale))
	if canvasW <= 0 || canvasH <= 0 {
		return nil, 0, 0, fmt.Errorf("figurecomposer: computed diced canvas size %dx%d is empty", canvasW, canvasH)
	}

	atlasW, atlasH := atlas.Size()
	pix = make([]uint8, 4*canvasW*canvasH)

	for _, q := range quads {
		rect := quadTextureRect(q, atlasW, atlasH)
		cropped := newCroppedImage(atlas.Crop(rect))

		canvasX := int(math.Round((q.MinX - minX) * WorldToPixelScale))
		canvasY := canvasH - int(math.Round((q.MaxY-minY)*WorldToPixelScale))
		pasteOpaque(pix, canvasW, canvasH, cropped, canvasX, canvasY)
	}

	return pix, canvasW, canvasH, nil
}

// pasteOpaque overwrites dst's region at (x, y) with src's pixels verbatim,
// clipped to the canvas bounds. Unlike Blender.Blend this performs no
// alpha compositing: the diced path assigns pixels directly (§4.7).
func pasteOpaque(dst []uint8, dstW, dstH int, src croppedImage, x, y int) {
	pix, srcW, srcH := src.pix, src.width, src.height

	srcX0, srcY0 := 0, 0
	dstX0, dstY0 := x, y
	if dstX0 < 0 {
		srcX0 -= dstX0
		dstX0 = 0
	}
	if dstY0 < 0 {
		srcY0 -= dstY0
		dstY0 = 0
	}
	copyW := srcW - srcX0
	copyH := srcH - srcY0
	if dstX0+copyW > dstW {
		copyW = dstW - dstX0
	}
	if dstY0+copyH > dstH {
		copyH = dstH - dstY0
	}
	if copyW <= 0 || copyH <= 0 {
		return
	}

	for row := 0; row < copyH; row++ {
		srcOff := ((srcY0+row)*srcW + srcX0) * 4
		dstOff := ((dstY0+row)*dstW + dstX0) * 4
		copy(dst[dstOff:dstOff+copyW*4], pix[srcOff:srcOff+copyW*4])
	}
}
