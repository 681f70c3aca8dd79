package figurecomposer

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"testing"
)

func floatToHex(v float32) string {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return hex.EncodeToString(buf[:])
}

func TestDecodeHexFloats(t *testing.T) {
	hexStr := floatToHex(1.5) + floatToHex(-2.25) + floatToHex(0)
	got, err := decodeHexFloats(hexStr)
	if err != nil {
		t.Fatalf("decodeHexFloats: %v", err)
	}
	want := []float64{1.5, -2.25, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecodeHexFloatsBadLength(t *testing.T) {
	if _, err := decodeHexFloats("abc"); err == nil {
		t.Fatal("expected error for non-multiple-of-8 hex length")
	}
}

func TestQuadsFromVertices(t *testing.T) {
	verts := []MeshVertex{
		{X: 0, Y: 0, U: 0, V: 0},
		{X: 1, Y: 0, U: 1, V: 0},
		{X: 0, Y: 1, U: 0, V: 1},
		{X: 1, Y: 1, U: 1, V: 1},
	}
	quads := QuadsFromVertices(verts)
	if len(quads) != 1 {
		t.Fatalf("len(quads) = %d, want 1", len(quads))
	}
	q := quads[0]
	if q.MinX != 0 || q.MaxX != 1 || q.MinY != 0 || q.MaxY != 1 {
		t.Errorf("quad bounds = %+v, want a unit square", q)
	}
}

// TestAssembleDicedQuads mirrors §8 S6: a single quad (0,0)-(1,1) in model
// space mapping to atlas UV (0,0)-(10/Tw, 10/Th) on a Tw x Th atlas yields a
// 100x100 canvas holding the atlas pixels [0,10) x [Th-10, Th).
func TestAssembleDicedQuads(t *testing.T) {
	path := writeFixtureAtlas(t, 100, 100)
	atlas, err := LoadAtlas(path)
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	quad := MeshQuad{
		MinX: 0, MinY: 0, MaxX: 1, MaxY: 1,
		MinU: 0, MinV: 0, MaxU: 10.0 / 100.0, MaxV: 10.0 / 100.0,
	}
	pix, w, h, err := AssembleDicedQuads(atlas, []MeshQuad{quad})
	if err != nil {
		t.Fatalf("AssembleDicedQuads: %v", err)
	}
	if w != 100 || h != 100 {
		t.Fatalf("canvas = %dx%d, want 100x100", w, h)
	}

	// Canvas (0,0) should hold atlas array row (Th-10)=90, col 0: fixture
	// color (x%256, y%256) = (0, 90).
	o := 0
	if pix[o] != 0 || pix[o+1] != 90 {
		t.Errorf("canvas(0,0) = %v, want R=0 G=90", pix[o:o+4])
	}
}

func TestAssembleDicedQuadsEmptyErrors(t *testing.T) {
	path := writeFixtureAtlas(t, 10, 10)
	atlas, _ := LoadAtlas(path)
	if _, _, _, err := AssembleDicedQuads(atlas, nil); err == nil {
		t.Fatal("expected error for empty quad list")
	}
}
