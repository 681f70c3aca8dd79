package figurecomposer

import (
	"fmt"
	"math"
)

// WorldToPixelScale is the fixed world-to-pixel scale used throughout
// placement (§4.3).
const WorldToPixelScale = 100.0

// Placement is a node's computed pixel position on the output canvas,
// top-left origin, Y growing down (§4.3).
type Placement struct {
	ID   string
	PX   int
	PY   int
}

// ComputeGeometry computes canvas dimensions and per-node pixel placement
// for an ordered, reversed list of selected node ids (§4.3).
//
// Each node's anchor is converted from center to top-left:
//
//	anchorX = (gx - w/2) * 100
//	anchorY = (gy + h/2) * 100
//
// and occupies a footprint of pixel size (w*100, h*100) extending right and
// down from the anchor. The canvas is the minimum enclosing rectangle over
// every sprite's footprint, with a +1 guard against rounding shrinking the
// canvas below the largest sprite.
func ComputeGeometry(reversedIDs []string, nodeMap NodeMap) (canvasW, canvasH int, placements []Placement, err error) {
	if len(reversedIDs) == 0 {
		return 0, 0, nil, fmt.Errorf("figurecomposer: empty selection, nothing to place")
	}

	type footprint struct {
		id               string
		anchorX, anchorY float64
		sizeX, sizeY     float64
	}
	footprints := make([]footprint, 0, len(reversedIDs))

	for _, id := range reversedIDs {
		n, ok := nodeMap[id]
		if !ok {
			return 0, 0, nil, fmt.Errorf("figurecomposer: selected node id %q not found", id)
		}
		g := nodeMap.GlobalPosition(n)
		w, h := n.SpriteSize()
		footprints = append(footprints, footprint{
			id:      id,
			anchorX: (g.X - w/2) * WorldToPixelScale,
			anchorY: (g.Y + h/2) * WorldToPixelScale,
			sizeX:   w * WorldToPixelScale,
			sizeY:   h * WorldToPixelScale,
		})
	}

	minX, maxX := footprints[0].anchorX, footprints[0].anchorX+footprints[0].sizeX
	maxY, minY := footprints[0].anchorY, footprints[0].anchorY-footprints[0].sizeY
	for _, f := range footprints[1:] {
		if f.anchorX < minX {
			minX = f.anchorX
		}
		if f.anchorX+f.sizeX > maxX {
			maxX = f.anchorX + f.sizeX
		}
		if f.anchorY > maxY {
			maxY = f.anchorY
		}
		if f.anchorY-f.sizeY < minY {
			minY = f.anchorY - f.sizeY
		}
	}

	canvasW = int(math.Floor(maxX-minX)) + 1
	canvasH = int(math.Floor(maxY-minY)) + 1

	placements = make([]Placement, 0, len(footprints))
	for _, f := range footprints {
		px := int(math.Floor(f.anchorX - minX))
		py := int(math.Floor(float64(canvasH) - (f.anchorY - minY)))
		placements = append(placements, Placement{ID: f.id, PX: px, PY: py})
	}

	return canvasW, canvasH, placements, nil
}
