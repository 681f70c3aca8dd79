package figurecomposer

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Figure is everything a Driver needs, shared read-only, to assemble any
// number of figures from one export: the parsed prefab's scene tree, its
// composition DSL, and the decoded atlas (§4.6, §5).
type Figure struct {
	Name        string
	Root        *Node
	NodeMap     NodeMap
	Composition []CompositionEntry
	Atlas       *Atlas
	Sprites     map[string]string // sprite name -> descriptor path
	Materials   MaterialTable
}

// LoadFigure reads an export directory's prefab, atlas, and material table
// into a Figure ready for concurrent composition (§4.6, §6).
func LoadFigure(exportDir string) (*Figure, error) {
	exportStruct, err := LoadExportStructure(exportDir)
	if err != nil {
		return nil, err
	}
	prefab, err := ParsePrefab(exportStruct.PrefabPath)
	if err != nil {
		return nil, err
	}
	root, nodeMap, err := BuildTree(prefab)
	if err != nil {
		return nil, err
	}
	mono, err := FindCompositionComponent(prefab)
	if err != nil {
		return nil, err
	}
	atlas, err := LoadAtlas(exportStruct.TexturePath)
	if err != nil {
		return nil, err
	}
	return &Figure{
		Name:        CharacterName(exportStruct.PrefabPath),
		Root:        root,
		NodeMap:     nodeMap,
		Composition: mono.CompositionMap,
		Atlas:       atlas,
		Sprites:     exportStruct.SpritePath,
		Materials:   exportStruct.Material,
	}, nil
}

// AssembleOne evaluates one composition-key list against the figure's scene
// tree and renders it to a single RGBA image (§4.2-§4.5). Each call owns
// its own Blender and mask table, never shared with another key list
// (§5).
func (fig *Figure) AssembleOne(keys []string) (*image.NRGBA, error) {
	selected, err := Evaluate(fig.Composition, keys, fig.Root, fig.NodeMap)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("figurecomposer: composition keys %v selected no drawable nodes", keys)
	}
	drawOrder := ReverseIDs(selected)

	canvasW, canvasH, placements, err := ComputeGeometry(drawOrder, fig.NodeMap)
	if err != nil {
		return nil, err
	}

	blender := NewBlender(canvasW, canvasH)
	for _, p := range placements {
		node := fig.NodeMap[p.ID]
		sprite := node.Sprite

		spritePath, ok := fig.Sprites[node.Name]
		if !ok {
			log.Printf("[figurecomposer] warning: node %q has no sprite descriptor, skipping", node.Name)
			continue
		}
		rect, err := LoadSpriteRect(spritePath)
		if err != nil {
			return nil, err
		}
		if rect.Empty() {
			log.Printf("[figurecomposer] warning: node %q has an empty sprite rect, skipping", node.Name)
			continue
		}

		mode, err := ResolveBlendMode(fig.Materials, sprite.MaterialGUID)
		if err != nil {
			return nil, err
		}
		role, err := ResolveMaskRole(fig.Materials, sprite.MaterialGUID)
		if err != nil {
			return nil, err
		}

		cropped := newCroppedImage(fig.Atlas.Crop(rect))
		if err := blender.Blend(cropped, p.PX, p.PY, mode, role); err != nil {
			return nil, err
		}
	}

	pix, w, h := blender.Image()
	return toNRGBA(pix, w, h), nil
}

func toNRGBA(pix []uint8, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return img
}

// OutputFilename names a rendered figure's file as "<figure>_<keys>.png",
// the keys joined by underscore (§4.6, §6).
func (fig *Figure) OutputFilename(keys []string) string {
	return fmt.Sprintf("%s_%s.png", fig.Name, strings.Join(keys, "_"))
}

// RunAll assembles every composition-key list in cfg concurrently, one
// figure per errgroup goroutine, each against the same shared read-only
// atlas (§5). An error assembling one key list does not stop the other
// key lists from being assembled and written, but RunAll returns the first
// such error (§7: structural/semantic errors are fatal). A failure to save
// one figure's PNG is logged and only that figure is skipped, matching the
// per-figure I/O error tier for outputs (§7).
func RunAll(cfg *Config) error {
	fig, err := LoadFigure(cfg.ExportDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDirFigure, 0o755); err != nil {
		return fmt.Errorf("figurecomposer: create figure output dir %s: %w", cfg.OutputDirFigure, err)
	}

	var g errgroup.Group
	for _, keys := range cfg.CompositeKeysList {
		keys := keys
		g.Go(func() error {
			img, err := fig.AssembleOne(keys)
			if err != nil {
				return fmt.Errorf("figurecomposer: composition %v: %w", keys, err)
			}
			outPath := filepath.Join(cfg.OutputDirFigure, fig.OutputFilename(keys))
			if err := savePNG(outPath, img); err != nil {
				log.Printf("[figurecomposer] warning: failed to save %s: %v", outPath, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RunDiced assembles a diced-mesh export (§4.7) directly, bypassing the
// scene-tree/composition pipeline entirely: every mesh quad in every mesh
// asset is pasted into one figure.
func RunDiced(exportDir, outputDir string) error {
	exportStruct, err := LoadDicedExportStructure(exportDir)
	if err != nil {
		return err
	}
	atlas, err := LoadAtlas(exportStruct.TexturePath)
	if err != nil {
		return err
	}

	var quads []MeshQuad
	for _, meshPath := range exportStruct.MeshPaths {
		vertices, err := ParseMeshVertices(meshPath)
		if err != nil {
			return err
		}
		quads = append(quads, QuadsFromVertices(vertices)...)
	}

	pix, w, h, err := AssembleDicedQuads(atlas, quads)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("figurecomposer: create diced output dir %s: %w", outputDir, err)
	}
	outPath := filepath.Join(outputDir, exportStruct.Name+".png")
	return savePNG(outPath, toNRGBA(pix, w, h))
}
