package figurecomposer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExportStructure is the layout an ExportLocator resolves from the export
// directory: one texture path, sprite name -> descriptor path, one prefab
// path, and material guid -> name (§6).
type ExportStructure struct {
	TexturePath string
	SpritePath  map[string]string
	PrefabPath  string
	Material    MaterialTable
}

// DicedExportStructure is the alternative layout for a diced export: the
// atlas texture plus mesh asset paths and the figure's name (§4.7, §6).
type DicedExportStructure struct {
	TexturePath string
	MeshPaths   []string
	Name        string
}

// IsDicedExport reports whether exportDir lacks a Sprite/ directory,
// identifying the diced-mesh alternative layout (§6).
func IsDicedExport(exportDir string) bool {
	spriteDir := filepath.Join(exportDir, "ExportedProject", "Assets", "Sprite")
	_, err := os.Stat(spriteDir)
	return os.IsNotExist(err)
}

// LoadExportStructure locates the texture, sprite descriptors, prefab, and
// material table under exportDir/ExportedProject/Assets (§6).
func LoadExportStructure(exportDir string) (*ExportStructure, error) {
	assetDir := filepath.Join(exportDir, "ExportedProject", "Assets")
	result := &ExportStructure{
		SpritePath: make(map[string]string),
		Material:   make(MaterialTable),
	}

	textureDir := filepath.Join(assetDir, "Texture2D")
	textureFile, err := firstFileWithSuffix(textureDir, ".png")
	if err != nil {
		return nil, err
	}
	result.TexturePath = filepath.Join(textureDir, textureFile)

	spriteDir := filepath.Join(assetDir, "Sprite")
	entries, err := os.ReadDir(spriteDir)
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: read sprite dir %s: %w", spriteDir, err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".asset") {
			name := strings.TrimSuffix(e.Name(), ".asset")
			result.SpritePath[name] = filepath.Join(spriteDir, e.Name())
		}
	}

	prefabDir := filepath.Join(assetDir, "#WitchTrials", "Prefabs", "Naninovel", "Characters", "LayeredCharacters")
	prefabFile, err := firstFileWithSuffix(prefabDir, ".prefab")
	if err != nil {
		return nil, err
	}
	result.PrefabPath = filepath.Join(prefabDir, prefabFile)

	materialDir := filepath.Join(assetDir, "Material")
	entries, err = os.ReadDir(materialDir)
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: read material dir %s: %w", materialDir, err)
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".meta") {
			continue
		}
		guid, err := parseMaterialGUID(filepath.Join(materialDir, e.Name()))
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(e.Name(), ".mat.meta")
		result.Material[guid] = name
	}

	return result, nil
}

// LoadDicedExportStructure locates the atlas texture and mesh assets for
// the diced-mesh alternative layout (§4.7, §6). The one mesh filename that
// does not start with a digit is the figure name; the rest are vertex
// buffers.
func LoadDicedExportStructure(exportDir string) (*DicedExportStructure, error) {
	assetDir := filepath.Join(exportDir, "ExportedProject", "Assets")
	result := &DicedExportStructure{}

	textureDir := filepath.Join(assetDir, "Texture2D")
	textureFile, err := firstFileWithSuffix(textureDir, ".png")
	if err != nil {
		return nil, err
	}
	result.TexturePath = filepath.Join(textureDir, textureFile)

	meshDir := filepath.Join(assetDir, "#WitchTrials", "Textures", "Naninovel", "Characters", "DicedSpriteAtlases")
	entries, err := os.ReadDir(meshDir)
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: read diced mesh dir %s: %w", meshDir, err)
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".asset") {
			continue
		}
		if len(e.Name()) > 0 && e.Name()[0] >= '0' && e.Name()[0] <= '9' {
			result.MeshPaths = append(result.MeshPaths, filepath.Join(meshDir, e.Name()))
		} else {
			result.Name = strings.TrimSuffix(e.Name(), ".asset")
		}
	}
	return result, nil
}

// LoadSpriteRect parses a sprite descriptor file into its SpriteRect
// (§3 SpriteRect, §6). The first three lines are a Unity class-id header
// that must be discarded before YAML parsing.
func LoadSpriteRect(path string) (SpriteRect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SpriteRect{}, fmt.Errorf("figurecomposer: read sprite %s: %w", path, err)
	}
	lines := strings.SplitN(string(data), "\n", 4)
	if len(lines) < 4 {
		return SpriteRect{}, fmt.Errorf("figurecomposer: sprite file %s too short to contain a header", path)
	}
	body := lines[3]

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		return SpriteRect{}, fmt.Errorf("figurecomposer: parse sprite %s: %w", path, err)
	}
	rect := asMap(asMap(doc["Sprite"])["m_Rect"])
	return SpriteRect{
		X:      int(asFloat(rect["x"])),
		Y:      int(asFloat(rect["y"])),
		Width:  int(asFloat(rect["width"])),
		Height: int(asFloat(rect["height"])),
	}, nil
}

func parseMaterialGUID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("figurecomposer: read material meta %s: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("figurecomposer: parse material meta %s: %w", path, err)
	}
	guid, _ := doc["guid"].(string)
	if guid == "" {
		return "", fmt.Errorf("figurecomposer: no guid field in %s", path)
	}
	return guid, nil
}

func firstFileWithSuffix(dir, suffix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("figurecomposer: read dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("figurecomposer: no %s file found in %s", suffix, dir)
	}
	sort.Strings(names)
	return names[0], nil
}
