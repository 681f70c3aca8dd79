package figurecomposer

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Config is the on-disk run configuration (§6 External Interfaces). It
// names the export directory to read from, the two output directories, and
// the list of composition-key lists to assemble into figures.
type Config struct {
	ExportDir         string     `json:"export_dir"`
	OutputDirFigure   string     `json:"output_dir_figure"`
	OutputDirSprite   string     `json:"output_dir_sprite"`
	CompositeKeysList [][]string `json:"composite_keys_list"`
}

// LoadConfig decodes a Config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("figurecomposer: parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path as indented JSON, creating parent directories as
// needed.
func (cfg *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("figurecomposer: create config dir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("figurecomposer: marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("figurecomposer: write config %s: %w", path, err)
	}
	return nil
}

// CharacterName derives the figure's name from its prefab filename: the
// portion before the first '.' (§6; a prefab is named "<Name>.prefab").
func CharacterName(prefabPath string) string {
	base := filepath.Base(prefabPath)
	if i := strings.IndexByte(base, '.'); i != -1 {
		return base[:i]
	}
	return base
}

// trimTrailingSigils strips trailing '+' and '-' composition sigils from a
// key, mirroring Python's str.rstrip('+-').
func trimTrailingSigils(s string) string {
	return strings.TrimRight(s, "+-")
}

// GenerateConfig derives a Config from an export directory by walking its
// prefab's compositionMap for the "leaf" composition keys: every key at or
// after "Normal1" that never appears as a sub-item of another key's
// composition (§6, supplemented feature grounded on the original config
// generator).
func GenerateConfig(exportDir string) (cfg *Config, characterName string, err error) {
	exportStruct, err := LoadExportStructure(exportDir)
	if err != nil {
		return nil, "", err
	}
	prefab, err := ParsePrefab(exportStruct.PrefabPath)
	if err != nil {
		return nil, "", err
	}
	mono, err := FindCompositionComponent(prefab)
	if err != nil {
		return nil, "", err
	}

	characterName = CharacterName(exportStruct.PrefabPath)
	defaultAppearance := strings.Split(mono.DefaultAppearance, ",")

	var keyOrder []string
	keySet := make(map[string]bool)
	started := false
	for _, item := range mono.CompositionMap {
		if item.Key == "Normal1" {
			started = true
		}
		if started && !keySet[item.Key] {
			keySet[item.Key] = true
			keyOrder = append(keyOrder, item.Key)
		}
	}

	for _, item := range mono.CompositionMap {
		for _, child := range strings.Split(item.Composition, ",") {
			clean := trimTrailingSigils(child)
			delete(keySet, clean)
		}
	}

	var compositeKeysList [][]string
	for _, key := range keyOrder {
		if !keySet[key] {
			continue
		}
		if len(defaultAppearance) == 0 {
			compositeKeysList = append(compositeKeysList, []string{key})
			continue
		}
		prefix := append([]string(nil), defaultAppearance[:len(defaultAppearance)-1]...)
		compositeKeysList = append(compositeKeysList, append(prefix, key))
	}

	cfg = &Config{
		ExportDir:         exportDir,
		OutputDirFigure:   filepath.Join("output", characterName),
		OutputDirSprite:   filepath.Join("output", characterName, "sprite"),
		CompositeKeysList: compositeKeysList,
	}
	return cfg, characterName, nil
}

// Breakup crops every named sprite out of the atlas and saves it as its own
// PNG under outputDir, one file per sprite name (§6, supplemented feature
// grounded on the original sprite-breakup tool).
func Breakup(exportStruct *ExportStructure, atlas *Atlas, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("figurecomposer: create sprite output dir %s: %w", outputDir, err)
	}
	for name, path := range exportStruct.SpritePath {
		rect, err := LoadSpriteRect(path)
		if err != nil {
			return err
		}
		if rect.Empty() {
			log.Printf("[figurecomposer] warning: sprite %q has an empty rect, skipping", name)
			continue
		}
		cropped := atlas.Crop(rect)
		outPath := filepath.Join(outputDir, name+".png")
		if err := savePNG(outPath, cropped); err != nil {
			return err
		}
	}
	return nil
}

// savePNG encodes img as a PNG file at path.
func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("figurecomposer: create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("figurecomposer: encode png %s: %w", path, err)
	}
	return nil
}
