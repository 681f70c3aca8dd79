package figurecomposer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RecordKind tags the variant stored in a Record. Pattern-match on Kind
// rather than probing fields dynamically (§9 DESIGN NOTES).
type RecordKind uint8

const (
	RecordOther RecordKind = iota
	RecordGameObject
	RecordTransform
	RecordSpriteRenderer
	RecordMonoBehaviour
)

// GameObjectRecord mirrors a Unity GameObject component list.
type GameObjectRecord struct {
	Name       string
	Components []string // fileIDs of this object's components
}

// TransformRecord mirrors a Unity Transform component.
type TransformRecord struct {
	Children      []string // fileIDs, in hierarchy order
	Father        string   // fileID, or "0" for the root sentinel
	LocalPosition Vec3
}

// SpriteRendererRecord mirrors a Unity SpriteRenderer component.
type SpriteRendererRecord struct {
	Enabled       bool
	MaterialGUIDs []string // guid of each m_Materials entry
	SizeX, SizeY  float64
}

// MonoBehaviourRecord mirrors an arbitrary Unity MonoBehaviour component.
// Only the fields the composition DSL needs (compositionMap,
// defaultAppearance) are typed; everything else stays in Raw.
type MonoBehaviourRecord struct {
	CompositionMap    []CompositionEntry
	DefaultAppearance string
	Raw               map[string]any
}

// CompositionEntry is one {Key, Composition} pair of a compositionMap.
type CompositionEntry struct {
	Key         string
	Composition string
}

// Record is a tagged variant over the prefab component kinds the composer
// consumes. Exactly one of the typed fields is non-nil, matching Kind.
type Record struct {
	Kind           RecordKind
	GameObject     *GameObjectRecord
	Transform      *TransformRecord
	SpriteRenderer *SpriteRendererRecord
	MonoBehaviour  *MonoBehaviourRecord
}

// PrefabMap is the flat fileID -> record map a PrefabLoader produces.
type PrefabMap map[string]*Record

// ParsePrefab reads a Unity-style prefab: a sequence of YAML documents
// separated by "--- !u!<classID> &<fileID>" header lines, each containing
// one component keyed by its Unity type name. It yields the flat
// fileID -> Record map the Scene Tree Builder consumes.
//
// Sprite descriptor and material meta files are single-document;
// LoadSpriteRect and parseMaterialGUID decode those with yaml.Unmarshal
// directly.
func ParsePrefab(path string) (PrefabMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: read prefab %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")

	result := make(PrefabMap)
	startIndex := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "---") || i == len(lines)-1 {
			if startIndex != -1 {
				if err := parsePrefabDocument(lines[startIndex], lines[startIndex+1:i], result); err != nil {
					return nil, fmt.Errorf("figurecomposer: parse prefab %s: %w", path, err)
				}
			}
			startIndex = i
		}
	}
	return result, nil
}

// parsePrefabDocument parses one "&fileID" header plus its YAML body and
// inserts the resulting Record into dst.
func parsePrefabDocument(header string, bodyLines []string, dst PrefabMap) error {
	idx := strings.Index(header, "&")
	if idx == -1 {
		return nil // not a record header (e.g. leading "%YAML" banner)
	}
	fileID := strings.TrimSpace(header[idx+1:])
	if fileID == "" {
		return nil
	}

	var body map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(bodyLines, "\n")), &body); err != nil {
		return fmt.Errorf("fileID %s: %w", fileID, err)
	}
	if len(body) == 0 {
		return nil
	}

	rec, err := buildRecord(body)
	if err != nil {
		return fmt.Errorf("fileID %s: %w", fileID, err)
	}
	if rec != nil {
		dst[fileID] = rec
	}
	return nil
}

func buildRecord(body map[string]any) (*Record, error) {
	if go_, ok := body["GameObject"]; ok {
		return buildGameObjectRecord(asMap(go_))
	}
	if tr, ok := body["Transform"]; ok {
		return buildTransformRecord(asMap(tr))
	}
	if sr, ok := body["SpriteRenderer"]; ok {
		return buildSpriteRendererRecord(asMap(sr))
	}
	if mb, ok := body["MonoBehaviour"]; ok {
		return buildMonoBehaviourRecord(asMap(mb))
	}
	return &Record{Kind: RecordOther}, nil
}

func buildGameObjectRecord(m map[string]any) (*Record, error) {
	name, _ := m["m_Name"].(string)
	var components []string
	for _, item := range asSlice(m["m_Component"]) {
		entry := asMap(item)
		comp := asMap(entry["component"])
		components = append(components, fileIDString(comp["fileID"]))
	}
	return &Record{
		Kind: RecordGameObject,
		GameObject: &GameObjectRecord{
			Name:       name,
			Components: components,
		},
	}, nil
}

func buildTransformRecord(m map[string]any) (*Record, error) {
	var children []string
	for _, item := range asSlice(m["m_Children"]) {
		children = append(children, fileIDString(asMap(item)["fileID"]))
	}
	father := fileIDString(asMap(m["m_Father"])["fileID"])
	if father == "" {
		father = "0"
	}
	pos := asMap(m["m_LocalPosition"])
	return &Record{
		Kind: RecordTransform,
		Transform: &TransformRecord{
			Children: children,
			Father:   father,
			LocalPosition: Vec3{
				X: asFloat(pos["x"]),
				Y: asFloat(pos["y"]),
				Z: asFloat(pos["z"]),
			},
		},
	}, nil
}

func buildSpriteRendererRecord(m map[string]any) (*Record, error) {
	enabled := asFloat(m["m_Enabled"]) != 0
	var guids []string
	for _, item := range asSlice(m["m_Materials"]) {
		entry := asMap(item)
		if guid, ok := entry["guid"].(string); ok && guid != "" {
			guids = append(guids, guid)
		}
	}
	size := asMap(m["m_Size"])
	return &Record{
		Kind: RecordSpriteRenderer,
		SpriteRenderer: &SpriteRendererRecord{
			Enabled:       enabled,
			MaterialGUIDs: guids,
			SizeX:         asFloat(size["x"]),
			SizeY:         asFloat(size["y"]),
		},
	}, nil
}

func buildMonoBehaviourRecord(m map[string]any) (*Record, error) {
	var entries []CompositionEntry
	if raw, ok := m["compositionMap"]; ok {
		for _, item := range asSlice(raw) {
			e := asMap(item)
			key, _ := e["Key"].(string)
			comp, _ := e["Composition"].(string)
			if key != "" {
				entries = append(entries, CompositionEntry{Key: key, Composition: comp})
			}
		}
	}
	defaultAppearance, _ := m["defaultAppearance"].(string)
	return &Record{
		Kind: RecordMonoBehaviour,
		MonoBehaviour: &MonoBehaviourRecord{
			CompositionMap:    entries,
			DefaultAppearance: defaultAppearance,
			Raw:               m,
		},
	}, nil
}

// FindCompositionComponent scans a parsed prefab for the MonoBehaviour
// record carrying the composition DSL (identified by a non-empty
// compositionMap), returning an error if none or more than one is found
// (§3 MonoBehaviour — the composer expects exactly one such component per
// figure).
func FindCompositionComponent(prefab PrefabMap) (*MonoBehaviourRecord, error) {
	var found *MonoBehaviourRecord
	for _, rec := range prefab {
		if rec.Kind != RecordMonoBehaviour || rec.MonoBehaviour == nil {
			continue
		}
		if len(rec.MonoBehaviour.CompositionMap) == 0 {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("figurecomposer: multiple compositionMap components found in prefab")
		}
		found = rec.MonoBehaviour
	}
	if found == nil {
		return nil, fmt.Errorf("figurecomposer: no compositionMap component found in prefab")
	}
	return found, nil
}

// --- generic YAML decoding helpers ---

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}

// fileIDString renders a YAML fileID scalar (typically decoded as an
// integer) as the string key used throughout PrefabMap/NodeMap.
func fileIDString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
