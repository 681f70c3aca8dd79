package figurecomposer

import (
	"fmt"
	"strings"
)

// MaterialTable maps a 32-hex-character GUID to its material name, as
// supplied by the ExportLocator (§3 Material, §6 Material/*.meta).
type MaterialTable map[string]string

// naninovelPrefix maps a material-name Kind prefix to its BlendMode, in the
// order they're tried (longest/most-specific first isn't needed — the
// names are disjoint prefixes).
var naninovelPrefix = []struct {
	prefix string
	mode   BlendMode
}{
	{"Naninovel_Default", BlendAlpha},
	{"Naninovel_Multiply", BlendMultiply},
	{"Naninovel_Overlay", BlendOverlay},
	{"Naninovel_Softlight", BlendSoftlight},
}

// ResolveBlendMode parses a material's BlendMode from its name, of the form
// `Naninovel_<Kind>[#<MaskTag>_<Key>]` (§3 Material). An unrecognized Kind
// prefix is a fatal semantic error (§7).
func ResolveBlendMode(materials MaterialTable, guid string) (BlendMode, error) {
	name, ok := materials[guid]
	if !ok {
		return 0, fmt.Errorf("figurecomposer: material guid %q not found in material table", guid)
	}
	kind := name
	if i := strings.IndexByte(kind, '#'); i != -1 {
		kind = kind[:i]
	}
	for _, p := range naninovelPrefix {
		if kind == p.prefix {
			return p.mode, nil
		}
	}
	return 0, fmt.Errorf("figurecomposer: unsupported material name %q (guid %s)", name, guid)
}

// ResolveMaskRole parses a material's mask role from its name's `#`-suffix:
// `Mask_<K>` (this node defines mask K), `Masked_<K>` (this node consumes
// mask K), or absent (§3 Material). K is the single segment between the
// first and second underscore; anything past a second underscore is
// discarded, matching the source's unlimited `split('_')[1]`.
func ResolveMaskRole(materials MaterialTable, guid string) (MaskRole, error) {
	name, ok := materials[guid]
	if !ok {
		return MaskRole{}, fmt.Errorf("figurecomposer: material guid %q not found in material table", guid)
	}
	i := strings.IndexByte(name, '#')
	if i == -1 {
		return MaskRole{}, nil
	}
	tag := name[i+1:]
	parts := strings.Split(tag, "_")
	if len(parts) < 2 {
		return MaskRole{}, nil
	}
	switch parts[0] {
	case "Mask":
		return MaskRole{SetMask: parts[1]}, nil
	case "Masked":
		return MaskRole{ApplyMask: parts[1]}, nil
	default:
		return MaskRole{}, nil
	}
}
