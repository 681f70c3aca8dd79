package figurecomposer

// Vec3 is a 3D vector used for local and global node positions.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the componentwise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// BlendMode selects the compositing operation used when a sprite is drawn
// onto the canvas. Each mode is a per-channel blend function over straight
// alpha, defined in blend.go.
type BlendMode uint8

const (
	BlendAlpha     BlendMode = iota // source-over: f(b,f) = f
	BlendMultiply                   // f(b,f) = b*f/255
	BlendOverlay                    // Photoshop-style overlay
	BlendSoftlight                  // Pegtop softlight (not the W3C formula, see DESIGN.md)
)

// String returns the Naninovel material-kind name for the blend mode, the
// inverse of the kind-to-mode lookup in ResolveBlendMode.
func (b BlendMode) String() string {
	switch b {
	case BlendAlpha:
		return "Default"
	case BlendMultiply:
		return "Multiply"
	case BlendOverlay:
		return "Overlay"
	case BlendSoftlight:
		return "Softlight"
	default:
		return "Unknown"
	}
}

// MaskRole describes whether a node's material defines or consumes a named
// alpha mask, parsed from the `#Mask_<K>` / `#Masked_<K>` material-name
// suffix. A node has at most one of SetMask/ApplyMask populated.
type MaskRole struct {
	SetMask   string // non-empty if this node defines mask SetMask
	ApplyMask string // non-empty if this node consumes mask ApplyMask
}
