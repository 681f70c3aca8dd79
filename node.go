package figurecomposer

import "fmt"

// SpriteInfo is the drawable payload of a Node: presence indicates the node
// is drawable. Carries the renderer's enabled flag, its single material
// GUID, and its size in world units (§3 Node.sprite_renderer).
type SpriteInfo struct {
	Enabled      bool
	MaterialGUID string
	SizeX, SizeY float64
}

// Node is one element of the scene tree, identified by its transform
// fileID. Nodes are built once per run from the prefab map and are
// immutable thereafter except for the memoized GlobalPosition.
type Node struct {
	ID       string
	Name     string
	Children []string // child transform ids, in render-order
	Father   string    // parent transform id, or "0" for the root sentinel

	LocalPosition Vec3

	Sprite *SpriteInfo // nil if this node has no SpriteRenderer component

	globalPosition Vec3
	globalMemoized bool
}

// HasSprite reports whether the node carries a SpriteRenderer component.
func (n *Node) HasSprite() bool {
	return n.Sprite != nil
}

// RenderEnabled reports whether the node's SpriteRenderer is enabled. False
// for nodes with no sprite at all.
func (n *Node) RenderEnabled() bool {
	return n.Sprite != nil && n.Sprite.Enabled
}

// MaterialGUID returns the node's single material GUID, or "" if the node
// has no sprite. The exactly-one-material invariant is enforced when
// BuildTree builds the node (see singleMaterialGUID), so this accessor has
// no error case.
func (n *Node) MaterialGUID() string {
	if n.Sprite == nil {
		return ""
	}
	return n.Sprite.MaterialGUID
}

// SpriteSize returns the SpriteRenderer's world-unit (w, h), or (0, 0) if
// the node has no sprite.
func (n *Node) SpriteSize() (float64, float64) {
	if n.Sprite == nil {
		return 0, 0
	}
	return n.Sprite.SizeX, n.Sprite.SizeY
}

// NodeMap is the flat id -> *Node lookup table produced by BuildTree,
// alongside the rooted tree it indexes.
type NodeMap map[string]*Node

// GlobalPosition computes node's global position lazily: if memoized,
// return it; else recursively compute the father's global position and add
// componentwise. The root's global position equals its local position
// (§4.1). The result is cached on n — write-once per node, since the tree
// is immutable after construction.
func (nm NodeMap) GlobalPosition(n *Node) Vec3 {
	if n.globalMemoized {
		return n.globalPosition
	}
	if n.Father == "0" {
		n.globalPosition = n.LocalPosition
		n.globalMemoized = true
		return n.globalPosition
	}
	father, ok := nm[n.Father]
	if !ok {
		// Dangling parent reference; treat as root rather than panicking.
		// BuildTree validates child ids but not father ids, so this case
		// can be reached.
		n.globalPosition = n.LocalPosition
		n.globalMemoized = true
		return n.globalPosition
	}
	n.globalPosition = n.LocalPosition.Add(nm.GlobalPosition(father))
	n.globalMemoized = true
	return n.globalPosition
}

// BuildTree consumes the prefab's flat id->record map and produces a rooted
// tree of Node values plus a flat NodeMap keyed by transform id (§4.1).
//
// Algorithm: iterate all records; for each GameObject, scan its component
// list, resolve each referenced record, and populate a new Node. The
// Transform component supplies the node's own id, child-id list, father id,
// and local position; a SpriteRenderer component, if present, is attached
// verbatim. The node whose father == "0" is the root; it is a fatal error
// if none exists or more than one does.
func BuildTree(prefab PrefabMap) (*Node, NodeMap, error) {
	nodeMap := make(NodeMap)
	var root *Node

	for _, rec := range prefab {
		if rec.Kind != RecordGameObject {
			continue
		}
		node, err := buildNodeFromGameObject(rec.GameObject, prefab)
		if err != nil {
			return nil, nil, err
		}
		if node == nil {
			continue
		}
		nodeMap[node.ID] = node
	}

	for _, n := range nodeMap {
		if n.Father == "0" {
			if root != nil {
				return nil, nil, fmt.Errorf("figurecomposer: multiple root nodes found (%q and %q)", root.ID, n.ID)
			}
			root = n
		}
	}
	if root == nil {
		return nil, nil, fmt.Errorf("figurecomposer: no root node found (no Transform with father \"0\")")
	}

	for _, n := range nodeMap {
		for _, childID := range n.Children {
			if _, ok := nodeMap[childID]; !ok {
				return nil, nil, fmt.Errorf("figurecomposer: dangling child id %q referenced by node %q", childID, n.Name)
			}
		}
	}

	root.globalPosition = root.LocalPosition
	root.globalMemoized = true

	return root, nodeMap, nil
}

func buildNodeFromGameObject(go_ *GameObjectRecord, prefab PrefabMap) (*Node, error) {
	node := &Node{Name: go_.Name}
	var sawTransform bool

	for _, compID := range go_.Components {
		rec, ok := prefab[compID]
		if !ok {
			continue
		}
		switch rec.Kind {
		case RecordTransform:
			sawTransform = true
			node.ID = compID
			node.Children = rec.Transform.Children
			node.Father = rec.Transform.Father
			node.LocalPosition = rec.Transform.LocalPosition
		case RecordSpriteRenderer:
			guid, err := singleMaterialGUID(rec.SpriteRenderer, go_.Name)
			if err != nil {
				return nil, err
			}
			node.Sprite = &SpriteInfo{
				Enabled:      rec.SpriteRenderer.Enabled,
				MaterialGUID: guid,
				SizeX:        rec.SpriteRenderer.SizeX,
				SizeY:        rec.SpriteRenderer.SizeY,
			}
		}
	}

	if !sawTransform {
		return nil, nil
	}
	return node, nil
}

// singleMaterialGUID enforces the "exactly one material" invariant (§4.1,
// §9 Multi-material assertion): more than one material entry is fatal.
func singleMaterialGUID(sr *SpriteRendererRecord, nodeName string) (string, error) {
	switch len(sr.MaterialGUIDs) {
	case 0:
		return "", fmt.Errorf("figurecomposer: SpriteRenderer on node %q has no material", nodeName)
	case 1:
		return sr.MaterialGUIDs[0], nil
	default:
		return "", fmt.Errorf("figurecomposer: SpriteRenderer on node %q has %d materials, want exactly 1", nodeName, len(sr.MaterialGUIDs))
	}
}
