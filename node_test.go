package figurecomposer

import "testing"

// buildFixturePrefab constructs a small PrefabMap directly (bypassing YAML
// parsing) for tree-shape tests:
//
//	root(0,0,0)
//	├── a(1,1,0)  [sprite, size 2x2]
//	└── b(2,2,0)
//	    └── c(1,1,0) [sprite, size 1x1]
func buildFixturePrefab(t *testing.T) PrefabMap {
	t.Helper()
	return PrefabMap{
		"root-go": {Kind: RecordGameObject, GameObject: &GameObjectRecord{Name: "Root", Components: []string{"root-tf"}}},
		"root-tf": {Kind: RecordTransform, Transform: &TransformRecord{
			Children: []string{"a-tf", "b-tf"}, Father: "0", LocalPosition: Vec3{0, 0, 0},
		}},
		"a-go": {Kind: RecordGameObject, GameObject: &GameObjectRecord{Name: "A", Components: []string{"a-tf", "a-sr"}}},
		"a-tf": {Kind: RecordTransform, Transform: &TransformRecord{
			Father: "root-tf", LocalPosition: Vec3{1, 1, 0},
		}},
		"a-sr": {Kind: RecordSpriteRenderer, SpriteRenderer: &SpriteRendererRecord{
			Enabled: true, MaterialGUIDs: []string{"guid-a"}, SizeX: 2, SizeY: 2,
		}},
		"b-go": {Kind: RecordGameObject, GameObject: &GameObjectRecord{Name: "B", Components: []string{"b-tf"}}},
		"b-tf": {Kind: RecordTransform, Transform: &TransformRecord{
			Children: []string{"c-tf"}, Father: "root-tf", LocalPosition: Vec3{2, 2, 0},
		}},
		"c-go": {Kind: RecordGameObject, GameObject: &GameObjectRecord{Name: "C", Components: []string{"c-tf", "c-sr"}}},
		"c-tf": {Kind: RecordTransform, Transform: &TransformRecord{
			Father: "b-tf", LocalPosition: Vec3{1, 1, 0},
		}},
		"c-sr": {Kind: RecordSpriteRenderer, SpriteRenderer: &SpriteRendererRecord{
			Enabled: true, MaterialGUIDs: []string{"guid-c"}, SizeX: 1, SizeY: 1,
		}},
	}
}

func TestBuildTreeRootAndGlobalPosition(t *testing.T) {
	root, nodeMap, err := BuildTree(buildFixturePrefab(t))
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if root.Name != "Root" {
		t.Fatalf("root.Name = %q, want Root", root.Name)
	}
	if got := nodeMap.GlobalPosition(root); got != root.LocalPosition {
		t.Errorf("global(root) = %+v, want %+v", got, root.LocalPosition)
	}

	c := nodeMap["c-tf"]
	b := nodeMap["b-tf"]
	wantC := b.LocalPosition.Add(c.LocalPosition)
	gotC := nodeMap.GlobalPosition(c)
	if gotC != wantC {
		t.Errorf("global(c) = %+v, want %+v (additivity)", gotC, wantC)
	}
}

func TestBuildTreeMultipleRootsIsFatal(t *testing.T) {
	prefab := buildFixturePrefab(t)
	prefab["b-tf"].Transform.Father = "0"
	if _, _, err := BuildTree(prefab); err == nil {
		t.Fatal("expected error for multiple roots, got nil")
	}
}

func TestBuildTreeDanglingChildIsFatal(t *testing.T) {
	prefab := buildFixturePrefab(t)
	prefab["root-tf"].Transform.Children = append(prefab["root-tf"].Transform.Children, "ghost-tf")
	if _, _, err := BuildTree(prefab); err == nil {
		t.Fatal("expected error for dangling child id, got nil")
	}
}

func TestBuildTreeMultipleMaterialsIsFatal(t *testing.T) {
	prefab := buildFixturePrefab(t)
	prefab["a-sr"].SpriteRenderer.MaterialGUIDs = []string{"g1", "g2"}
	if _, _, err := BuildTree(prefab); err == nil {
		t.Fatal("expected error for multi-material renderer, got nil")
	}
}

func TestNodeAccessors(t *testing.T) {
	_, nodeMap, err := BuildTree(buildFixturePrefab(t))
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	a := nodeMap["a-tf"]
	if !a.HasSprite() || !a.RenderEnabled() {
		t.Error("node A should have an enabled sprite")
	}
	w, h := a.SpriteSize()
	if w != 2 || h != 2 {
		t.Errorf("A sprite size = %v,%v, want 2,2", w, h)
	}
	b := nodeMap["b-tf"]
	if b.HasSprite() {
		t.Error("node B should have no sprite")
	}
}
