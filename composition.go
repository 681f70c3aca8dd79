package figurecomposer

import (
	"fmt"
	"log"
	"strings"
)

// ActionKind classifies how a selected node name participates in a figure.
type ActionKind uint8

const (
	ActionInclude ActionKind = iota
	ActionExclude
	ActionExclusiveSelect
)

// Action is the per-node-name entry of the action table produced by
// classifying expanded composition terminals (§4.2 Step 2).
type Action struct {
	Kind  ActionKind
	Child string // populated only when Kind == ActionExclusiveSelect
}

// ActionTable maps a node name to the action selected for it. Later
// definitions in the terminal list overwrite earlier ones for the same
// name, by construction (plain map assignment).
type ActionTable map[string]Action

// ExpandCompositionKeys expands a user-supplied composition-key list
// through compositionMap's macro table (§4.2 Step 1).
//
// Build a dictionary key->composition. Maintain a working list initialized
// with the user's keys. Scan left-to-right with a cursor: if the cursor
// holds a key in the dictionary, splice-replace it with the comma-split
// tokens of its composition (the cursor stays put; expansion continues
// until a terminal sits there); else advance. There is no cycle protection
// in the source; this implementation tracks how deeply each token is nested
// inside expansions and fails with a clear error when a macro sits deeper
// than the number of distinct keys, which only a cycle can cause, rather
// than loop forever (§9 Open question — macro cycles).
func ExpandCompositionKeys(compositionMap []CompositionEntry, keys []string) ([]string, error) {
	dict := make(map[string]string, len(compositionMap))
	for _, e := range compositionMap {
		dict[e.Key] = e.Composition
	}

	list := append([]string(nil), keys...)
	// depth[i] counts the expansions that produced list[i]. In an acyclic
	// compositionMap every chain of nested expansions visits distinct keys,
	// so a macro never sits at depth len(dict) or more; one that does is
	// part of a cycle.
	depth := make([]int, len(list))
	limit := len(dict)

	i := 0
	for i < len(list) {
		key := list[i]
		composition, isMacro := dict[key]
		if !isMacro {
			i++
			continue
		}
		if depth[i] >= limit {
			return nil, fmt.Errorf("figurecomposer: macro cycle detected expanding composition key %q", key)
		}
		tokens := strings.Split(composition, ",")
		tokenDepth := make([]int, len(tokens))
		for j := range tokenDepth {
			tokenDepth[j] = depth[i] + 1
		}
		list = append(list[:i], append(append([]string(nil), tokens...), list[i+1:]...)...)
		depth = append(depth[:i], append(tokenDepth, depth[i+1:]...)...)
	}
	return list, nil
}

// ClassifyActions computes the action table for a list of expanded
// terminals (§4.2 Step 2).
func ClassifyActions(terminals []string) (ActionTable, error) {
	table := make(ActionTable, len(terminals))
	for _, token := range terminals {
		key, action, warn, err := classifyToken(token)
		if err != nil {
			return nil, err
		}
		if warn {
			log.Printf("[figurecomposer] warning: composition item %q has no action sigil, defaulting to include", token)
		}
		table[key] = action
	}
	return table, nil
}

// classifyToken implements the token shapes of §3 CompositionMap / §4.2
// Step 2, in priority order: '>' exclusive-select, '+' include, '-'
// exclude, else implicit include with a warning.
func classifyToken(token string) (key string, action Action, warn bool, err error) {
	switch {
	case strings.Contains(token, ">"):
		idx := strings.Index(token, ">")
		key = token[:idx]
		action = Action{Kind: ActionExclusiveSelect, Child: token[idx+1:]}

	case strings.Contains(token, "+"):
		if strings.HasSuffix(token, "+") {
			key = strings.TrimSuffix(token, "+")
		} else {
			// Middle '+': "a/b/foo+bar" reinterpreted as "a/b/foo/bar".
			key = strings.ReplaceAll(token, "+", "/")
		}
		action = Action{Kind: ActionInclude}

	case strings.Contains(token, "-"):
		if !strings.HasSuffix(token, "-") {
			return "", Action{}, false, fmt.Errorf("figurecomposer: invalid composition item with mid-token '-': %q", token)
		}
		key = strings.TrimSuffix(token, "-")
		action = Action{Kind: ActionExclude}

	default:
		key = token
		action = Action{Kind: ActionInclude}
		warn = true
	}

	// The key always reduces to its final path segment, even for the
	// exclusive-select branch (e.g. "Path/Name>Child" -> key "Name").
	if i := strings.LastIndexByte(key, '/'); i != -1 {
		key = key[i+1:]
	}
	if key == "" {
		return "", Action{}, false, fmt.Errorf("figurecomposer: empty key parsed from composition item %q", token)
	}
	return key, action, warn, nil
}

// Traverse walks the scene tree depth-first preorder from root, applying
// the action table to decide which nodes participate (§4.2 Step 3). The
// result is in original preorder; callers must reverse it before feeding it
// to the Blender (§4.2 Step 4 — the first node in preorder draws last, i.e.
// on top).
//
// includeOnly suppresses the implicit include of unnamed drawable nodes
// when true. The source threads this parameter but never sets it from the
// top-level call; it is preserved here as an option, defaulting to false
// (§9).
func Traverse(root *Node, nodeMap NodeMap, actions ActionTable, includeOnly bool) ([]string, error) {
	return traverseNode(root, nodeMap, actions, includeOnly)
}

func traverseNode(n *Node, nodeMap NodeMap, actions ActionTable, includeOnly bool) ([]string, error) {
	var result []string

	action, hasAction := actions[n.Name]
	switch {
	case hasAction && action.Kind == ActionExclude:
		return result, nil // skip node and entire subtree

	case hasAction && action.Kind == ActionInclude:
		if n.HasSprite() {
			result = append(result, n.ID)
		}

	case hasAction && action.Kind == ActionExclusiveSelect:
		var matched bool
		for _, childID := range n.Children {
			child, ok := nodeMap[childID]
			if !ok || child.Name != action.Child {
				continue
			}
			if !child.HasSprite() {
				return nil, fmt.Errorf("figurecomposer: exclusive-select target %q under %q has no sprite", action.Child, n.Name)
			}
			result = append(result, child.ID)
			matched = true
			break
		}
		if matched {
			return result, nil // subtree consumed, no further traversal
		}
		log.Printf("[figurecomposer] warning: exclusive-select target %q not found under %q, descending into children instead", action.Child, n.Name)

	default:
		if !includeOnly && n.HasSprite() && n.RenderEnabled() {
			result = append(result, n.ID)
		}
	}

	children, err := traverseChildren(n, nodeMap, actions, includeOnly)
	if err != nil {
		return nil, err
	}
	return append(result, children...), nil
}

func traverseChildren(n *Node, nodeMap NodeMap, actions ActionTable, includeOnly bool) ([]string, error) {
	var result []string
	for _, childID := range n.Children {
		child, ok := nodeMap[childID]
		if !ok {
			continue
		}
		ids, err := traverseNode(child, nodeMap, actions, includeOnly)
		if err != nil {
			return nil, err
		}
		result = append(result, ids...)
	}
	return result, nil
}

// Evaluate runs the full DSL evaluation: macro expansion, classification,
// and traversal, returning the ordered, deduplicated-by-construction list
// of selected node ids in original preorder (§4.2).
func Evaluate(compositionMap []CompositionEntry, keys []string, root *Node, nodeMap NodeMap) ([]string, error) {
	terminals, err := ExpandCompositionKeys(compositionMap, keys)
	if err != nil {
		return nil, err
	}
	actions, err := ClassifyActions(terminals)
	if err != nil {
		return nil, err
	}
	return Traverse(root, nodeMap, actions, false)
}

// ReverseIDs returns a new slice with ids in reverse order, implementing
// §4.2 Step 4: the first node in original preorder becomes the last drawn
// (i.e. on top).
func ReverseIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
