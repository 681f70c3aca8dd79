// Package figurecomposer reconstructs differential character portraits
// ("figures") from the unpacked assets of a visual-novel export that uses a
// layered-character system.
//
// The pipeline, in dependency order:
//
//	ExportLocator   -> locates the atlas texture, sprite descriptors, prefab,
//	                   and material table on disk.
//	PrefabLoader    -> parses the prefab into a flat fileID -> record map.
//	BuildTree       -> turns the record map into a rooted Node tree.
//	Evaluate        -> expands a composition-key list through a macro table
//	                   and selects an ordered list of node ids.
//	Atlas           -> crops sprite rectangles out of the decoded atlas.
//	Blender         -> composites cropped sprites onto a canvas using
//	                   per-node blend modes and a named-mask side channel.
//	Driver          -> wires the above together and writes one PNG per
//	                   composition-key list.
//
// A secondary "diced" input replaces the sprite-descriptor/prefab pair with
// mesh assets (see diced.go); quads are reassembled directly onto a canvas
// with no blending.
//
// The core is single-threaded within one figure: node order is the sole
// determinant of visual correctness. Across figures, RunAll processes
// composition-key lists concurrently, since each gets its own canvas and
// mask table and the atlas buffer is shared read-only.
package figurecomposer
