// Package atlas packs baked lightmap tiles into fixed-size texture pages.
//
// # Overview
//
// An [Atlas] is an ordered set of [Page] values. Each page is a fixed-size
// pixel surface with a binary-tree rectangle packer ([Node]) at its root.
// Tiles are inserted into the first page of a matching [Type] that still
// has room; when none has, a new page is opened. Pages are never resized.
//
//	a, _ := atlas.New(atlas.DefaultConfig())
//	loc, err := a.Insert(atlas.Diffuse, 8, 8, pixels, nil)
//
// # Location ids
//
// Locations are numbered in a stable space that starts at [IDReserved].
// The ids below it name built-in constant tiles ([IDAmbient], [IDBright],
// [IDDark] and their direction companions) that the renderer provides
// without consulting the atlas.
//
// # Directional tiles
//
// A [BumpMap0] page stores colour and is always followed by a [BumpMap1]
// companion page (id+1) holding the per-texel light direction at the same
// coordinates. Companion pages do not run their own packer.
//
// # Thread safety
//
// Atlas, Page and Node are not safe for concurrent use. The bake scheduler
// serialises all writes under its task lock.
package atlas
