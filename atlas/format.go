package atlas

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Type tags a tile or page with its lightmap kind and channel layout.
//
// The low nibble holds the kind ([Diffuse], [BumpMap0], [BumpMap1]);
// [Alpha] is an independent flag.
type Type uint8

const (
	// Diffuse is a plain colour lightmap.
	Diffuse Type = 0

	// BumpMap0 is the colour half of a directional lightmap.
	BumpMap0 Type = 1

	// BumpMap1 is the direction half of a directional lightmap.
	BumpMap1 Type = 2

	// KindMask selects the kind bits of a Type.
	KindMask Type = 0x0F

	// Alpha marks lightmaps that carry an alpha channel.
	Alpha Type = 1 << 4
)

// Kind returns the kind bits without flags.
func (t Type) Kind() Type {
	return t & KindMask
}

// HasAlpha reports whether the type carries an alpha channel.
func (t Type) HasAlpha() bool {
	return t&Alpha != 0
}

// Directional reports whether tiles of this type carry a direction channel.
func (t Type) Directional() bool {
	return t.Kind() == BumpMap0
}

// BPP returns the bytes per texel of the colour channel.
// Direction pages are always RGB.
func (t Type) BPP() int {
	if t.Kind() != BumpMap1 && t.HasAlpha() {
		return 4
	}
	return 3
}

// Companion returns the type of the direction page that follows a
// BumpMap0 page.
func (t Type) Companion() Type {
	return BumpMap1 | (t &^ KindMask)
}

// TextureFormat returns the GPU format a page of this type is uploaded as.
// WebGPU has no 3-byte formats, so RGB pages are expanded to RGBA on upload.
// Colour pages are sampled as sRGB; direction pages hold encoded vectors
// and stay linear.
func (t Type) TextureFormat() gputypes.TextureFormat {
	if t.Kind() == BumpMap1 {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return gputypes.TextureFormatRGBA8UnormSrgb
}

// String returns a readable name such as "bumpmap0+alpha".
func (t Type) String() string {
	var sb strings.Builder
	switch t.Kind() {
	case Diffuse:
		sb.WriteString("diffuse")
	case BumpMap0:
		sb.WriteString("bumpmap0")
	case BumpMap1:
		sb.WriteString("bumpmap1")
	default:
		sb.WriteString("unknown")
	}
	if t.HasAlpha() {
		sb.WriteString("+alpha")
	}
	return sb.String()
}
