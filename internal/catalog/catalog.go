// Package catalog holds the static style presets and aspect ratios offered to the user.
package catalog

import "slices"

const (
	DefaultStyle       = "photorealistic"
	DefaultAspectRatio = "1:1"
)

// StylePreset is a named prompt prefix.
type StylePreset struct {
	ID     string
	Name   string
	Prefix string
}

// AspectRatioOption is an aspect ratio the remote service accepts.
type AspectRatioOption struct {
	ID   string
	Name string
}

var aspectRatios = []AspectRatioOption{
	{ID: "1:1", Name: "Square (1:1)"},
	{ID: "16:9", Name: "Landscape (16:9)"},
	{ID: "9:16", Name: "Portrait (9:16)"},
	{ID: "4:3", Name: "Standard (4:3)"},
	{ID: "3:4", Name: "Standard Portrait (3:4)"},
}

var stylePresets = []StylePreset{
	{ID: "photorealistic", Name: "Photorealistic", Prefix: "award-winning photograph, photorealistic, 8k, sharp focus, hyper-detailed,"},
	{ID: "illustration", Name: "Illustration", Prefix: "digital illustration, vibrant colors, detailed, concept art, by artgerm,"},
	{ID: "3d-render", Name: "3D Render", Prefix: "3d render, octane render, trending on artstation, cinematic, hyper-realistic,"},
	{ID: "watercolor", Name: "Watercolor", Prefix: "watercolor painting, soft wash, delicate, artistic, light colors,"},
	{ID: "cinematic", Name: "Cinematic", Prefix: "cinematic still, dramatic lighting, epic composition, anamorphic lens flare, movie grade,"},
	{ID: "anime", Name: "Anime", Prefix: "anime style, makoto shinkai style, beautiful lighting, detailed background, studio ghibli,"},
	{ID: "minimalist", Name: "Minimalist", Prefix: "minimalist, clean lines, simple, elegant, single object,"},
}

// Styles returns a copy of the style presets in display order.
func Styles() []StylePreset {
	return slices.Clone(stylePresets)
}

// AspectRatios returns a copy of the aspect ratio options in display order.
func AspectRatios() []AspectRatioOption {
	return slices.Clone(aspectRatios)
}

// LookupStyle finds a style preset by id.
func LookupStyle(id string) (StylePreset, bool) {
	i := slices.IndexFunc(stylePresets, func(s StylePreset) bool { return s.ID == id })
	if i < 0 {
		return StylePreset{}, false
	}
	return stylePresets[i], true
}

// LookupAspectRatio finds an aspect ratio option by id.
func LookupAspectRatio(id string) (AspectRatioOption, bool) {
	i := slices.IndexFunc(aspectRatios, func(a AspectRatioOption) bool { return a.ID == id })
	if i < 0 {
		return AspectRatioOption{}, false
	}
	return aspectRatios[i], true
}

// IsAspectRatio reports whether id is a supported aspect ratio.
func IsAspectRatio(id string) bool {
	_, ok := LookupAspectRatio(id)
	return ok
}

// StyleIDs returns the style ids, used for flag validation and help text.
func StyleIDs() []string {
	ids := make([]string, 0, len(stylePresets))
	for _, s := range stylePresets {
		ids = append(ids, s.ID)
	}
	return ids
}

// AspectRatioIDs returns the aspect ratio ids.
func AspectRatioIDs() []string {
	ids := make([]string, 0, len(aspectRatios))
	for _, a := range aspectRatios {
		ids = append(ids, a.ID)
	}
	return ids
}
