package model

import (
	"encoding/json"
	"fmt"
)

// BackgroundType discriminates the Fill variants.
type BackgroundType string

const (
	BackgroundColor     BackgroundType = "color"
	BackgroundGradient  BackgroundType = "gradient"
	BackgroundWallpaper BackgroundType = "wallpaper"
	BackgroundImage     BackgroundType = "image"
)

// Fill is the closed set of background variants. Exactly one is active.
type Fill interface {
	Type() BackgroundType
	isFill()
}

// ColorFill is a solid colour.
type ColorFill struct{ Color string }

// GradientFill is a two-stop linear gradient.
type GradientFill struct{ From, To string }

// WallpaperFill references a built-in wallpaper preset.
type WallpaperFill struct{ Preset string }

// ImageFill is a user supplied image URL.
type ImageFill struct{ URL string }

func (ColorFill) Type() BackgroundType     { return BackgroundColor }
func (GradientFill) Type() BackgroundType  { return BackgroundGradient }
func (WallpaperFill) Type() BackgroundType { return BackgroundWallpaper }
func (ImageFill) Type() BackgroundType     { return BackgroundImage }

func (ColorFill) isFill()     {}
func (GradientFill) isFill()  {}
func (WallpaperFill) isFill() {}
func (ImageFill) isFill()     {}

// Background holds the active fill plus blur and padding shared by every variant.
type Background struct {
	Fill       Fill
	BlurAmount int
	Padding    int
}

// BackgroundRow is the flat form of Background used on the wire and in storage.
// Only the column matching Type is meaningful.
type BackgroundRow struct {
	Type         BackgroundType `json:"type"`
	Color        string         `json:"color"`
	GradientFrom string         `json:"gradient_from"`
	GradientTo   string         `json:"gradient_to"`
	Wallpaper    string         `json:"wallpaper"`
	Image        string         `json:"image"`
	BlurAmount   int            `json:"blur_amount"`
	Padding      int            `json:"padding"`
}

// Row flattens the background.
func (b Background) Row() BackgroundRow {
	r := BackgroundRow{BlurAmount: b.BlurAmount, Padding: b.Padding}
	switch f := b.Fill.(type) {
	case ColorFill:
		r.Type, r.Color = BackgroundColor, f.Color
	case GradientFill:
		r.Type, r.GradientFrom, r.GradientTo = BackgroundGradient, f.From, f.To
	case WallpaperFill:
		r.Type, r.Wallpaper = BackgroundWallpaper, f.Preset
	case ImageFill:
		r.Type, r.Image = BackgroundImage, f.URL
	}
	return r
}

// Background rebuilds the union from a flat row.
func (r BackgroundRow) Background() (Background, error) {
	b := Background{BlurAmount: r.BlurAmount, Padding: r.Padding}
	switch r.Type {
	case BackgroundColor:
		b.Fill = ColorFill{Color: r.Color}
	case BackgroundGradient:
		b.Fill = GradientFill{From: r.GradientFrom, To: r.GradientTo}
	case BackgroundWallpaper:
		b.Fill = WallpaperFill{Preset: r.Wallpaper}
	case BackgroundImage:
		b.Fill = ImageFill{URL: r.Image}
	default:
		return Background{}, fmt.Errorf("unknown background type %q", r.Type)
	}
	return b, nil
}

func (b Background) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Row())
}

func (b *Background) UnmarshalJSON(data []byte) error {
	var r BackgroundRow
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	bg, err := r.Background()
	if err != nil {
		return err
	}
	*b = bg
	return nil
}
