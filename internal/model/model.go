// Package model defines the profile aggregate edited by the editor and stored by the server.
package model

// Layout selects how the profile header is arranged.
type Layout string

const (
	LayoutCenter    Layout = "center"
	LayoutLeftStack Layout = "left-stack"
	LayoutLeftRow   Layout = "left-row"
)

// CardTexture selects the link card surface.
type CardTexture string

const (
	TextureBase   CardTexture = "base"
	TextureGlassy CardTexture = "glassy"
)

// PatternType selects the overlay pattern drawn above the background.
type PatternType string

const (
	PatternNone    PatternType = "none"
	PatternGrid    PatternType = "grid"
	PatternDots    PatternType = "dots"
	PatternStripes PatternType = "stripes"
	PatternWaves   PatternType = "waves"
	PatternNoise   PatternType = "noise"
)

// Profile is the aggregate root: scalar settings plus two ordered child collections.
// ID and Slug identify the aggregate and are never changed by the editor.
type Profile struct {
	ID          string      `json:"id"`
	Slug        string      `json:"slug"`
	DisplayName string      `json:"display_name"`
	Bio         string      `json:"bio"`
	AvatarURL   string      `json:"avatar_url"`
	Layout      Layout      `json:"layout"`
	Background  Background  `json:"background"`
	Effects     Effects     `json:"effects"`
	Pattern     Pattern     `json:"pattern"`
	CardTexture CardTexture `json:"card_texture"`
	ThemeID     string      `json:"theme_id"`
	Links       []Link      `json:"links"`
	Socials     []Social    `json:"socials"`
}

// Effects are image filters applied to the background (percentages, blur in px).
type Effects struct {
	Blur       int `json:"blur"`
	Noise      int `json:"noise"`
	Brightness int `json:"brightness"`
	Saturation int `json:"saturation"`
	Contrast   int `json:"contrast"`
}

// Pattern is the decorative overlay.
type Pattern struct {
	Type      PatternType `json:"type"`
	Color     string      `json:"color"`
	Opacity   int         `json:"opacity"`
	Thickness int         `json:"thickness"`
	Scale     int         `json:"scale"`
}

// Link is a child record of the profile. Position mirrors its index in Profile.Links.
type Link struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Icon            string `json:"icon"`
	Description     string `json:"description"`
	ImageURL        string `json:"image_url"`
	VideoURL        string `json:"video_url"`
	StripeEnabled   bool   `json:"stripe_enabled"`
	BackgroundColor string `json:"background_color"`
	Position        int    `json:"position"`
}

// Social is a social-network link. Position mirrors its index in Profile.Socials.
type Social struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// Clone returns a deep copy; the draft store never shares slices with callers.
func (p Profile) Clone() Profile {
	out := p
	if p.Links != nil {
		out.Links = append([]Link(nil), p.Links...)
	}
	if p.Socials != nil {
		out.Socials = append([]Social(nil), p.Socials...)
	}
	return out
}

// Normalize renumbers positions to match array order.
func (p *Profile) Normalize() {
	renumberLinks(p.Links)
	renumberSocials(p.Socials)
}

// HasTempIDs reports whether any child record has not been persisted yet.
func (p Profile) HasTempIDs() bool {
	for _, l := range p.Links {
		if IsTempID(l.ID) {
			return true
		}
	}
	for _, s := range p.Socials {
		if IsTempID(s.ID) {
			return true
		}
	}
	return false
}
