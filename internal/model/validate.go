package model

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"unicode/utf8"

	"github.com/and161185/ohmylink/internal/errs"
)

var hexColor = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// Validate checks every scalar group and child record of p.
func (p Profile) Validate() error {
	ve := &errs.ValidationError{}
	for _, g := range Groups {
		ve.Merge(validateGroup(p, g))
	}
	seen := make(map[string]bool, len(p.Links)+len(p.Socials))
	for i, l := range p.Links {
		prefix := fmt.Sprintf("links[%d].", i)
		if err, ok := l.Validate().(*errs.ValidationError); ok {
			ve.Merge(err.Prefix(prefix))
		}
		checkRecordIdentity(ve, prefix, l.ID, l.Position, i, seen)
	}
	for i, s := range p.Socials {
		prefix := fmt.Sprintf("socials[%d].", i)
		if err, ok := s.Validate().(*errs.ValidationError); ok {
			ve.Merge(err.Prefix(prefix))
		}
		checkRecordIdentity(ve, prefix, s.ID, s.Position, i, seen)
	}
	return ve.OrNil()
}

// ValidateGroup checks the fields of a single scalar group of p.
func ValidateGroup(p Profile, g ScalarGroup) error {
	return validateGroup(p, g).OrNil()
}

func validateGroup(p Profile, g ScalarGroup) *errs.ValidationError {
	ve := &errs.ValidationError{}
	switch g {
	case GroupProfile:
		if n := utf8.RuneCountInString(p.DisplayName); n < 1 || n > 50 {
			ve.Add("display_name", "must be 1..50 characters")
		}
		if utf8.RuneCountInString(p.Bio) > 160 {
			ve.Add("bio", "must be at most 160 characters")
		}
		if p.AvatarURL != "" && !isAbsURL(p.AvatarURL) {
			ve.Add("avatar_url", "must be an absolute URL")
		}
	case GroupLayout:
		if !slices.Contains([]Layout{LayoutCenter, LayoutLeftStack, LayoutLeftRow}, p.Layout) {
			ve.Add("layout", fmt.Sprintf("unknown layout %q", p.Layout))
		}
	case GroupBackground:
		b := p.Background
		switch f := b.Fill.(type) {
		case ColorFill:
			checkColor(ve, "color", f.Color)
		case GradientFill:
			checkColor(ve, "gradient_from", f.From)
			checkColor(ve, "gradient_to", f.To)
		case WallpaperFill:
			if f.Preset == "" {
				ve.Add("wallpaper", "required")
			}
		case ImageFill:
			if !isAbsURL(f.URL) {
				ve.Add("image", "must be an absolute URL")
			}
		default:
			ve.Add("type", "required")
		}
		checkRange(ve, "blur_amount", b.BlurAmount, 0, 40)
		checkRange(ve, "padding", b.Padding, 0, 100)
	case GroupEffects:
		e := p.Effects
		checkRange(ve, "blur", e.Blur, 0, 20)
		checkRange(ve, "noise", e.Noise, 0, 100)
		checkRange(ve, "brightness", e.Brightness, 50, 150)
		checkRange(ve, "saturation", e.Saturation, 0, 200)
		checkRange(ve, "contrast", e.Contrast, 50, 150)
	case GroupPattern:
		pt := p.Pattern
		if !slices.Contains([]PatternType{PatternNone, PatternGrid, PatternDots, PatternStripes, PatternWaves, PatternNoise}, pt.Type) {
			ve.Add("type", fmt.Sprintf("unknown pattern %q", pt.Type))
		}
		checkColor(ve, "color", pt.Color)
		checkRange(ve, "opacity", pt.Opacity, 0, 50)
		checkRange(ve, "thickness", pt.Thickness, 13, 200)
		checkRange(ve, "scale", pt.Scale, 13, 200)
	case GroupTexture:
		if p.CardTexture != TextureBase && p.CardTexture != TextureGlassy {
			ve.Add("card_texture", fmt.Sprintf("unknown texture %q", p.CardTexture))
		}
	case GroupTheme:
		if !slices.Contains(Themes, p.ThemeID) {
			ve.Add("theme_id", fmt.Sprintf("unknown theme %q", p.ThemeID))
		}
	default:
		ve.Add("group", fmt.Sprintf("unknown scalar group %q", g))
	}
	if len(ve.Fields) == 0 {
		return nil
	}
	return ve.Prefix(string(g) + ".")
}

// Validate checks a link's fields.
func (l Link) Validate() error {
	ve := &errs.ValidationError{}
	if n := utf8.RuneCountInString(l.Title); n < 1 || n > 100 {
		ve.Add("title", "must be 1..100 characters")
	}
	if !isAbsURL(l.URL) {
		ve.Add("url", "must be an absolute URL")
	}
	if utf8.RuneCountInString(l.Description) > 500 {
		ve.Add("description", "must be at most 500 characters")
	}
	if l.ImageURL != "" && !isAbsURL(l.ImageURL) {
		ve.Add("image_url", "must be an absolute URL")
	}
	if l.VideoURL != "" && !isAbsURL(l.VideoURL) {
		ve.Add("video_url", "must be an absolute URL")
	}
	if l.BackgroundColor != "" {
		checkColor(ve, "background_color", l.BackgroundColor)
	}
	return ve.OrNil()
}

// Validate checks a social link's fields.
func (s Social) Validate() error {
	ve := &errs.ValidationError{}
	if !slices.Contains(SocialPlatforms, s.Platform) {
		ve.Add("platform", fmt.Sprintf("unknown platform %q", s.Platform))
	}
	switch {
	case s.Platform == "email":
		u, err := url.Parse(s.URL)
		if err != nil || u.Scheme != "mailto" || u.Opaque == "" {
			ve.Add("url", "must be a mailto: address")
		}
	case !isAbsURL(s.URL):
		ve.Add("url", "must be an absolute URL")
	}
	return ve.OrNil()
}

func checkRecordIdentity(ve *errs.ValidationError, prefix, id string, pos, idx int, seen map[string]bool) {
	if id == "" {
		ve.Add(prefix+"id", "required")
	} else if seen[id] {
		ve.Add(prefix+"id", "duplicate id")
	}
	seen[id] = true
	if pos != idx {
		ve.Add(prefix+"position", fmt.Sprintf("is %d, want %d", pos, idx))
	}
}

func checkColor(ve *errs.ValidationError, field, v string) {
	if !hexColor.MatchString(v) {
		ve.Add(field, "must be a hex colour (#rgb or #rrggbb)")
	}
}

func checkRange(ve *errs.ValidationError, field string, v, lo, hi int) {
	if v < lo || v > hi {
		ve.Add(field, fmt.Sprintf("must be within %d..%d", lo, hi))
	}
}

func isAbsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
