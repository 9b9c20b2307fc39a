package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/and161185/ohmylink/internal/errs"
)

// Fields is a wire-neutral set of field values keyed by snake_case name.
// Values are string, bool or int; numbers decoded from JSON arrive as float64 and are accepted when integral.
type Fields map[string]any

// Keys returns the keys in sorted order.
func (f Fields) Keys() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RecordKind names a child collection of the profile.
type RecordKind string

const (
	KindLink   RecordKind = "link"
	KindSocial RecordKind = "social"
)

// Kinds lists the child collections in reconciliation order.
var Kinds = []RecordKind{KindLink, KindSocial}

// Valid reports whether k is a known collection.
func (k RecordKind) Valid() bool { return k == KindLink || k == KindSocial }

// ScalarGroup names a group of profile scalars that is saved as one unit.
type ScalarGroup string

const (
	GroupProfile    ScalarGroup = "profile"
	GroupLayout     ScalarGroup = "layout"
	GroupBackground ScalarGroup = "background"
	GroupEffects    ScalarGroup = "effects"
	GroupPattern    ScalarGroup = "pattern"
	GroupTexture    ScalarGroup = "texture"
	GroupTheme      ScalarGroup = "theme"
)

// Groups lists every scalar group in reconciliation order.
var Groups = []ScalarGroup{
	GroupProfile, GroupLayout, GroupBackground, GroupEffects, GroupPattern, GroupTexture, GroupTheme,
}

// Valid reports whether g is a known group.
func (g ScalarGroup) Valid() bool {
	for _, x := range Groups {
		if x == g {
			return true
		}
	}
	return false
}

// GroupFields extracts the current values of group g from p.
func GroupFields(p Profile, g ScalarGroup) Fields {
	switch g {
	case GroupProfile:
		return Fields{"display_name": p.DisplayName, "bio": p.Bio, "avatar_url": p.AvatarURL}
	case GroupLayout:
		return Fields{"layout": string(p.Layout)}
	case GroupBackground:
		r := p.Background.Row()
		return Fields{
			"type":          string(r.Type),
			"color":         r.Color,
			"gradient_from": r.GradientFrom,
			"gradient_to":   r.GradientTo,
			"wallpaper":     r.Wallpaper,
			"image":         r.Image,
			"blur_amount":   r.BlurAmount,
			"padding":       r.Padding,
		}
	case GroupEffects:
		e := p.Effects
		return Fields{
			"blur": e.Blur, "noise": e.Noise, "brightness": e.Brightness,
			"saturation": e.Saturation, "contrast": e.Contrast,
		}
	case GroupPattern:
		pt := p.Pattern
		return Fields{
			"type": string(pt.Type), "color": pt.Color, "opacity": pt.Opacity,
			"thickness": pt.Thickness, "scale": pt.Scale,
		}
	case GroupTexture:
		return Fields{"card_texture": string(p.CardTexture)}
	case GroupTheme:
		return Fields{"theme_id": p.ThemeID}
	}
	return nil
}

// ApplyGroup writes the keys present in f into group g of p.
// Keys outside the group and values of the wrong type are rejected; p is untouched on error.
func ApplyGroup(p *Profile, g ScalarGroup, f Fields) error {
	ve := &errs.ValidationError{}
	next := *p
	switch g {
	case GroupProfile:
		checkKeys(ve, f, "display_name", "bio", "avatar_url")
		getString(ve, f, "display_name", &next.DisplayName)
		getString(ve, f, "bio", &next.Bio)
		getString(ve, f, "avatar_url", &next.AvatarURL)
	case GroupLayout:
		checkKeys(ve, f, "layout")
		getString(ve, f, "layout", (*string)(&next.Layout))
	case GroupBackground:
		checkKeys(ve, f, "type", "color", "gradient_from", "gradient_to", "wallpaper", "image", "blur_amount", "padding")
		r := p.Background.Row()
		getString(ve, f, "type", (*string)(&r.Type))
		getString(ve, f, "color", &r.Color)
		getString(ve, f, "gradient_from", &r.GradientFrom)
		getString(ve, f, "gradient_to", &r.GradientTo)
		getString(ve, f, "wallpaper", &r.Wallpaper)
		getString(ve, f, "image", &r.Image)
		getInt(ve, f, "blur_amount", &r.BlurAmount)
		getInt(ve, f, "padding", &r.Padding)
		if len(ve.Fields) == 0 {
			bg, err := r.Background()
			if err != nil {
				ve.Add("type", err.Error())
			}
			next.Background = bg
		}
	case GroupEffects:
		checkKeys(ve, f, "blur", "noise", "brightness", "saturation", "contrast")
		getInt(ve, f, "blur", &next.Effects.Blur)
		getInt(ve, f, "noise", &next.Effects.Noise)
		getInt(ve, f, "brightness", &next.Effects.Brightness)
		getInt(ve, f, "saturation", &next.Effects.Saturation)
		getInt(ve, f, "contrast", &next.Effects.Contrast)
	case GroupPattern:
		checkKeys(ve, f, "type", "color", "opacity", "thickness", "scale")
		getString(ve, f, "type", (*string)(&next.Pattern.Type))
		getString(ve, f, "color", &next.Pattern.Color)
		getInt(ve, f, "opacity", &next.Pattern.Opacity)
		getInt(ve, f, "thickness", &next.Pattern.Thickness)
		getInt(ve, f, "scale", &next.Pattern.Scale)
	case GroupTexture:
		checkKeys(ve, f, "card_texture")
		getString(ve, f, "card_texture", (*string)(&next.CardTexture))
	case GroupTheme:
		checkKeys(ve, f, "theme_id")
		getString(ve, f, "theme_id", &next.ThemeID)
	default:
		ve.Add("group", fmt.Sprintf("unknown scalar group %q", g))
	}
	if err := ve.OrNil(); err != nil {
		return err
	}
	*p = next
	return nil
}

// RecordFields returns the editable fields of l. ID and Position are not fields.
func (l Link) RecordFields() Fields {
	return Fields{
		"title":            l.Title,
		"url":              l.URL,
		"icon":             l.Icon,
		"description":      l.Description,
		"image_url":        l.ImageURL,
		"video_url":        l.VideoURL,
		"stripe_enabled":   l.StripeEnabled,
		"background_color": l.BackgroundColor,
	}
}

// RecordID returns the link id.
func (l Link) RecordID() string { return l.ID }

// Apply writes the keys present in f; l is untouched on error.
func (l *Link) Apply(f Fields) error {
	ve := &errs.ValidationError{}
	next := *l
	checkKeys(ve, f, "title", "url", "icon", "description", "image_url", "video_url", "stripe_enabled", "background_color")
	getString(ve, f, "title", &next.Title)
	getString(ve, f, "url", &next.URL)
	getString(ve, f, "icon", &next.Icon)
	getString(ve, f, "description", &next.Description)
	getString(ve, f, "image_url", &next.ImageURL)
	getString(ve, f, "video_url", &next.VideoURL)
	getBool(ve, f, "stripe_enabled", &next.StripeEnabled)
	getString(ve, f, "background_color", &next.BackgroundColor)
	if err := ve.OrNil(); err != nil {
		return err
	}
	*l = next
	return nil
}

// RecordFields returns the editable fields of s.
func (s Social) RecordFields() Fields {
	return Fields{"platform": s.Platform, "url": s.URL}
}

// RecordID returns the social id.
func (s Social) RecordID() string { return s.ID }

// Apply writes the keys present in f; s is untouched on error.
func (s *Social) Apply(f Fields) error {
	ve := &errs.ValidationError{}
	next := *s
	checkKeys(ve, f, "platform", "url")
	getString(ve, f, "platform", &next.Platform)
	getString(ve, f, "url", &next.URL)
	if err := ve.OrNil(); err != nil {
		return err
	}
	*s = next
	return nil
}

func checkKeys(ve *errs.ValidationError, f Fields, allowed ...string) {
	for _, k := range f.Keys() {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			ve.Add(k, "unknown field")
		}
	}
}

func getString(ve *errs.ValidationError, f Fields, key string, dst *string) {
	v, ok := f[key]
	if !ok {
		return
	}
	s, ok := v.(string)
	if !ok {
		ve.Add(key, fmt.Sprintf("want string, got %T", v))
		return
	}
	*dst = s
}

func getBool(ve *errs.ValidationError, f Fields, key string, dst *bool) {
	v, ok := f[key]
	if !ok {
		return
	}
	b, ok := v.(bool)
	if !ok {
		ve.Add(key, fmt.Sprintf("want bool, got %T", v))
		return
	}
	*dst = b
}

func getInt(ve *errs.ValidationError, f Fields, key string, dst *int) {
	v, ok := f[key]
	if !ok {
		return
	}
	switch n := v.(type) {
	case int:
		*dst = n
	case int32:
		*dst = int(n)
	case int64:
		*dst = int(n)
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			ve.Add(key, "want integer")
			return
		}
		*dst = int(n)
	default:
		ve.Add(key, fmt.Sprintf("want number, got %T", v))
	}
}
