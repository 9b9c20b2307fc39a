package model

// Themes lists the colour themes a profile can use.
var Themes = []string{"default", "amber", "cyberpunk", "supabase", "twitter", "vercel", "claude"}

// SocialPlatforms lists the supported social networks.
var SocialPlatforms = []string{
	"x", "instagram", "github", "linkedin", "youtube", "threads", "tiktok",
	"dribbble", "medium", "whatsapp", "telegram", "email", "website",
}

// DefaultPattern is the overlay a new profile starts with.
var DefaultPattern = Pattern{
	Type:      PatternNone,
	Color:     "#ffffff",
	Opacity:   10,
	Thickness: 100,
	Scale:     100,
}

// DefaultProfile returns the aggregate created for a user on first access.
func DefaultProfile(slug string) Profile {
	return Profile{
		Slug:        slug,
		DisplayName: "Brokerish",
		Bio:         "Design and build tools people love",
		Layout:      LayoutCenter,
		Background: Background{
			Fill:       GradientFill{From: "#4f46e5", To: "#ec4899"},
			BlurAmount: 8,
			Padding:    16,
		},
		Effects:     Effects{Blur: 8, Noise: 0, Brightness: 100, Saturation: 100, Contrast: 100},
		Pattern:     DefaultPattern,
		CardTexture: TextureBase,
		ThemeID:     "default",
		Links:       []Link{},
		Socials:     []Social{},
	}
}
