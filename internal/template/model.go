package template

// Canvas dimensions shared by every template.
const (
	CanvasWidth  = 1080
	CanvasHeight = 1080
)

type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

type Caption struct {
	Text                 string `json:"text" yaml:"text"`
	Position             Point  `json:"position" yaml:"position"`
	MaxCharactersPerLine int    `json:"max_characters_per_line" yaml:"max_characters_per_line"`
	FontSize             int    `json:"font_size" yaml:"font_size"`
	Alignment            string `json:"alignment" yaml:"alignment"`
	TextColor            string `json:"text_color" yaml:"text_color"`
}

type CTA struct {
	Text            string `json:"text" yaml:"text"`
	Position        Point  `json:"position" yaml:"position"`
	TextColor       string `json:"text_color" yaml:"text_color"`
	BackgroundColor string `json:"background_color" yaml:"background_color"`
	// FontSize falls back to the caption font size when zero.
	FontSize int `json:"font_size,omitempty" yaml:"font_size,omitempty"`
}

type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

type URLs struct {
	Mask          string `json:"mask" yaml:"mask"`
	Stroke        string `json:"stroke" yaml:"stroke"`
	DesignPattern string `json:"design_pattern" yaml:"design_pattern"`
}

// Template describes the fixed layout of a card. Values are treated as
// immutable once loaded; pass them by value.
type Template struct {
	Caption   Caption `json:"caption" yaml:"caption"`
	CTA       CTA     `json:"cta" yaml:"cta"`
	ImageMask Rect    `json:"image_mask" yaml:"image_mask"`
	URLs      URLs    `json:"urls" yaml:"urls"`
}

// CTAFontSize returns the font size used for the call-to-action label.
func (t Template) CTAFontSize() int {
	if t.CTA.FontSize > 0 {
		return t.CTA.FontSize
	}
	return t.Caption.FontSize
}

// Default returns the landscape template the editor ships with.
func Default() Template {
	return Template{
		Caption: Caption{
			Position:             Point{X: 50, Y: 50},
			MaxCharactersPerLine: 31,
			FontSize:             44,
			Alignment:            "left",
			TextColor:            "#FFFFFF",
		},
		CTA: CTA{
			Position:        Point{X: 190, Y: 320},
			TextColor:       "#FFFFFF",
			BackgroundColor: "#000000",
		},
		ImageMask: Rect{X: 56, Y: 442, Width: 970, Height: 600},
		URLs: URLs{
			Mask:          "https://d273i1jagfl543.cloudfront.net/templates/global_temp_landscape_temp_10_mask.png",
			Stroke:        "https://d273i1jagfl543.cloudfront.net/templates/global_temp_landscape_temp_10_Mask_stroke.png",
			DesignPattern: "https://d273i1jagfl543.cloudfront.net/templates/global_temp_landscape_temp_10_Design_Pattern.png",
		},
	}
}
