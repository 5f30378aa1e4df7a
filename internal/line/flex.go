package line

// Card is one carousel entry.
type Card struct {
	Date     string
	IconURL  string
	ImageURL string
	Message  string
}

// Flex JSON nodes. Only the properties the carousel uses are modeled; the
// marshaled form is handed to the SDK's flex container decoder.

// Carousel is a flex carousel container.
type Carousel struct {
	Type     string       `json:"type"`
	Contents []flexBubble `json:"contents"`
}

type flexBubble struct {
	Type string     `json:"type"`
	Size string     `json:"size,omitempty"`
	Hero *flexImage `json:"hero,omitempty"`
	Body *flexBox   `json:"body,omitempty"`
}

type flexImage struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Size        string `json:"size,omitempty"`
	AspectMode  string `json:"aspectMode,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type flexBox struct {
	Type      string `json:"type"`
	Layout    string `json:"layout"`
	Spacing   string `json:"spacing,omitempty"`
	OffsetTop string `json:"offsetTop,omitempty"`
	Contents  []any  `json:"contents"`
}

type flexText struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	Weight       string `json:"weight,omitempty"`
	Size         string `json:"size,omitempty"`
	Color        string `json:"color,omitempty"`
	Wrap         bool   `json:"wrap,omitempty"`
	Flex         *int   `json:"flex,omitempty"`
	OffsetBottom string `json:"offsetBottom,omitempty"`
}

type flexIcon struct {
	Type         string `json:"type"`
	URL          string `json:"url"`
	Size         string `json:"size,omitempty"`
	Scaling      bool   `json:"scaling,omitempty"`
	OffsetTop    string `json:"offsetTop,omitempty"`
	OffsetBottom string `json:"offsetBottom,omitempty"`
	OffsetStart  string `json:"offsetStart,omitempty"`
}

func intPtr(v int) *int { return &v }

// NewCarousel renders cards in the given order.
func NewCarousel(cards []Card) Carousel {
	bubbles := make([]flexBubble, 0, len(cards))
	for _, card := range cards {
		bubbles = append(bubbles, newBubble(card))
	}
	return Carousel{Type: "carousel", Contents: bubbles}
}

func newBubble(card Card) flexBubble {
	heading, message := cardBody(card)
	return flexBubble{
		Type: "bubble",
		Size: "kilo",
		Hero: &flexImage{
			Type:        "image",
			URL:         card.ImageURL,
			Size:        "full",
			AspectMode:  "cover",
			AspectRatio: "16:9",
		},
		Body: &flexBox{
			Type:     "box",
			Layout:   "vertical",
			Contents: []any{heading, message},
		},
	}
}

// cardBody returns the heading and message nodes. A card without an icon
// gets a plain bold date; otherwise the date and icon share a baseline row
// and both rows are pulled up to make room for the icon.
func cardBody(card Card) (any, *flexBox) {
	message := &flexBox{
		Type:    "box",
		Layout:  "baseline",
		Spacing: "sm",
		Contents: []any{flexText{
			Type:  "text",
			Text:  card.Message,
			Wrap:  true,
			Color: "#8c8c8c",
			Size:  "xs",
			Flex:  intPtr(5),
		}},
	}
	if card.IconURL == "" {
		return flexText{
			Type:         "text",
			Text:         card.Date,
			Weight:       "bold",
			Size:         "md",
			Wrap:         true,
			OffsetBottom: "sm",
		}, message
	}
	message.OffsetTop = "-11px"
	return &flexBox{
		Type:      "box",
		Layout:    "baseline",
		OffsetTop: "-15px",
		Contents: []any{
			flexText{
				Type:   "text",
				Text:   card.Date,
				Weight: "bold",
				Size:   "md",
				Flex:   intPtr(0),
			},
			flexIcon{
				Type:         "icon",
				URL:          card.IconURL,
				Size:         "xxl",
				Scaling:      true,
				OffsetTop:    "md",
				OffsetBottom: "none",
				OffsetStart:  "none",
			},
		},
	}, message
}
