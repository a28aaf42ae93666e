package domain

// BlockType classifies a rendered chunk of recommendation text.
type BlockType string

const (
	BlockHeading      BlockType = "heading"
	BlockParagraph    BlockType = "paragraph"
	BlockNumberedList BlockType = "numbered"
	BlockBulletList   BlockType = "bulleted"
)

// Block is one presentation unit of the recommendation text. Headings and
// paragraphs use Text, lists use Items.
type Block struct {
	Type  BlockType `json:"type"`
	Text  string    `json:"text,omitempty"`
	Items []string  `json:"items,omitempty"`
}

// RecommendationResult is the answer to a recommendation request. Cached is
// reported out of band so that repeated requests produce identical bodies.
type RecommendationResult struct {
	Recommendations string  `json:"recommendations"`
	Blocks          []Block `json:"blocks"`
	Cached          bool    `json:"-"`
}
