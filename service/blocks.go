package service

import (
	"regexp"
	"strings"

	"credit-advisor/domain"
)

var (
	headingLine  = regexp.MustCompile(`^\*\*(.*)\*\*$`)
	numberedLine = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	bulletLine   = regexp.MustCompile(`^[-*]\s+(.*)$`)
)

// ParseBlocks splits recommendation text into headings, paragraphs and lists.
// Consecutive items of the same list kind merge into one block; a blank line or
// any other kind of line ends the list.
func ParseBlocks(text string) []domain.Block {
	blocks := []domain.Block{}
	var list *domain.Block

	flush := func() {
		if list != nil {
			blocks = append(blocks, *list)
			list = nil
		}
	}
	addItem := func(kind domain.BlockType, item string) {
		if list != nil && list.Type != kind {
			flush()
		}
		if list == nil {
			list = &domain.Block{Type: kind}
		}
		list.Items = append(list.Items, item)
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}

		if m := headingLine.FindStringSubmatch(trimmed); m != nil && len(trimmed) > 4 {
			flush()
			text := strings.TrimSpace(m[1])
			// inner bold spans: the outer markers do not pair, keep the line
			if strings.Contains(text, "**") {
				text = trimmed
			}
			blocks = append(blocks, domain.Block{Type: domain.BlockHeading, Text: text})
		} else if m := numberedLine.FindStringSubmatch(trimmed); m != nil {
			addItem(domain.BlockNumberedList, m[1])
		} else if m := bulletLine.FindStringSubmatch(trimmed); m != nil {
			addItem(domain.BlockBulletList, m[1])
		} else {
			flush()
			blocks = append(blocks, domain.Block{Type: domain.BlockParagraph, Text: trimmed})
		}
	}
	flush()

	return blocks
}
