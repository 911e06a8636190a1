package parser

import (
	"regexp"
	"strings"
)

// FenceMarker is the literal that forces a turn to the executor.
const FenceMarker = "```"

// CodeBlock is one fenced block lifted from a message.
type CodeBlock struct {
	Language string
	Code     string
}

var fencedBlock = regexp.MustCompile("(?s)```([A-Za-z0-9_+.-]*)[ \t]*\r?\n(.*?)```")

// ExtractCodeBlocks returns all fenced blocks in order of appearance.
func ExtractCodeBlocks(content string) []CodeBlock {
	matches := fencedBlock.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, CodeBlock{
			Language: strings.ToLower(strings.TrimSpace(m[1])),
			Code:     m[2],
		})
	}
	return blocks
}

func HasCodeFence(content string) bool {
	return strings.Contains(content, FenceMarker)
}

// HasHTMLDocument reports whether the content embeds a full HTML document,
// the condition that triggers the backend-to-frontend handoff.
func HasHTMLDocument(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html")
}
