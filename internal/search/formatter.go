package search

import (
	"fmt"
	"strings"
)

// FormatFragments converts a Response into an ordered list of display
// fragments, one per platform message (§4.12). It issues no I/O.
func FormatFragments(resp Response) []string {
	fragments := []string{formatHeader(resp)}

	for _, group := range resp.Groups {
		docs := make([]string, 0, len(group.Documents))
		for _, doc := range group.Documents {
			docs = append(docs, formatDocument(doc))
		}
		if len(docs) > 0 {
			fragments = append(fragments, strings.Join(docs, "\n\n"))
		}
	}

	return fragments
}

func formatHeader(resp Response) string {
	header := fmt.Sprintf("Found %d results", resp.TotalFound)
	if resp.Error != "" {
		header += "\n" + resp.Error
	}
	return header
}

func formatDocument(doc Document) string {
	title := strings.ReplaceAll(doc.Title, "**", "")

	link := fmt.Sprintf("# **[%s](%s)", title, doc.URL)
	if doc.SavedCopyURL != "" {
		link += fmt.Sprintf(" ([cache](%s))", doc.SavedCopyURL)
	}
	link += "**"

	var b strings.Builder
	b.WriteString(link)

	if doc.ExtendedText != "" {
		b.WriteString("\n> ")
		b.WriteString(doc.ExtendedText)
	}

	for _, passage := range doc.Passages {
		b.WriteString("\n* ")
		b.WriteString(passage)
	}

	return b.String()
}
