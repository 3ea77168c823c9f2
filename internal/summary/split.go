package summary

import "strings"

// Section is one heading/body pair of a rendered summary
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Split breaks summary text on HeadingMarker. Segments at odd positions are
// headings, even positions are bodies. Empty segments are dropped and a body
// with no preceding heading gets an empty Heading.
func Split(text string) []Section {
	var (
		sections []Section
		current  *Section
	)

	for i, segment := range strings.Split(text, HeadingMarker) {
		if i%2 == 1 {
			heading := strings.TrimSpace(strings.ReplaceAll(segment, ":", ""))
			if heading == "" {
				continue
			}
			sections = append(sections, Section{Heading: heading})
			current = &sections[len(sections)-1]
			continue
		}

		body := strings.TrimSpace(strings.ReplaceAll(segment, "*", ""))
		if body == "" {
			continue
		}
		if current == nil || current.Body != "" {
			sections = append(sections, Section{Body: body})
			current = &sections[len(sections)-1]
			continue
		}
		current.Body = body
	}

	return sections
}
