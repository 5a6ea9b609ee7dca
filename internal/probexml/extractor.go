package probexml

import (
	"strings"

	"github.com/beevik/etree"
)

// childText returns the trimmed text of the named child element. The second
// return is false when the parent is nil, the child is missing, or its text
// is blank; a blank element counts as absent.
func childText(parent *etree.Element, tag string) (string, bool) {
	if parent == nil {
		return "", false
	}
	child := parent.SelectElement(tag)
	if child == nil {
		return "", false
	}
	text := strings.TrimSpace(child.Text())
	if text == "" {
		return "", false
	}
	return text, true
}

// ChildText returns the text of the named child element, or def when the
// child is absent. Every field read during normalization goes through here,
// so a field is always either present with a real value or defaulted.
func ChildText(parent *etree.Element, tag, def string) string {
	if text, ok := childText(parent, tag); ok {
		return text
	}
	return def
}

// FirstChildText tries each tag in order and returns the first present child
// text, or def when none of the tags yields a value. The tag order is the
// schema-variant fallback tier.
func FirstChildText(parent *etree.Element, tags []string, def string) string {
	for _, tag := range tags {
		if text, ok := childText(parent, tag); ok {
			return text
		}
	}
	return def
}
