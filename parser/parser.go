package parser

import (
	"errors"
	"strings"
)

// DefaultLabel is the catch-all section used for content that precedes the
// first numbered heading, or for replies that ignore the numbering format.
const DefaultLabel = "Additional Information"

// ErrEmptyInput is returned when the raw reply is blank or whitespace-only.
var ErrEmptyInput = errors.New("empty analysis text")

// SectionSpec maps a numbered-heading prefix in the model reply to the label
// shown to the user. Order is significant: it is the canonical numbering order.
type SectionSpec struct {
	MatchPrefix  string
	DisplayLabel string
}

// RenderedSection is one labeled block of the sectioned reply.
type RenderedSection struct {
	Label string `json:"label"`
	Body  string `json:"body"`
}

// DefaultSpecs returns the section table matching the analysis prompt.
// Matching is on the leading integer-plus-dot token only, so wording changes
// in the heading after the number still match. Adding a sixth section is a
// table change, not a code change.
func DefaultSpecs() []SectionSpec {
	return []SectionSpec{
		{MatchPrefix: "1.", DisplayLabel: "Product Description"},
		{MatchPrefix: "2.", DisplayLabel: "Packaging Materials"},
		{MatchPrefix: "3.", DisplayLabel: "Estimated Carbon Footprint"},
		{MatchPrefix: "4.", DisplayLabel: "Disposal Instructions"},
		{MatchPrefix: "5.", DisplayLabel: "Eco-Friendly Alternatives"},
	}
}

// NormalizeEscapes converts literal escaped newline sequences in a model
// reply into real line breaks. Doubled escapes are collapsed first so they
// are not left half-converted by the second pass. Text that already contains
// only real line breaks passes through unchanged.
func NormalizeEscapes(s string) string {
	s = strings.ReplaceAll(s, `\\n`, "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	return s
}

// Section splits a raw model reply into labeled sections using the given
// spec table. Every non-blank line ends up in exactly one section: either
// the numbered section it follows, or the catch-all. Section order follows
// first occurrence of matches, with the catch-all preceding the first match
// when unlabeled content comes first.
//
// A heading line with no content after the period still switches the current
// section. A prefix that matches twice reopens a new section under the same
// label rather than merging. Replies with no numbered headings at all come
// back as a single catch-all section holding the full normalized text.
//
// Blank or whitespace-only input yields (nil, ErrEmptyInput). This function
// never panics; malformed input degrades to the catch-all.
func Section(raw string, specs []SectionSpec) ([]RenderedSection, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}

	normalized := NormalizeEscapes(raw)

	currentLabel := DefaultLabel
	var buffer []string
	var sections []RenderedSection

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		sections = append(sections, RenderedSection{
			Label: currentLabel,
			Body:  strings.TrimSpace(strings.Join(buffer, "\n")),
		})
		buffer = nil
	}

	matchedAny := false
	for _, line := range strings.Split(normalized, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		spec, ok := matchSpec(trimmed, specs)
		if !ok {
			buffer = append(buffer, trimmed)
			continue
		}

		matchedAny = true
		flush()
		currentLabel = spec.DisplayLabel
		if rest := headingRemainder(trimmed); rest != "" {
			buffer = append(buffer, rest)
		}
	}
	flush()

	if !matchedAny {
		// The model ignored the numbering format; keep the content anyway.
		return []RenderedSection{{
			Label: DefaultLabel,
			Body:  strings.TrimSpace(normalized),
		}}, nil
	}

	return sections, nil
}

func matchSpec(line string, specs []SectionSpec) (SectionSpec, bool) {
	for _, spec := range specs {
		if strings.HasPrefix(line, spec.MatchPrefix) {
			return spec, true
		}
	}
	return SectionSpec{}, false
}

// headingRemainder returns the content after the first period of a matched
// heading line, which becomes the first content line of the new section.
func headingRemainder(line string) string {
	parts := strings.SplitN(line, ".", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
