package parser

import (
	"testing"
)

func TestNormalizeEscapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single escaped newlines",
			input:    `1. A product\n2. Some materials`,
			expected: "1. A product\n2. Some materials",
		},
		{
			name:     "doubled escapes collapse first",
			input:    `A\\nB\nC`,
			expected: "A\nB\nC",
		},
		{
			name:     "already normalized text is unchanged",
			input:    "line one\nline two\nline three",
			expected: "line one\nline two\nline three",
		},
		{
			name:     "mixed real and escaped breaks",
			input:    "first\nsecond\\nthird",
			expected: "first\nsecond\nthird",
		},
		{
			name:     "no escapes at all",
			input:    "just one line",
			expected: "just one line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEscapes(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeEscapes() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSection(t *testing.T) {
	specs := DefaultSpecs()

	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		expected []RenderedSection
	}{
		{
			name: "well-formed five section reply",
			raw: "1. A plastic bottle of mineral water.\n" +
				"2. PET plastic body with an HDPE cap.\n" +
				"3. Roughly 0.25 kg CO2 for production and transport.\n" +
				"4. Rinse and place in the recyclables bin.\n" +
				"5. Reusable glass or stainless steel bottles.",
			expected: []RenderedSection{
				{Label: "Product Description", Body: "A plastic bottle of mineral water."},
				{Label: "Packaging Materials", Body: "PET plastic body with an HDPE cap."},
				{Label: "Estimated Carbon Footprint", Body: "Roughly 0.25 kg CO2 for production and transport."},
				{Label: "Disposal Instructions", Body: "Rinse and place in the recyclables bin."},
				{Label: "Eco-Friendly Alternatives", Body: "Reusable glass or stainless steel bottles."},
			},
		},
		{
			name: "escaped newlines are normalized before splitting",
			raw:  `1. Oat milk carton.\n2. Laminated cardboard.\n3. About 0.4 kg CO2.`,
			expected: []RenderedSection{
				{Label: "Product Description", Body: "Oat milk carton."},
				{Label: "Packaging Materials", Body: "Laminated cardboard."},
				{Label: "Estimated Carbon Footprint", Body: "About 0.4 kg CO2."},
			},
		},
		{
			name: "multi-line section bodies",
			raw: "1. Instant coffee jar.\n" +
				"The jar has a metal lid.\n" +
				"The label is paper.\n" +
				"2. Glass, metal and paper.",
			expected: []RenderedSection{
				{Label: "Product Description", Body: "Instant coffee jar.\nThe jar has a metal lid.\nThe label is paper."},
				{Label: "Packaging Materials", Body: "Glass, metal and paper."},
			},
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "whitespace-only input",
			raw:     "   \n\t  \n ",
			wantErr: true,
		},
		{
			name: "no numbered headings falls back to catch-all",
			raw:  "The image shows a generic cardboard box.\nNo further detail is available.",
			expected: []RenderedSection{
				{Label: "Additional Information", Body: "The image shows a generic cardboard box.\nNo further detail is available."},
			},
		},
		{
			name: "preamble before first heading goes to catch-all first",
			raw: "Here is the analysis you requested.\n" +
				"1. A soda can.\n" +
				"2. Aluminum.",
			expected: []RenderedSection{
				{Label: "Additional Information", Body: "Here is the analysis you requested."},
				{Label: "Product Description", Body: "A soda can."},
				{Label: "Packaging Materials", Body: "Aluminum."},
			},
		},
		{
			name: "heading with no content still switches sections",
			raw: "3.\n" +
				"Approximately 1.2 kg CO2.\n" +
				"4. Dispose with household recycling.",
			expected: []RenderedSection{
				{Label: "Estimated Carbon Footprint", Body: "Approximately 1.2 kg CO2."},
				{Label: "Disposal Instructions", Body: "Dispose with household recycling."},
			},
		},
		{
			name: "duplicate prefix reopens a section under the same label",
			raw: "2. Plastic film.\n" +
				"2. Cardboard sleeve.",
			expected: []RenderedSection{
				{Label: "Packaging Materials", Body: "Plastic film."},
				{Label: "Packaging Materials", Body: "Cardboard sleeve."},
			},
		},
		{
			name: "blank lines are skipped",
			raw: "1. Shampoo bottle.\n" +
				"\n" +
				"   \n" +
				"2. HDPE plastic.",
			expected: []RenderedSection{
				{Label: "Product Description", Body: "Shampoo bottle."},
				{Label: "Packaging Materials", Body: "HDPE plastic."},
			},
		},
		{
			name: "years and decimals do not match heading prefixes",
			raw: "1. Bottled juice.\n" +
				"2023. was the production year printed on the cap.\n" +
				"2. Glass bottle.",
			expected: []RenderedSection{
				{Label: "Product Description", Body: "Bottled juice.\n2023. was the production year printed on the cap."},
				{Label: "Packaging Materials", Body: "Glass bottle."},
			},
		},
		{
			name: "heading wording after the number is ignored for matching",
			raw: "1. General overview of the item: a tea box.\n" +
				"2. Materials spotted: cardboard and foil.",
			expected: []RenderedSection{
				{Label: "Product Description", Body: "General overview of the item: a tea box."},
				{Label: "Packaging Materials", Body: "Materials spotted: cardboard and foil."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Section(tt.raw, specs)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Section() expected error but got none")
				}
				if err != ErrEmptyInput {
					t.Errorf("Section() error = %v, want ErrEmptyInput", err)
				}
				if got != nil {
					t.Errorf("Section() = %v, want nil on error", got)
				}
				return
			}

			if err != nil {
				t.Errorf("Section() unexpected error: %v", err)
				return
			}

			if len(got) != len(tt.expected) {
				t.Fatalf("Section() returned %d sections, want %d: %v", len(got), len(tt.expected), got)
			}

			for i := range got {
				if got[i].Label != tt.expected[i].Label {
					t.Errorf("Section()[%d].Label = %q, want %q", i, got[i].Label, tt.expected[i].Label)
				}
				if got[i].Body != tt.expected[i].Body {
					t.Errorf("Section()[%d].Body = %q, want %q", i, got[i].Body, tt.expected[i].Body)
				}
			}
		})
	}
}

func TestSectionFiveHeadingsInOrder(t *testing.T) {
	specs := DefaultSpecs()
	raw := "1. a\n2. b\n3. c\n4. d\n5. e"

	got, err := Section(raw, specs)
	if err != nil {
		t.Fatalf("Section() unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Section() returned %d sections, want 5", len(got))
	}
	for i, spec := range specs {
		if got[i].Label != spec.DisplayLabel {
			t.Errorf("Section()[%d].Label = %q, want %q", i, got[i].Label, spec.DisplayLabel)
		}
	}
}

func TestSectionCustomSpecTable(t *testing.T) {
	// A sixth entry is a data change only.
	specs := append(DefaultSpecs(), SectionSpec{MatchPrefix: "6.", DisplayLabel: "Certifications"})

	got, err := Section("5. Buy loose produce.\n6. Look for FSC labels.", specs)
	if err != nil {
		t.Fatalf("Section() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Section() returned %d sections, want 2", len(got))
	}
	if got[1].Label != "Certifications" {
		t.Errorf("Section()[1].Label = %q, want %q", got[1].Label, "Certifications")
	}
	if got[1].Body != "Look for FSC labels." {
		t.Errorf("Section()[1].Body = %q, want %q", got[1].Body, "Look for FSC labels.")
	}
}
