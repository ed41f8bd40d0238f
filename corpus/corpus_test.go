package corpus

import (
	"reflect"
	"strings"
	"testing"
)

const sampleTSV = `// questions and answers, test fixture
	What should I eat today?	Light meals only.
no_example	What is my user id?	It is on your appointment letter.
img=diet.png	Can you show me the diet?	Here is the diet sheet.
3
	What should I eat today?	Only clear liquids from now on.
	Should I stop taking iron?	Yes, stop iron supplements now.
-1	copy	3
0
	What should I eat today?	Nothing by mouth, please.
`

func parseSample(t *testing.T) *Corpus {
	t.Helper()
	c, err := ParseTSV(strings.NewReader(sampleTSV))
	if err != nil {
		t.Fatalf("ParseTSV: %v", err)
	}
	return c
}

func TestParseTSVSections(t *testing.T) {
	c := parseSample(t)

	if len(c.General) != 3 {
		t.Errorf("general section size = %d, want 3", len(c.General))
	}
	if len(c.ByDay) != 3 {
		t.Errorf("day keys = %d, want 3 (3, -1, 0)", len(c.ByDay))
	}

	day3, ok := c.ForDay(3)
	if !ok {
		t.Fatal("day 3 section missing")
	}
	if got := day3["What should I eat today?"].Answer; got != "Only clear liquids from now on." {
		t.Errorf("day 3 answer = %q", got)
	}

	if _, ok := c.ForDay(7); ok {
		t.Error("day 7 should not exist")
	}
}

func TestCopyLinkAliasesSection(t *testing.T) {
	c := parseSample(t)

	day3, _ := c.ForDay(3)
	dayM1, ok := c.ForDay(-1)
	if !ok {
		t.Fatal("day -1 section missing")
	}

	// Copy links alias the same Section object, so the entries are shared,
	// pointer-identical values.
	if len(dayM1) != len(day3) {
		t.Fatalf("aliased section sizes differ: %d vs %d", len(dayM1), len(day3))
	}
	for q, e := range day3 {
		if dayM1[q] != e {
			t.Errorf("entry %q not shared between aliased sections", q)
		}
	}
}

func TestParseTSVActions(t *testing.T) {
	c := parseSample(t)

	plain := c.General["What should I eat today?"]
	if len(plain.Actions) != 0 || plain.Command() != "" {
		t.Errorf("plain entry has actions: %v", plain.Actions)
	}

	flagged := c.General["What is my user id?"]
	if !flagged.HasAction(ActionNoExample) {
		t.Error("no_example flag lost")
	}

	img := c.General["Can you show me the diet?"]
	if got := img.Command(); got != "img=diet.png" {
		t.Errorf("Command() = %q", got)
	}
	if !strings.HasPrefix(img.Command(), ActionImagePrefix) {
		t.Error("image command prefix lost")
	}
}

func TestQuestionsDeduplicatesAcrossSections(t *testing.T) {
	c := parseSample(t)

	qs := c.Questions()
	want := []string{
		"Can you show me the diet?",
		"Should I stop taking iron?",
		"What is my user id?",
		"What should I eat today?",
	}
	if !reflect.DeepEqual(qs, want) {
		t.Errorf("Questions() = %v, want %v", qs, want)
	}
}

func TestParseTSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"wrong field count", "only two\tfields\n"},
		{"empty question", "\t\tanswer\n"},
		{"copy of unknown day", "5\tcopy\t9\n"},
		{"bad copy target", "5\tcopy\tx\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTSV(strings.NewReader(tt.input)); err == nil {
				t.Error("ParseTSV: expected error")
			}
		})
	}
}

func TestParseSynonymTSV(t *testing.T) {
	input := "// comment\ndrink\tsip\tbeverage\n\nsingle\nfood\teat\n"
	lines, err := ParseSynonymTSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"drink", "sip", "beverage"},
		{"food", "eat"},
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("ParseSynonymTSV = %v, want %v", lines, want)
	}
}
