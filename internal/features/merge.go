// Package features merges bullet-point feature and advantage blocks across
// models.
package features

import "strings"

// Feature is one bullet item with per-model presence flags.
type Feature struct {
	Text   string          `json:"text"`
	Models map[string]bool `json:"models"`
}

// Blocks is the raw features and advantages text of one model.
type Blocks struct {
	Features   string
	Advantages string
}

// Result holds the merged lists in order of first appearance.
type Result struct {
	Features   []Feature
	Advantages []Feature
}

// IsEmpty reports whether neither list has items.
func (r Result) IsEmpty() bool {
	return len(r.Features) == 0 && len(r.Advantages) == 0
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-")
}

func isHeader(line string) bool {
	l := strings.ToLower(line)
	return l == "features" || l == "advantages"
}

// SplitItems splits a text block into bullet items. A line that does not
// start with a bullet glyph continues the previous item.
func SplitItems(text string) []string {
	var items []string
	current := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isHeader(line) {
			continue
		}
		switch {
		case isBullet(line):
			if current != "" {
				items = append(items, current)
			}
			current = line
		case current != "":
			current += " " + line
		default:
			current = line
		}
	}
	if current != "" {
		items = append(items, current)
	}
	return items
}

// Merge combines every model's blocks, visiting models in order. The first
// model to mention an item creates it; later models only set their flag.
// Models in order but absent from blocks are flagged false everywhere.
func Merge(order []string, blocks map[string]Blocks) Result {
	return Result{
		Features:   mergeKind(order, blocks, func(b Blocks) string { return b.Features }),
		Advantages: mergeKind(order, blocks, func(b Blocks) string { return b.Advantages }),
	}
}

func mergeKind(order []string, blocks map[string]Blocks, text func(Blocks) string) []Feature {
	var out []Feature
	index := make(map[string]int)
	for _, model := range order {
		b, ok := blocks[model]
		if !ok {
			continue
		}
		for _, item := range SplitItems(text(b)) {
			if i, seen := index[item]; seen {
				out[i].Models[model] = true
				continue
			}
			presence := make(map[string]bool, len(order))
			for _, m := range order {
				presence[m] = m == model
			}
			index[item] = len(out)
			out = append(out, Feature{Text: item, Models: presence})
		}
	}
	return out
}
