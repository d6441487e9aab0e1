package llm

import "fmt"

// Section is one list of context lines in the system prompt.
type Section struct {
	Title string
	Lines []string
	Empty string // shown when Lines is empty
	// Newest lines are last; trim from the front instead of the end.
	KeepTail bool
}

// TrimSections shrinks sections until their lines fit within maxTokens.
//
// Lines are dropped from the end of whichever section is currently largest,
// so the earliest deadlines and the soonest events survive; KeepTail sections
// lose their oldest lines instead. Every section keeps at least one line, and
// a section that lost lines gets an "... and N more" marker so the model
// knows the list is partial. A non-positive budget disables trimming.
func TrimSections(sections []Section, maxTokens int) []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	if maxTokens <= 0 {
		return out
	}

	dropped := make([]int, len(out))
	sizes := make([]int, len(out))
	total := 0
	for i, s := range out {
		sizes[i] = EstimateLinesTokens(s.Lines)
		total += sizes[i]
	}

	for total > maxTokens {
		largest := -1
		for i, s := range out {
			if len(s.Lines) > 1 && (largest < 0 || sizes[i] > sizes[largest]) {
				largest = i
			}
		}
		if largest < 0 {
			break
		}
		s := &out[largest]
		var gone string
		if s.KeepTail {
			gone, s.Lines = s.Lines[0], s.Lines[1:]
		} else {
			gone, s.Lines = s.Lines[len(s.Lines)-1], s.Lines[:len(s.Lines)-1]
		}
		cost := EstimateLinesTokens([]string{gone})
		sizes[largest] -= cost
		total -= cost
		dropped[largest]++
	}

	for i := range out {
		if dropped[i] == 0 {
			continue
		}
		marker := fmt.Sprintf("... and %d more", dropped[i])
		lines := make([]string, 0, len(out[i].Lines)+1)
		if out[i].KeepTail {
			lines = append(append(lines, marker), out[i].Lines...)
		} else {
			lines = append(append(lines, out[i].Lines...), marker)
		}
		out[i].Lines = lines
	}
	return out
}
