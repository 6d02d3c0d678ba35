package normalization

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultStopConcepts are boilerplate section headers the extractor tends to
// emit for every single document. Normalized form.
var defaultStopConcepts = []string{
	"introduction",
	"conclusion",
	"overview",
	"summary",
	"example",
	"examples",
	"exercise",
	"exercises",
	"questions",
	"answer",
	"answers",
	"chapter",
	"unit",
	"notes",
	"syllabus",
	"table of contents",
	"references",
}

// Stoplist filters normalized concept names that carry no revision value.
type Stoplist struct {
	entries map[string]struct{}
}

func NewStoplist(extra ...string) *Stoplist {
	s := &Stoplist{entries: make(map[string]struct{}, len(defaultStopConcepts)+len(extra))}
	for _, e := range defaultStopConcepts {
		s.entries[ConceptName(e)] = struct{}{}
	}
	for _, e := range extra {
		norm := ConceptName(e)
		if norm != "" {
			s.entries[norm] = struct{}{}
		}
	}
	return s
}

func (s *Stoplist) Contains(normalized string) bool {
	if s == nil {
		return false
	}
	_, ok := s.entries[normalized]
	return ok
}

func (s *Stoplist) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

type stoplistFile struct {
	StopConcepts []string `yaml:"stop_concepts"`
}

// LoadStoplist reads extra stop concepts from a YAML file and merges them
// with the built-in defaults. An empty path returns the defaults.
func LoadStoplist(path string) (*Stoplist, error) {
	if path == "" {
		return NewStoplist(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stoplist %s: %w", path, err)
	}
	var parsed stoplistFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
	}
	return NewStoplist(parsed.StopConcepts...), nil
}
