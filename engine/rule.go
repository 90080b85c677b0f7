package engine

import (
	"io"
	"os"
	"strings"
)

type categoryMatch int

const (
	matchExact categoryMatch = iota
	matchAll
	matchPrefix
	matchFallback
)

type rule struct {
	line     int
	text     string
	category string
	match    categoryMatch
	levels   levelSet
	out      output
	format   *format
}

func (r *rule) matches(name string) bool {
	switch r.match {
	case matchAll:
		return true
	case matchPrefix:
		return name == r.category || strings.HasPrefix(name, r.category+"_")
	case matchExact:
		return name == r.category
	}
	return false
}

type source struct {
	path string
	text string
}

func (s source) String() string {
	if s.path != "" {
		return s.path
	}
	return "<string>"
}

// ruleSet is one parsed configuration. It is never mutated after parse.
type ruleSet struct {
	src           source
	strict        bool
	reloadPeriod  uint64
	filePerm      os.FileMode
	defaultFormat *format
	levels        *levelTable
	formats       map[string]*format
	rules         []*rule
	files         map[string]io.WriteCloser
}

// fit returns the rules that apply to name. Fallback ("!") rules apply only
// when nothing else does.
func (rs *ruleSet) fit(name string) []*rule {
	var out []*rule
	for _, r := range rs.rules {
		if r.matches(name) {
			out = append(out, r)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, r := range rs.rules {
		if r.match == matchFallback {
			out = append(out, r)
		}
	}
	return out
}

// close releases every file the rule set opened.
func (rs *ruleSet) close() error {
	var first error
	for _, w := range rs.files {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
