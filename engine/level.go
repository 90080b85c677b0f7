package engine

import (
	"strconv"
	"strings"
)

// Built-in levels. Rule texts may add their own in the [levels] section.
const (
	LevelDebug  = 20
	LevelInfo   = 40
	LevelNotice = 60
	LevelWarn   = 80
	LevelError  = 100
	LevelFatal  = 120
)

const (
	// MaxLevel is the highest level a record may carry or a category may be switched to.
	MaxLevel = 254

	maxUserLevel = 253
	unknownLevel = "UNKNOWN"
)

// ValidLevel reports whether level lies in the engine's numeric domain.
func ValidLevel(level int) bool {
	return level >= 0 && level <= MaxLevel
}

// levelSet is a bitmap over the 256 possible level values.
type levelSet [4]uint64

func (s *levelSet) add(level int) {
	s[level>>6] |= 1 << (uint(level) & 63)
}

func (s *levelSet) remove(level int) {
	s[level>>6] &^= 1 << (uint(level) & 63)
}

func (s *levelSet) union(o levelSet) {
	for i := range s {
		s[i] |= o[i]
	}
}

func (s levelSet) has(level int) bool {
	if level < 0 || level > 255 {
		return false
	}
	return s[level>>6]&(1<<(uint(level)&63)) != 0
}

func (s levelSet) empty() bool {
	return s == levelSet{}
}

func levelsAtLeast(level int) levelSet {
	var s levelSet
	for l := level; l <= MaxLevel; l++ {
		s.add(l)
	}
	return s
}

// levelTable maps level names to values and back.
type levelTable struct {
	byName map[string]int
	names  [256]string
}

func defaultLevels() *levelTable {
	t := &levelTable{byName: make(map[string]int)}
	t.set("DEBUG", LevelDebug)
	t.set("INFO", LevelInfo)
	t.set("NOTICE", LevelNotice)
	t.set("WARN", LevelWarn)
	t.set("ERROR", LevelError)
	t.set("FATAL", LevelFatal)
	return t
}

func (t *levelTable) set(name string, level int) {
	name = strings.ToUpper(name)
	if prev, ok := t.byName[name]; ok && t.names[prev] == name {
		t.names[prev] = ""
	}
	t.byName[name] = level
	t.names[level] = name
}

func (t *levelTable) lookup(name string) (int, bool) {
	l, ok := t.byName[strings.ToUpper(name)]
	return l, ok
}

func (t *levelTable) name(level int) string {
	if level < 0 || level > 255 || t.names[level] == "" {
		return unknownLevel
	}
	return t.names[level]
}

// sorted returns "NAME=N" pairs in ascending level order.
func (t *levelTable) sorted() []string {
	var out []string
	for l, n := range t.names {
		if n != "" {
			out = append(out, n+"="+strconv.Itoa(l))
		}
	}
	return out
}
