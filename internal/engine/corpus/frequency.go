package corpus

import (
	"bytes"
	"encoding/json"
	"sort"
)

// DefaultTopN is how many entries a FrequencyTable keeps.
const DefaultTopN = 20

// FrequencyEntry is one name and how often it occurred.
type FrequencyEntry struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// FrequencyTable is ordered by count descending; ties keep first-seen order.
type FrequencyTable []FrequencyEntry

// FrequencyTables are the "most common" views of one snapshot.
type FrequencyTables struct {
	Functions FrequencyTable `json:"function_counts" yaml:"function_counts"`
	Classes   FrequencyTable `json:"class_counts" yaml:"class_counts"`
	Imports   FrequencyTable `json:"import_counts" yaml:"import_counts"`
}

// Count returns the recorded count for name, or 0.
func (t FrequencyTable) Count(name string) int {
	for _, e := range t {
		if e.Name == name {
			return e.Count
		}
	}
	return 0
}

// MarshalJSON renders the table as a JSON object whose keys keep table order.
func (t FrequencyTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(jsonInt(e.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonInt(v int) string {
	b, _ := json.Marshal(v)
	return string(b)
}

type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(name string) {
	if name == "" {
		return
	}
	if _, ok := t.counts[name]; !ok {
		t.order = append(t.order, name)
	}
	t.counts[name]++
}

func (t *tally) table(topN int) FrequencyTable {
	out := make(FrequencyTable, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, FrequencyEntry{Name: name, Count: t.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// BuildFrequencyTables counts function names, class names and imported
// modules across the summary. An import entry is keyed by its module, or by
// its imported name when the module is empty (`from . import x`).
func BuildFrequencyTables(s *CorpusSummary, topN int) FrequencyTables {
	if topN <= 0 {
		topN = DefaultTopN
	}

	functions := newTally()
	for _, fn := range s.Functions {
		functions.add(fn.Name)
	}

	classes := newTally()
	for _, cls := range s.Classes {
		classes.add(cls.Name)
	}

	imports := newTally()
	for _, rec := range s.Imports {
		for _, entry := range rec.Imports {
			key := entry.Module
			if key == "" {
				key = entry.Name
			}
			imports.add(key)
		}
	}

	return FrequencyTables{
		Functions: functions.table(topN),
		Classes:   classes.table(topN),
		Imports:   imports.table(topN),
	}
}
