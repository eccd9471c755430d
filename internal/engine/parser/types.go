package parser

// FileStats summarizes one analyzed source file.
type FileStats struct {
	Path          string `json:"file" yaml:"file"`
	FunctionCount int    `json:"functions" yaml:"functions"`
	ClassCount    int    `json:"classes" yaml:"classes"`
	ImportCount   int    `json:"imports" yaml:"imports"`
	LineCount     int    `json:"lines" yaml:"lines"`
}

// FunctionRecord describes one function or method definition, at any nesting depth.
type FunctionRecord struct {
	File           string `json:"file" yaml:"file"`
	Name           string `json:"name" yaml:"name"`
	Line           int    `json:"line" yaml:"line"`
	ParameterCount int    `json:"args" yaml:"args"`
	// LineSpan is end line - start line + 1, or 0 when the end is unknown.
	LineSpan   int      `json:"lines" yaml:"lines"`
	Decorators []string `json:"decorators" yaml:"decorators"`
	IsAsync    bool     `json:"is_async" yaml:"is_async"`
}

// ClassRecord describes one class definition.
type ClassRecord struct {
	File        string   `json:"file" yaml:"file"`
	Name        string   `json:"name" yaml:"name"`
	Line        int      `json:"line" yaml:"line"`
	MethodCount int      `json:"methods" yaml:"methods"`
	Bases       []string `json:"bases" yaml:"bases"`
	MethodNames []string `json:"method_names" yaml:"method_names"`
}

type ImportKind string

const (
	ImportKindImport ImportKind = "import"
	ImportKindFrom   ImportKind = "from_import"
)

// ImportEntry is one imported module (plain import) or one imported name (from-import).
type ImportEntry struct {
	Module string     `json:"module" yaml:"module"`
	Alias  string     `json:"alias,omitempty" yaml:"alias,omitempty"`
	Name   string     `json:"name,omitempty" yaml:"name,omitempty"`
	Level  int        `json:"level,omitempty" yaml:"level,omitempty"`
	Kind   ImportKind `json:"type" yaml:"type"`
}

// ImportRecord holds the entries of a single import statement.
type ImportRecord struct {
	File    string        `json:"file" yaml:"file"`
	Line    int           `json:"line" yaml:"line"`
	Imports []ImportEntry `json:"imports" yaml:"imports"`
}

// FileResult is everything extracted from one file.
type FileResult struct {
	Stats     FileStats
	Functions []FunctionRecord
	Classes   []ClassRecord
	Imports   []ImportRecord
}

// withPath returns a deep copy of r with every record re-stamped to path.
func (r FileResult) withPath(path string) FileResult {
	out := FileResult{
		Stats:     r.Stats,
		Functions: make([]FunctionRecord, len(r.Functions)),
		Classes:   make([]ClassRecord, len(r.Classes)),
		Imports:   make([]ImportRecord, len(r.Imports)),
	}
	out.Stats.Path = path

	for i, fn := range r.Functions {
		fn.File = path
		fn.Decorators = cloneStrings(fn.Decorators)
		out.Functions[i] = fn
	}
	for i, cls := range r.Classes {
		cls.File = path
		cls.Bases = cloneStrings(cls.Bases)
		cls.MethodNames = cloneStrings(cls.MethodNames)
		out.Classes[i] = cls
	}
	for i, imp := range r.Imports {
		imp.File = path
		entries := make([]ImportEntry, len(imp.Imports))
		copy(entries, imp.Imports)
		imp.Imports = entries
		out.Imports[i] = imp
	}
	return out
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
