package chunker

import (
	"path/filepath"
	"sort"
	"strings"
)

// Policy describes how files with a given extension are split. A nil
// Separators list means pure length-based splitting.
type Policy struct {
	// Separators, in preference order, mark boundaries the splitter tries
	// to cut at before falling back to a raw-length cut.
	Separators []string
}

// policies is the fixed extension-to-policy table. Code and markup
// extensions prefer statement/block boundaries; data extensions split on
// raw length alone.
var policies = map[string]Policy{
	".go":   {Separators: []string{"\nfunc ", "\ntype ", "\nvar ", "\nconst ", "\n\n", "\n", " "}},
	".py":   {Separators: []string{"\nclass ", "\ndef ", "\n\tdef ", "\n\n", "\n", " "}},
	".js":   {Separators: []string{"\nfunction ", "\nclass ", "\nconst ", "\nlet ", "\n\n", "\n", " "}},
	".ts":   {Separators: []string{"\nfunction ", "\nclass ", "\nconst ", "\ninterface ", "\n\n", "\n", " "}},
	".html": {Separators: []string{"</div>", "</section>", "</p>", "\n\n", "\n", " "}},
	".md":   {Separators: []string{"\n## ", "\n### ", "\n#### ", "\n\n", "\n", " "}},

	// Data extensions: length-based splitting only.
	".css":  {},
	".json": {},
	".yaml": {},
	".yml":  {},
	".txt":  {},
}

// PolicyFor returns the splitting policy for a file path. Unrecognized
// extensions get the length-based policy.
func PolicyFor(path string) Policy {
	return policies[strings.ToLower(filepath.Ext(path))]
}

// Recognized reports whether the extension is in the policy table.
func Recognized(ext string) bool {
	_, ok := policies[strings.ToLower(ext)]
	return ok
}

// Extensions returns every extension in the policy table, sorted. The
// scanner uses this as its default match set.
func Extensions() []string {
	exts := make([]string, 0, len(policies))
	for ext := range policies {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
