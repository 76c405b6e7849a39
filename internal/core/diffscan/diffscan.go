package diffscan

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

var (
	classDecl    = regexp.MustCompile(`(?m)^[+\- ].*?\bclass\s+([A-Za-z_]\w*)`)
	exportedDecl = regexp.MustCompile(`(?m)^[+\- ].*?\bexport\s+(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_]\w*)`)
	funcDecl     = regexp.MustCompile(`(?m)^[+\- ].*?\bfunc\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`)
)

// codeExtensions limits file-path candidates to source files; lockfiles,
// docs and assets produce noise identifiers otherwise.
var codeExtensions = map[string]bool{
	".java": true, ".ts": true, ".tsx": true, ".js": true,
	".go": true, ".py": true, ".kt": true, ".cs": true,
}

// ChangedEntities extracts candidate entity identifiers from a unified
// diff body: declared class/function names touched by hunks, plus the base
// names of changed source files. Results are deduplicated and sorted.
func ChangedEntities(diffText string) []string {
	if strings.TrimSpace(diffText) == "" {
		return nil
	}

	seen := map[string]bool{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" && !seen[name] {
			seen[name] = true
		}
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(diffText))
	if err == nil && len(fileDiffs) > 0 {
		for _, fd := range fileDiffs {
			for _, name := range []string{fd.NewName, fd.OrigName} {
				name = strings.TrimPrefix(strings.TrimPrefix(name, "a/"), "b/")
				if name == "" || name == "/dev/null" {
					continue
				}
				ext := path.Ext(name)
				if !codeExtensions[ext] {
					continue
				}
				add(strings.TrimSuffix(path.Base(name), ext))
			}
			for _, hunk := range fd.Hunks {
				addMatches(add, string(hunk.Body))
			}
		}
	} else {
		// Not a well-formed unified diff; fall back to scanning the raw
		// text for declarations.
		addMatches(add, diffText)
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func addMatches(add func(string), body string) {
	for _, re := range []*regexp.Regexp{exportedDecl, classDecl, funcDecl} {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			add(m[1])
		}
	}
}
