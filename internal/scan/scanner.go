// Package scan builds the corpus index snapshot from a directory of
// Markdown notes. Definitions are declared in callout blocks; every other
// sentence that mentions a defined term becomes a usage occurrence.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lexitect/lexitect/internal/model"
)

// A definition block looks like:
//
//	> [!definition] Entropy (S)
//	> aliases: thermodynamic entropy, Boltzmann entropy
//	> A measure of the number of microscopic configurations
//	> consistent with a macroscopic state.
//
// The symbol and aliases lines are optional; every remaining quoted line
// joins into the canonical statement.
var calloutHeader = regexp.MustCompile(`^>\s*\[!definition\]\s*(.+?)\s*(?:\(([^)]+)\))?\s*$`)

// Scanner walks a corpus directory and extracts definitions and usages.
type Scanner struct {
	extensions map[string]bool
}

// NewScanner creates a scanner for Markdown corpora.
func NewScanner() *Scanner {
	return &Scanner{
		extensions: map[string]bool{".md": true, ".markdown": true, ".txt": true},
	}
}

// Result holds everything one scan produced.
type Result struct {
	Definitions  []model.Definition
	Usages       map[string][]model.UsageOccurrence
	FilesScanned int

	// Duplicates lists definition names declared more than once; the
	// first declaration wins.
	Duplicates []string
}

type fileContent struct {
	relPath string
	lines   []string
	inBlock []bool // line belongs to a definition block
	modTime time.Time
}

// Scan reads every corpus file under dir. The first pass collects
// definition blocks; the second matches all defined terms against the
// remaining text.
func (s *Scanner) Scan(dir string) (*Result, error) {
	files, err := s.readCorpus(dir)
	if err != nil {
		return nil, err
	}

	res := &Result{Usages: make(map[string][]model.UsageOccurrence)}
	seen := make(map[string]bool)

	for _, f := range files {
		for _, def := range parseDefinitions(f) {
			key := strings.ToLower(def.Name)
			if seen[key] {
				res.Duplicates = append(res.Duplicates, def.Name)
				continue
			}
			seen[key] = true
			res.Definitions = append(res.Definitions, def)
		}
	}
	res.FilesScanned = len(files)

	sort.Slice(res.Definitions, func(i, j int) bool {
		return res.Definitions[i].ID < res.Definitions[j].ID
	})

	matchers := buildMatchers(res.Definitions)
	for _, f := range files {
		collectUsages(f, matchers, res.Usages)
	}

	return res, nil
}

func (s *Scanner) readCorpus(dir string) ([]fileContent, error) {
	var files []fileContent

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories (.git, .obsidian)
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		lines := strings.Split(string(data), "\n")
		files = append(files, fileContent{
			relPath: filepath.ToSlash(rel),
			lines:   lines,
			inBlock: make([]bool, len(lines)),
			modTime: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })
	return files, nil
}

// parseDefinitions extracts definition blocks and marks their lines so
// the usage pass skips them.
func parseDefinitions(f fileContent) []model.Definition {
	var defs []model.Definition

	for i := 0; i < len(f.lines); i++ {
		m := calloutHeader.FindStringSubmatch(f.lines[i])
		if m == nil {
			continue
		}

		name := strings.TrimSpace(m[1])
		symbol := strings.TrimSpace(m[2])
		f.inBlock[i] = true

		var aliases []string
		var statement []string

		j := i + 1
		for ; j < len(f.lines); j++ {
			line := f.lines[j]
			if !strings.HasPrefix(line, ">") {
				break
			}
			f.inBlock[j] = true
			body := strings.TrimSpace(strings.TrimPrefix(line, ">"))
			if body == "" {
				continue
			}
			if rest, ok := stripPrefixFold(body, "aliases:"); ok {
				for _, a := range strings.Split(rest, ",") {
					if a = strings.TrimSpace(a); a != "" {
						aliases = append(aliases, a)
					}
				}
				continue
			}
			statement = append(statement, body)
		}
		i = j - 1

		canonical := strings.Join(statement, " ")
		defs = append(defs, model.Definition{
			ID:                 "def:" + slug(name),
			Name:               name,
			Symbol:             symbol,
			Aliases:            aliases,
			CanonicalStatement: canonical,
			ContentHash:        model.ContentHashFor(canonical, aliases),
		})
	}

	return defs
}

type termMatcher struct {
	definitionID string
	pattern      *regexp.Regexp
}

func buildMatchers(defs []model.Definition) []termMatcher {
	var matchers []termMatcher
	for _, d := range defs {
		for _, term := range d.SearchTerms() {
			matchers = append(matchers, termMatcher{
				definitionID: d.ID,
				pattern:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			})
		}
	}
	return matchers
}

// collectUsages matches every defined term against lines outside
// definition blocks. One line yields at most one occurrence per
// definition, even when the name and an alias both match.
func collectUsages(f fileContent, matchers []termMatcher, usages map[string][]model.UsageOccurrence) {
	for i, line := range f.lines {
		if f.inBlock[i] {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 10 {
			continue
		}

		matched := make(map[string]bool)
		for _, m := range matchers {
			if matched[m.definitionID] || !m.pattern.MatchString(trimmed) {
				continue
			}
			matched[m.definitionID] = true
			usages[m.definitionID] = append(usages[m.definitionID], model.UsageOccurrence{
				DefinitionID: m.definitionID,
				LocationRef:  fmt.Sprintf("%s:%d", f.relPath, i+1),
				Snippet:      trimmed,
				ObservedAt:   f.modTime,
			})
		}
	}
}

func stripPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):]), true
	}
	return "", false
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
