package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "eduweb"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a service layer may import besides the standard
// library. Paths starting with "/" are relative to the service root.
type layerRule struct {
	allowed   []string
	forbidden []string
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed: []string{"/domain", "github.com/shopspring/decimal"},
	},
	"ports": {
		allowed: []string{"/domain", "/ports", modulePath + "/internal/shared/events"},
	},
	// Envelopes and poison classification are shared vocabulary, not runtime.
	"application": {
		allowed: []string{
			"/application", "/domain", "/ports",
			modulePath + "/contracts",
			modulePath + "/internal/shared/events",
			modulePath + "/internal/shared/inbox",
			"github.com/go-playground/validator/v10",
			"github.com/shopspring/decimal",
		},
	},
	"transport": {
		allowed: []string{"/transport"},
	},
	"adapters": {
		forbidden: []string{modulePath + "/internal/app", modulePath + "/internal/platform/httpserver"},
	},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		return violations[i].Line < violations[j].Line
	})
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations walks contexts/<context>/<service>/<layer>/... and checks
// every non-test file's imports.
func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(path), "/")
		if len(parts) < 4 {
			return nil
		}
		service := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		layer := ""
		if len(parts) > 4 {
			layer = parts[3]
		}
		violations = append(violations, checkFile(path, service, layer)...)
		return nil
	})
	return violations
}

func checkFile(path string, service string, layer string) []violation {
	file := filepath.ToSlash(path)
	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: file, Line: 1, Rule: "file must parse"}}
	}

	var out []violation
	for _, imp := range parsed.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		line := fset.Position(imp.Pos()).Line
		report := func(rule string) {
			out = append(out, violation{File: file, Line: line, Import: importPath, Rule: rule})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, service) {
			report("services must not import each other; talk through events or HTTP")
		}

		rule, ok := layerRules[layer]
		if !ok {
			continue
		}
		for _, prefix := range rule.forbidden {
			if hasPrefix(importPath, resolve(prefix, service)) {
				report(layer + " must not import " + prefix)
			}
		}
		if rule.allowed != nil && !isStdlib(importPath) && !allowed(importPath, service, rule.allowed) {
			report(layer + " import is outside its allowlist")
		}
	}
	return out
}

func resolve(prefix string, service string) string {
	if strings.HasPrefix(prefix, "/") {
		return service + prefix
	}
	return prefix
}

func allowed(importPath string, service string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if hasPrefix(importPath, resolve(prefix, service)) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
