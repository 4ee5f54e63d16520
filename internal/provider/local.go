package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Compile-time interface check.
var _ Client = (*Local)(nil)

// Local is a deterministic rule-based backend used when no remote completion
// service is configured. It parses the dependency request itself with simple
// heuristics and emits the same rationale/CONFIDENCE/ACTIONS contract a remote
// specialist is instructed to follow. Because its output is a pure function of
// the request, rounds driven by it are fully repeatable, which the scoring
// tests rely on.
type Local struct{}

// NewLocal creates the local backend.
func NewLocal() *Local { return &Local{} }

// requestLine extracts the user request from the rendered prompt. The prompt
// contract puts it on a single "Request:" line.
func requestLine(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, "Request:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(prompt)
}

// devTools are packages the workflow specialist treats as development tooling
// and therefore routes to the dev group when no group was named.
var devTools = map[string]bool{
	"pytest": true, "pytest-cov": true, "black": true, "ruff": true,
	"mypy": true, "flake8": true, "isort": true, "coverage": true,
	"pre-commit": true, "tox": true, "nox": true, "sphinx": true,
}

// Complete generates a proposal for the request without any network call.
func (l *Local) Complete(_ context.Context, req Request) (*Response, error) {
	parsed := parseRequest(requestLine(req.Prompt))

	if parsed.pkg == "" {
		return &Response{
			Content: "I could not determine a concrete package from the request. " +
				"Please restate it naming the package to add, update, or remove.\n\n" +
				"CONFIDENCE: 0.20\n",
			Model: "local",
		}, nil
	}

	action := map[string]string{"op": parsed.op, "package": parsed.pkg}
	if parsed.version != "" {
		action["version"] = parsed.version
	}

	confidence := "0.85"
	var rationale string
	switch req.Role {
	case "workflow-specialist":
		confidence = "0.80"
		if parsed.group == "" && parsed.op == "add" && devTools[parsed.pkg] {
			parsed.group = "dev"
		}
		rationale = fmt.Sprintf(
			"From a workflow standpoint, %q should be managed where the development "+
				"loop picks it up. The %s operation below places it accordingly.",
			parsed.pkg, parsed.op)
	default:
		rationale = fmt.Sprintf(
			"Based on the manifest structure, the cleanest change is a single %s of %q "+
				"at its canonical location, keeping the dependency lists consistent.",
			parsed.op, parsed.pkg)
	}
	if parsed.group != "" {
		action["group"] = parsed.group
	}

	actions, err := json.MarshalIndent([]map[string]string{action}, "", "  ")
	if err != nil {
		return nil, &Error{Role: req.Role, Err: err}
	}

	content := fmt.Sprintf("%s\n\nCONFIDENCE: %s\n\nACTIONS:\n%s\n", rationale, confidence, actions)
	return &Response{Content: content, Model: "local"}, nil
}

// parsedRequest is the structured reading of one dependency request.
type parsedRequest struct {
	op      string // add | update | remove
	pkg     string
	version string
	group   string
}

var (
	groupRe    = regexp.MustCompile(`(?:\bto\b|\bin\b|\binto\b)\s+(?:the\s+)?([a-z0-9][a-z0-9_-]*)\s+(?:group|dependencies|extras)`)
	specRe     = regexp.MustCompile(`(>=|<=|==|~=|!=|>|<)\s*v?(\d[\w.]*)`)
	orHigherRe = regexp.MustCompile(`version\s+v?(\d[\w.]*)\s+or\s+(?:higher|newer|later|greater)`)
	versionRe  = regexp.MustCompile(`version\s+v?(\d[\w.]*)`)
)

// stopwords are tokens that cannot be package names.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "for": true, "of": true,
	"package": true, "dependency": true, "library": true, "version": true,
	"please": true, "i": true, "we": true, "need": true, "want": true,
	"project": true, "main": true, "dev": true, "test": true, "docs": true,
	"group": true, "dependencies": true, "latest": true, "new": true,
}

// parseRequest reads op, package, version, and group out of free text. It is
// intentionally conservative: when nothing looks like a package name, pkg
// stays empty and the caller reports an unactionable request.
func parseRequest(text string) parsedRequest {
	lower := strings.ToLower(text)
	p := parsedRequest{op: "add"}

	switch {
	case containsAny(lower, "remove", "drop", "uninstall", "delete"):
		p.op = "remove"
	case containsAny(lower, "update", "upgrade", "bump"):
		p.op = "update"
	}

	if m := groupRe.FindStringSubmatch(lower); m != nil {
		switch m[1] {
		case "main", "runtime", "project":
			// Main list: no group.
		default:
			p.group = m[1]
		}
	}

	if m := orHigherRe.FindStringSubmatch(lower); m != nil {
		p.version = ">=" + m[1]
	} else if m := specRe.FindStringSubmatch(lower); m != nil {
		p.version = m[1] + m[2]
	} else if m := versionRe.FindStringSubmatch(lower); m != nil {
		p.version = ">=" + m[1]
	}

	p.pkg = findPackage(lower)
	if p.op == "remove" {
		// A remove never carries a version constraint.
		p.version = ""
	}
	return p
}

// findPackage picks the most plausible package token: the first non-stopword
// after the operation verb, falling back to the first token that looks like a
// package name.
func findPackage(lower string) string {
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	verbs := map[string]bool{
		"add": true, "install": true, "remove": true, "drop": true,
		"uninstall": true, "delete": true, "update": true, "upgrade": true,
		"bump": true, "need": true, "want": true, "use": true,
	}

	afterVerb := false
	for _, tok := range tokens {
		tok = strings.Trim(tok, `"'.,!?`)
		if verbs[tok] {
			afterVerb = true
			continue
		}
		if !afterVerb {
			continue
		}
		if stopwords[tok] || !looksLikePackage(tok) {
			continue
		}
		return tok
	}

	for _, tok := range tokens {
		tok = strings.Trim(tok, `"'.,!?`)
		if !stopwords[tok] && !verbs[tok] && looksLikePackage(tok) {
			return tok
		}
	}
	return ""
}

var packageRe = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

func looksLikePackage(tok string) bool {
	return packageRe.MatchString(tok)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
