// SPDX-License-Identifier: MPL-2.0

package pathmap

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Separator is the path separator used inside the archive. Archive entries
// always use forward slashes regardless of the host OS.
const Separator = "/"

var (
	// ErrInvalidTemplate is the sentinel error wrapped by InvalidTemplateError.
	ErrInvalidTemplate = errors.New("invalid pathmap template")

	// fragmentRegex splits a pattern into tokens: substitution tokens,
	// directory-count tokens, single specifiers and literal runs.
	fragmentRegex = regexp.MustCompile(`(?s)%\{[^}]*\}-?\d*[sdpfnxX%]|%-?\d+d|%.|[^%]+|%$`)
	substRegex    = regexp.MustCompile(`^%\{([^}]*)\}(-?\d*[dpfnxX])$`)
	countDirRegex = regexp.MustCompile(`^%(-?\d+)d$`)
)

type (
	// Template is an immutable source-to-destination rewrite rule.
	//
	// Supported specifiers:
	//
	//	%p  the complete source path
	//	%f  the base name, extension included
	//	%n  the base name without extension
	//	%x  the extension (".rb"), empty when there is none
	//	%X  everything but the extension
	//	%d  the directory part ("." when there is none)
	//	%Nd the first N directory segments, %-Nd the last N
	//	%s  the archive path separator
	//	%%  a literal percent sign
	//	%-  nothing
	//
	// A specifier may be prefixed with substitutions, %{pat,rep;pat2,rep2}p,
	// which replace the first match of each regular expression pat with the
	// literal rep (or remove it when rep is absent).
	Template struct {
		pattern string
		frags   []fragment
	}

	// InvalidTemplateError is returned when a pattern cannot be parsed.
	InvalidTemplateError struct {
		Pattern string
		Reason  string
	}

	fragment struct {
		literal string
		spec    byte
		count   int
		subs    []substitution
	}

	substitution struct {
		re          *regexp.Regexp
		replacement string
	}
)

// Error implements the error interface.
func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid pathmap template %q: %s", e.Pattern, e.Reason)
}

// Unwrap returns ErrInvalidTemplate for errors.Is() compatibility.
func (e *InvalidTemplateError) Unwrap() error { return ErrInvalidTemplate }

// Parse compiles a pattern into a Template.
func Parse(pattern string) (Template, error) {
	var frags []fragment
	for _, tok := range fragmentRegex.FindAllString(pattern, -1) {
		frag, err := parseFragment(pattern, tok)
		if err != nil {
			return Template{}, err
		}
		frags = append(frags, frag)
	}
	return Template{pattern: pattern, frags: frags}, nil
}

// MustParse is like Parse but panics on error. Intended for built-in defaults.
func MustParse(pattern string) Template {
	t, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return t
}

func parseFragment(pattern, tok string) (fragment, error) {
	if !strings.HasPrefix(tok, "%") {
		return fragment{literal: tok}, nil
	}

	if m := substRegex.FindStringSubmatch(tok); m != nil {
		subs, err := parseSubstitutions(pattern, m[1])
		if err != nil {
			return fragment{}, err
		}
		inner, err := parseFragment(pattern, "%"+m[2])
		if err != nil {
			return fragment{}, err
		}
		inner.subs = subs
		return inner, nil
	}

	if m := countDirRegex.FindStringSubmatch(tok); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return fragment{}, &InvalidTemplateError{Pattern: pattern, Reason: "bad directory count in " + tok}
		}
		return fragment{spec: 'd', count: n}, nil
	}

	if len(tok) == 2 {
		switch tok[1] {
		case 'p', 'f', 'n', 'x', 'X', 'd', 's':
			return fragment{spec: tok[1]}, nil
		case '%':
			return fragment{literal: "%"}, nil
		case '-':
			return fragment{}, nil
		}
	}

	return fragment{}, &InvalidTemplateError{Pattern: pattern, Reason: "unknown specifier " + tok}
}

func parseSubstitutions(pattern, body string) ([]substitution, error) {
	var subs []substitution
	for pair := range strings.SplitSeq(body, ";") {
		expr, replacement, _ := strings.Cut(pair, ",")
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &InvalidTemplateError{Pattern: pattern, Reason: fmt.Sprintf("bad expression %q: %v", expr, err)}
		}
		subs = append(subs, substitution{re: re, replacement: replacement})
	}
	return subs, nil
}

// String returns the pattern the template was parsed from.
func (t Template) String() string { return t.pattern }

// Apply rewrites src according to the template.
func (t Template) Apply(src string) string {
	var sb strings.Builder
	for _, f := range t.frags {
		if f.spec == 0 {
			sb.WriteString(f.literal)
			continue
		}
		out := expand(f, src)
		for _, s := range f.subs {
			out = s.replaceFirst(out)
		}
		sb.WriteString(out)
	}
	return sb.String()
}

func (s substitution) replaceFirst(in string) string {
	loc := s.re.FindStringIndex(in)
	if loc == nil {
		return in
	}
	return in[:loc[0]] + s.replacement + in[loc[1]:]
}

func expand(f fragment, src string) string {
	switch f.spec {
	case 'p':
		return src
	case 'f':
		return path.Base(src)
	case 'n':
		base := path.Base(src)
		return strings.TrimSuffix(base, extname(base))
	case 'x':
		return extname(path.Base(src))
	case 'X':
		return strings.TrimSuffix(src, extname(path.Base(src)))
	case 's':
		return Separator
	case 'd':
		if f.count == 0 {
			return path.Dir(src)
		}
		return partialDir(src, f.count)
	}
	return ""
}

// extname returns the extension of a base name. Dot files such as
// ".bashrc" have no extension.
func extname(base string) string {
	i := strings.LastIndex(base, ".")
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return base[i:]
}

func partialDir(src string, n int) string {
	dir := path.Dir(src)
	if dir == "." {
		return "."
	}
	var segs []string
	if strings.HasPrefix(dir, Separator) {
		segs = append(segs, Separator)
	}
	for s := range strings.SplitSeq(strings.Trim(dir, Separator), Separator) {
		segs = append(segs, s)
	}
	switch {
	case n > 0 && n < len(segs):
		segs = segs[:n]
	case n < 0 && -n < len(segs):
		segs = segs[len(segs)+n:]
	}
	return path.Join(segs...)
}
