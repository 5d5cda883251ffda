package main

import (
	"bytes"
	"regexp"
	"strings"
)

const typeTerm = `[A-Za-z_$][\w$.]*(?:<[\w$.,\s<>|&\[\]]*>)?(?:\[\])*`

// typePatterns holds the compiled line-level substitutions. One value is
// built per Transformer and shared read-only by every pass.
type typePatterns struct {
	asType           *regexp.Regexp
	callGenerics     *regexp.Regexp
	arrowGenerics    *regexp.Regexp
	functionGenerics *regexp.Regexp
	classGenerics    *regexp.Regexp
	extendsGenerics  *regexp.Regexp
	implements       *regexp.Regexp
	abstractClass    *regexp.Regexp
	memberModifiers  *regexp.Regexp
	paramModifiers   *regexp.Regexp
	spaces           *regexp.Regexp
}

func newTypePatterns() *typePatterns {
	return &typePatterns{
		asType:           regexp.MustCompile(`\s+as\s+(?:const\b|` + typeTerm + `(?:\s*[|&]\s*` + typeTerm + `)*)`),
		callGenerics:     regexp.MustCompile(`([\w$])<[^<>()=;]*>\s*\(`),
		arrowGenerics:    regexp.MustCompile(`(=\s*(?:async\s+)?)<[^<>()=;]*>\s*\(`),
		functionGenerics: regexp.MustCompile(`(\bfunction\s*\*?\s*[\w$]*)\s*<[^(]*?>\s*\(`),
		classGenerics:    regexp.MustCompile(`(\bclass\s+[A-Za-z_$][\w$]*)\s*<[^{]*?>(\s*(?:extends\b|implements\b|\{|$))`),
		extendsGenerics:  regexp.MustCompile(`(\bextends\s+[A-Za-z_$][\w$.]*)\s*<[^{]*?>(\s*(?:implements\b|\{|$))`),
		implements:       regexp.MustCompile(`\s+implements\s+[\w$.,\s<>]+?(\s*\{|$)`),
		abstractClass:    regexp.MustCompile(`\babstract\s+(class\b)`),
		memberModifiers:  regexp.MustCompile(`^(\s*)(?:(?:public|private|protected|readonly|override|abstract|declare)\s+)+([A-Za-z_$#\[*])`),
		paramModifiers:   regexp.MustCompile(`([(,]\s*)(?:(?:public|private|protected|readonly|override)\s+)+([A-Za-z_$])`),
		spaces:           regexp.MustCompile(` {2,}`),
	}
}

// rewrite applies the substitutions to a run of code outside strings and comments.
func (p *typePatterns) rewrite(code string) string {
	if strings.Contains(code, " as ") {
		code = p.asType.ReplaceAllString(code, "")
	}
	if strings.Contains(code, "<") && (strings.Contains(code, ">(") || strings.Contains(code, "> (")) {
		if strings.Contains(code, "function") {
			code = p.functionGenerics.ReplaceAllString(code, "$1(")
		}
		code = p.arrowGenerics.ReplaceAllString(code, "$1(")
		code = p.callGenerics.ReplaceAllString(code, "$1(")
	}
	if strings.Contains(code, "abstract ") {
		code = p.abstractClass.ReplaceAllString(code, "$1")
	}
	if strings.Contains(code, "class ") {
		code = p.classGenerics.ReplaceAllString(code, "$1$2")
		code = p.extendsGenerics.ReplaceAllString(code, "$1$2")
	}
	if strings.Contains(code, "(") && p.paramModifiers.MatchString(code) {
		code = p.paramModifiers.ReplaceAllString(code, "$1$2")
	}
	if strings.Contains(code, " implements ") {
		code = p.implements.ReplaceAllString(code, "$1")
	}
	return code
}

// lineBuilder collects emitted bytes, marking which of them are code and
// which belong to strings or comments.
type lineBuilder struct {
	buf  []byte
	code []bool
}

func (b *lineBuilder) put(ch byte, code bool) {
	b.buf = append(b.buf, ch)
	b.code = append(b.code, code)
}

func (b *lineBuilder) putString(s string, code bool) {
	for i := 0; i < len(s); i++ {
		b.put(s[i], code)
	}
}

// lastByte returns the last emitted byte that is not a space or tab.
func (b *lineBuilder) lastByte() byte {
	for i := len(b.buf) - 1; i >= 0; i-- {
		if b.buf[i] != ' ' && b.buf[i] != '\t' {
			return b.buf[i]
		}
	}
	return 0
}

// leading returns the emitted text after the indentation.
func (b *lineBuilder) leading() []byte {
	k := 0
	for k < len(b.buf) && isWhiteSpace(b.buf[k]) {
		k++
	}
	return b.buf[k:]
}

// caseLabel reports whether the emitted text is a `case ...` or `default` label.
func (b *lineBuilder) caseLabel() bool {
	rest := b.leading()
	if len(rest) >= 4 && string(rest[:4]) == "case" && (len(rest) == 4 || !isByteIdentifierChar(rest[4])) {
		return true
	}
	if len(rest) < 7 || string(rest[:7]) != "default" {
		return false
	}
	for _, ch := range rest[7:] {
		if !isWhiteSpace(ch) {
			return false
		}
	}
	return true
}

// statementLabel reports whether the emitted text is a single identifier and
// the ':' at line[i] is followed by a loop, a switch or the end of the line.
func (b *lineBuilder) statementLabel(line string, i int) bool {
	k := skipSpaces(line, i+1)
	if k < len(line) && !hasWordAt(line, k, "for") && !hasWordAt(line, k, "while") &&
		!hasWordAt(line, k, "do") && !hasWordAt(line, k, "switch") {
		return false
	}
	rest := bytes.TrimRight(b.leading(), " \t")
	if len(rest) == 0 || isDigit(rest[0]) {
		return false
	}
	for _, ch := range rest {
		if !isByteIdentifierChar(ch) {
			return false
		}
	}
	return true
}

func (b *lineBuilder) endsWithSpace() bool {
	return len(b.buf) > 0 && isWhiteSpace(b.buf[len(b.buf)-1])
}

// render runs patterns over each code run and collapses doubled spaces
// outside the leading indentation when the line was changed.
func (b *lineBuilder) render(patterns *typePatterns, changed bool) string {
	var out strings.Builder
	out.Grow(len(b.buf))
	indent := 0
	for indent < len(b.buf) && b.code[indent] && (b.buf[indent] == ' ' || b.buf[indent] == '\t') {
		indent++
	}
	out.Write(b.buf[:indent])

	for i := indent; i < len(b.buf); {
		j := i
		for j < len(b.buf) && b.code[j] == b.code[i] {
			j++
		}
		segment := string(b.buf[i:j])
		if b.code[i] {
			rewritten := patterns.rewrite(segment)
			if changed || rewritten != segment {
				rewritten = patterns.spaces.ReplaceAllString(rewritten, " ")
			}
			segment = rewritten
		}
		out.WriteString(segment)
		i = j
	}
	return out.String()
}

type typeStripper struct {
	patterns *typePatterns
	cursor   scanCursor
}

func newTypeStripper(patterns *typePatterns) *typeStripper {
	return &typeStripper{patterns: patterns}
}

// isModuleClauseLine matches statements whose `as` and `:` belong to module
// syntax rather than types.
func isModuleClauseLine(trimmed string) bool {
	if hasWordAt(trimmed, 0, "import") {
		next := byteAt(trimmed, skipSpaces(trimmed, len("import")))
		return next != '(' && next != '.'
	}
	if hasWordAt(trimmed, 0, "export") {
		next := byteAt(trimmed, skipSpaces(trimmed, len("export")))
		return next == '{' || next == '*'
	}
	return false
}

// stripLine removes type syntax from one line, leaving runtime code and string
// contents untouched.
func (s *typeStripper) stripLine(line string) string {
	c := &s.cursor
	if !c.inString && !c.inBlockComment {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || isModuleClauseLine(trimmed) {
			return line
		}
	}

	changed := false
	// class members, and constructor parameters written one per line
	if !c.inString && !c.inBlockComment && len(c.braces) > 0 {
		if stripped := s.patterns.memberModifiers.ReplaceAllString(line, "$1$2"); stripped != line {
			line = stripped
			changed = true
		}
	}

	var b lineBuilder
	n := len(line)
	c.afterSpace = true
	emit := func(ch byte) {
		b.put(ch, true)
		c.note(ch)
	}

	for i := 0; i < n; {
		ch := line[i]

		if c.inBlockComment {
			if ch == '*' && byteAt(line, i+1) == '/' {
				b.putString("*/", false)
				c.inBlockComment = false
				i += 2
				continue
			}
			b.put(ch, false)
			i++
			continue
		}

		if c.inString {
			b.put(ch, false)
			if ch == '\\' && i+1 < n {
				b.put(line[i+1], false)
				i += 2
				continue
			}
			c.leaveString(ch)
			i++
			continue
		}

		switch ch {
		case '"', '\'', '`':
			c.enterString(ch)
			b.put(ch, false)
			i++
		case '/':
			if byteAt(line, i+1) == '/' {
				b.putString(line[i:], false)
				i = n
				continue
			}
			if byteAt(line, i+1) == '*' {
				c.inBlockComment = true
				b.putString("/*", false)
				i += 2
				continue
			}
			emit(ch)
			i++
		case '(':
			c.openParen()
			emit(ch)
			i++
		case ')':
			c.closeParen()
			emit(ch)
			i++
		case '{':
			c.openBrace()
			emit(ch)
			i++
		case '}':
			c.closeBrace()
			emit(ch)
			i++
		case ';':
			c.ternaries = 0
			emit(ch)
			i++
		case '?':
			next := byteAt(line, i+1)
			switch {
			case next == '.' && !isDigit(byteAt(line, i+2)):
				emit('?')
				emit('.')
				i += 2
			case next == '?':
				emit('?')
				emit('?')
				i += 2
			case next == ':' && isByteIdentifierChar(c.lastSignificant):
				// optional member or parameter marker
				changed = true
				i++
			case (next == ',' || next == ')') && c.relativeDepth() > 0 && isByteIdentifierChar(c.lastSignificant):
				changed = true
				i++
			default:
				c.ternaries++
				emit(ch)
				i++
			}
		case '!':
			next := byteAt(line, i+1)
			if next == ':' && isByteIdentifierChar(c.lastSignificant) {
				// definite assignment marker
				changed = true
				i++
				continue
			}
			if next != '=' && !c.afterSpace && (isByteIdentifierChar(c.lastSignificant) || c.lastSignificant == ')' || c.lastSignificant == ']') {
				// non-null assertion
				changed = true
				i++
				continue
			}
			emit(ch)
			i++
		case ':':
			next, stripped := s.colon(line, i, &b)
			if stripped {
				changed = true
			} else {
				emit(ch)
				next = i + 1
			}
			i = next
		default:
			emit(ch)
			i++
		}
	}

	c.endLine(line)
	return b.render(s.patterns, changed)
}

// colon decides whether the ':' at line[i] starts a type annotation. When it
// does, the annotation is skipped and the index after it is returned.
func (s *typeStripper) colon(line string, i int, b *lineBuilder) (int, bool) {
	c := &s.cursor
	var delimiters string

	switch {
	case c.relativeDepth() > 0:
		if c.ternaries > 0 {
			c.ternaries--
			return i, false
		}
		if c.inObjectLiteral() {
			return i, false
		}
		// parameter annotation
		delimiters = ",)="
	case b.lastByte() == ')':
		// return type annotation
		delimiters = "{;="
	case c.ternaries > 0:
		c.ternaries--
		return i, false
	case c.inObjectLiteral() || b.caseLabel() || b.statementLabel(line, i):
		return i, false
	default:
		// variable or member annotation
		delimiters = "=;,"
	}

	end := skipTypeExpression(line, i+1, delimiters)
	skipped := line[i+1 : end]
	if end < len(line) && len(skipped) > 0 && isWhiteSpace(skipped[len(skipped)-1]) && !b.endsWithSpace() {
		b.put(' ', true)
		c.note(' ')
	}
	return end, true
}

// skipTypeExpression returns the index of the first delimiter found outside
// nested brackets, or of an unbalanced closing bracket, starting at i.
// At depth 0 a `=>` continues a function type only when it follows a
// parenthesized parameter list, so `(a): number => a` ends before the arrow.
func skipTypeExpression(line string, i int, delimiters string) int {
	start := i
	depth := 0
	for i < len(line) {
		ch := line[i]
		if ch == '=' && byteAt(line, i+1) == '>' {
			if depth == 0 && strings.IndexByte(delimiters, '=') >= 0 &&
				!strings.HasSuffix(strings.TrimSpace(line[start:i]), ")") {
				return i
			}
			i += 2
			continue
		}
		if depth == 0 && strings.IndexByte(delimiters, ch) >= 0 {
			return i
		}
		switch ch {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth == 0 {
				return i
			}
			depth--
		case '"', '\'', '`':
			i = skipQuoted(line, i)
			continue
		case '/':
			if byteAt(line, i+1) == '/' || byteAt(line, i+1) == '*' {
				return i
			}
		}
		i++
	}
	return i
}
