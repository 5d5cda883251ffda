package main

func isWhiteSpace(char byte) bool {
	return (char == ' ' || char == '\t' || char == '\n' || char == '\r')
}

func isByteIdentifierChar(char byte) bool {
	// 0-9 || A-Z || a-z || _ || $
	return (char >= 48 && char <= 57) || (char >= 65 && char <= 90) || (char >= 97 && char <= 122) || char == 95 || char == 36
}

func isDigit(char byte) bool {
	return char >= '0' && char <= '9'
}

func isQuote(char byte) bool {
	return char == '"' || char == '\'' || char == '`'
}

// byteAt returns 0 past the end of code.
func byteAt(code string, i int) byte {
	if i < 0 || i >= len(code) {
		return 0
	}
	return code[i]
}

func hasPrefixAt(code string, i int, s string) bool {
	if i < 0 || i+len(s) > len(code) {
		return false
	}
	return code[i:i+len(s)] == s
}

func hasWordAt(code string, i int, s string) bool {
	if !hasPrefixAt(code, i, s) {
		return false
	}
	end := i + len(s)
	return end >= len(code) || !isByteIdentifierChar(code[end])
}

// skipSpaces skips spaces, tabs, and newlines, returns new index
func skipSpaces(code string, i int) int {
	for i < len(code) && isWhiteSpace(code[i]) {
		i++
	}
	return i
}

// skipQuoted returns the index just past the closing quote of the literal
// starting at code[i], or len(code) if it is not closed on this line.
func skipQuoted(code string, i int) int {
	quote := code[i]
	i++
	for i < len(code) {
		if code[i] == '\\' && i+1 < len(code) {
			i += 2
			continue
		}
		if code[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

// parseStringLiteral extracts the string literal at position i (' or ").
func parseStringLiteral(code string, i int) (value string, next int, ok bool) {
	if i >= len(code) || (code[i] != '\'' && code[i] != '"') {
		return "", i, false
	}
	quote := code[i]
	i++
	start := i
	for i < len(code) && code[i] != quote {
		i++
	}
	if i >= len(code) {
		return "", i, false
	}
	return code[start:i], i + 1, true
}

// parseIdentifier extracts a single identifier token starting at position i.
func parseIdentifier(code string, i int) (name string, next int) {
	start := i
	for i < len(code) && isByteIdentifierChar(code[i]) {
		i++
	}
	return code[start:i], i
}

type braceKind uint8

const (
	blockBrace braceKind = iota
	objectBrace
)

type braceFrame struct {
	kind       braceKind
	parenDepth int
	// ternaries pending outside the brace, restored when it closes
	ternaries int
}

// scanCursor is the scan state of one transform pass. It is carried from line
// to line, so literals and parameter lists may span line breaks.
type scanCursor struct {
	inString       bool
	stringChar     byte
	inBlockComment bool
	parenDepth     int
	braces         []braceFrame
	ternaries      int

	lastSignificant byte
	lastWord        []byte
	afterSpace      bool
}

func (c *scanCursor) enterString(quote byte) {
	c.inString = true
	c.stringChar = quote
}

// leaveString only reacts to the quote character that opened the literal.
func (c *scanCursor) leaveString(quote byte) bool {
	if !c.inString || quote != c.stringChar {
		return false
	}
	c.inString = false
	c.stringChar = 0
	c.note(quote)
	return true
}

// endLine drops string state at a line break. Only template literals and
// backslash continuations carry on to the next line.
func (c *scanCursor) endLine(line string) {
	if c.inString && c.stringChar != '`' && byteAt(line, len(line)-1) != '\\' {
		c.inString = false
		c.stringChar = 0
	}
}

func (c *scanCursor) openParen() {
	c.parenDepth++
}

func (c *scanCursor) closeParen() {
	if c.parenDepth > 0 {
		c.parenDepth--
	}
}

// openBrace pushes a frame for an emitted '{', classifying it from the code
// emitted before it.
func (c *scanCursor) openBrace() {
	kind := blockBrace
	if c.startsObjectLiteral() {
		kind = objectBrace
	}
	c.braces = append(c.braces, braceFrame{kind: kind, parenDepth: c.parenDepth, ternaries: c.ternaries})
	c.ternaries = 0
}

func (c *scanCursor) closeBrace() {
	if len(c.braces) > 0 {
		c.ternaries = c.braces[len(c.braces)-1].ternaries
		c.braces = c.braces[:len(c.braces)-1]
	}
}

func (c *scanCursor) startsObjectLiteral() bool {
	switch c.lastSignificant {
	case '=', '(', ',', ':', '[', '?', '!', '&', '|':
		return true
	}
	if isByteIdentifierChar(c.lastSignificant) {
		word := string(c.lastWord)
		return word == "return" || word == "yield"
	}
	return false
}

// relativeDepth is the paren depth counted from the innermost brace, so a
// function body passed as an argument reads as statement context again.
func (c *scanCursor) relativeDepth() int {
	if len(c.braces) == 0 {
		return c.parenDepth
	}
	return c.parenDepth - c.braces[len(c.braces)-1].parenDepth
}

func (c *scanCursor) inObjectLiteral() bool {
	if len(c.braces) == 0 {
		return false
	}
	top := c.braces[len(c.braces)-1]
	return top.kind == objectBrace && top.parenDepth == c.parenDepth
}

// note records an emitted code byte for brace classification.
func (c *scanCursor) note(ch byte) {
	if isWhiteSpace(ch) {
		c.afterSpace = true
		return
	}
	if isByteIdentifierChar(ch) {
		if c.afterSpace || !isByteIdentifierChar(c.lastSignificant) {
			c.lastWord = c.lastWord[:0]
		}
		c.lastWord = append(c.lastWord, ch)
	}
	c.lastSignificant = ch
	c.afterSpace = false
}
