package main

import "strings"

type declKind uint8

const (
	declNone declKind = iota
	declBlock
	declAlias
	declAmbient
)

// classifyDeclaration recognizes type-only declarations on a trimmed line.
func classifyDeclaration(trimmed string) declKind {
	i := 0
	isDeclare := false
	if hasWordAt(trimmed, i, "export") {
		i = skipSpaces(trimmed, i+len("export"))
	}
	if isNamedDeclaration(trimmed, i, "declare") {
		isDeclare = true
		i = skipSpaces(trimmed, i+len("declare"))
	}
	if hasWordAt(trimmed, i, "const") {
		j := skipSpaces(trimmed, i+len("const"))
		if hasWordAt(trimmed, j, "enum") {
			i = j
		}
	}

	if isNamedDeclaration(trimmed, i, "interface") || isNamedDeclaration(trimmed, i, "enum") {
		return declBlock
	}
	if isDeclare && (hasWordAt(trimmed, i, "module") || hasWordAt(trimmed, i, "global") || hasWordAt(trimmed, i, "namespace")) {
		return declBlock
	}
	if isNamedDeclaration(trimmed, i, "type") && strings.Contains(trimmed[i:], "=") {
		return declAlias
	}
	if isDeclare {
		return declAmbient
	}
	return declNone
}

// isNamedDeclaration reports whether keyword at i is followed by an identifier,
// so `type = 1` or `enum.x` stay untouched.
func isNamedDeclaration(code string, i int, keyword string) bool {
	if !hasWordAt(code, i, keyword) {
		return false
	}
	j := i + len(keyword)
	if j >= len(code) || !isWhiteSpace(code[j]) {
		return false
	}
	j = skipSpaces(code, j)
	name, _ := parseIdentifier(code, j)
	return name != ""
}

// skipBraceBlock returns the index of the first line after the brace that
// closes the block opened on or after lines[start]. Counting starts at the
// first '{'; an unterminated block consumes the rest of the input.
func skipBraceBlock(lines []string, start int) int {
	braceCount := 0
	foundOpening := false
	inBlockComment := false

	for i := start; i < len(lines); i++ {
		line := lines[i]
		for j := 0; j < len(line); j++ {
			ch := line[j]
			if inBlockComment {
				if ch == '*' && byteAt(line, j+1) == '/' {
					inBlockComment = false
					j++
				}
				continue
			}
			switch {
			case ch == '/' && byteAt(line, j+1) == '/':
				j = len(line)
			case ch == '/' && byteAt(line, j+1) == '*':
				inBlockComment = true
				j++
			case isQuote(ch):
				j = skipQuoted(line, j) - 1
			case ch == '{':
				foundOpening = true
				braceCount++
			case ch == '}' && foundOpening:
				braceCount--
				if braceCount <= 0 {
					return i + 1
				}
			}
		}
	}
	return len(lines)
}

// skipTypeAlias returns the index of the first line after the alias starting
// at lines[start]. Aliases spanning several lines are followed through open
// brackets and leading or trailing union/intersection operators.
func skipTypeAlias(lines []string, start int) int {
	i := start
	balance := 0
	for {
		balance += bracketBalance(lines[i])
		i++
		if i >= len(lines) {
			return i
		}
		if balance > 0 {
			continue
		}
		prev := strings.TrimSpace(lines[i-1])
		next := strings.TrimSpace(lines[i])
		if strings.HasSuffix(prev, "=") || strings.HasSuffix(prev, "|") || strings.HasSuffix(prev, "&") ||
			strings.HasPrefix(next, "|") || strings.HasPrefix(next, "&") {
			continue
		}
		return i
	}
}

func bracketBalance(line string) int {
	balance := 0
	for j := 0; j < len(line); j++ {
		ch := line[j]
		switch {
		case ch == '/' && byteAt(line, j+1) == '/':
			return balance
		case isQuote(ch):
			j = skipQuoted(line, j) - 1
		case ch == '=' && byteAt(line, j+1) == '>':
			j++
		case ch == '{' || ch == '(' || ch == '[' || ch == '<':
			balance++
		case ch == '}' || ch == ')' || ch == ']' || ch == '>':
			balance--
		}
	}
	return balance
}

// elideTypeDeclarations drops interfaces, enums, type aliases and ambient
// declarations, producing zero output lines for each of them.
func elideTypeDeclarations(lines []string, report *Report) []string {
	kept := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		next := i + 1
		switch classifyDeclaration(trimmed) {
		case declBlock:
			next = skipBraceBlock(lines, i)
		case declAlias:
			next = skipTypeAlias(lines, i)
		case declAmbient:
			if strings.Contains(trimmed, "{") {
				next = skipBraceBlock(lines, i)
			}
		default:
			kept = append(kept, lines[i])
			i++
			continue
		}
		if next <= i {
			next = i + 1
		}
		report.DroppedLines += next - i
		i = next
	}
	return kept
}
