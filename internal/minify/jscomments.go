package minify

import (
	"strings"
)

// keywords after which a slash starts a regex literal rather than a division.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "void": true, "yield": true, "await": true,
	"delete": true, "instanceof": true, "new": true, "throw": true,
}

// StripJSComments removes // and /* */ comments from JavaScript source while
// leaving string, template and regex literals alone. Line comments keep
// their terminating newline.
func StripJSComments(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	var (
		// last significant (non-space, non-comment) byte emitted
		prev byte
		// prev closes a ++ or -- operator
		incDec bool
		// identifier being read
		word strings.Builder
		// last complete identifier, cleared by punctuation
		lastWord string
	)

	currentWord := func() string {
		if word.Len() > 0 {
			return word.String()
		}
		return lastWord
	}

	flushWord := func() {
		if word.Len() > 0 {
			lastWord = word.String()
			word.Reset()
		}
	}

	n := len(src)
	for i := 0; i < n; i++ {
		c := src[i]

		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				return out.String()
			}
			i += end - 1
			continue

		case c == '/' && i+1 < n && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return out.String()
			}
			i += end + 3
			continue

		case c == '\'' || c == '"' || c == '`':
			flushWord()
			var j int
			if c == '`' {
				j = skipTemplate(src, i)
			} else {
				j = skipQuoted(src, i, c)
			}
			out.WriteString(src[i:j])
			i = j - 1
			prev, incDec = c, false
			lastWord = ""
			continue

		case c == '/' && !incDec && startsRegex(prev, currentWord()):
			flushWord()
			j := skipRegex(src, i)
			out.WriteString(src[i:j])
			i = j - 1
			prev, incDec = '/', false
			lastWord = ""
			continue
		}

		out.WriteByte(c)

		switch {
		case isIdentByte(c):
			if word.Len() == 0 {
				lastWord = ""
			}
			word.WriteByte(c)
			prev, incDec = c, false
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			flushWord()
		default:
			flushWord()
			lastWord = ""
			incDec = (c == '+' || c == '-') && prev == c && i > 0 && src[i-1] == c && !incDec
			prev = c
		}
	}

	return out.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

// startsRegex decides whether a slash at this point opens a regex literal.
func startsRegex(prev byte, lastWord string) bool {
	if prev == 0 {
		return true
	}
	if isIdentByte(prev) {
		return regexKeywords[lastWord]
	}
	switch prev {
	case ')', ']', '}', '\'', '"', '`', '/':
		return false
	}
	return true
}

// skipQuoted returns the index just past the closing quote of the literal
// starting at src[start]. Unterminated literals run to the end of input.
func skipQuoted(src string, start int, quote byte) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			if quote != '`' {
				return i
			}
		}
	}
	return len(src)
}

// skipTemplate returns the index just past the template literal starting at
// src[start]. Substitutions are scanned as code, so literals nested inside
// ${ } may contain backticks and braces.
func skipTemplate(src string, start int) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '`':
			return i + 1
		case '$':
			if i+1 < len(src) && src[i+1] == '{' {
				i = skipSubstitution(src, i+2) - 1
			}
		}
	}
	return len(src)
}

// skipSubstitution returns the index just past the brace closing the
// template substitution whose body starts at src[start].
func skipSubstitution(src string, start int) int {
	depth := 1
	for i := start; i < len(src); i++ {
		switch c := src[i]; c {
		case '\'', '"':
			i = skipQuoted(src, i, c) - 1
		case '`':
			i = skipTemplate(src, i) - 1
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(src)
}

// skipRegex returns the index just past the regex literal starting at
// src[start], including its flags.
func skipRegex(src string, start int) int {
	inClass := false
	i := start + 1
	for ; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\':
			i++
		case c == '\n':
			return i
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '/':
			i++
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			return i
		}
	}
	return len(src)
}
