package sqlparser

import "strings"

// Statements splits a script into the statements a driver can execute one
// at a time. Terminating semicolons and comment only chunks are dropped.
func Statements(sql string) []string {
	var out []string
	for _, st := range splitStatements(sql) {
		if !commentOnly(st.text) {
			out = append(out, strings.TrimSpace(st.text))
		}
	}
	return out
}

func commentOnly(text string) bool {
	for {
		text = strings.TrimSpace(text)
		switch {
		case text == "":
			return true
		case strings.HasPrefix(text, "--"), strings.HasPrefix(text, "#"):
			end := strings.IndexByte(text, '\n')
			if end < 0 {
				return true
			}
			text = text[end+1:]
		case strings.HasPrefix(text, "/*"):
			end := strings.Index(text, "*/")
			if end < 0 {
				return true
			}
			text = text[end+2:]
		default:
			return false
		}
	}
}

type statement struct {
	text string
	line int // 1-based line of the first character
}

// splitStatements cuts a script at top level semicolons. Quoted strings,
// quoted identifiers, comments and postgres dollar quoted bodies are kept
// intact. Blank statements are dropped.
func splitStatements(sql string) []statement {
	var (
		out       []statement
		start     = 0
		startLine = 1
		line      = 1
	)

	flush := func(end int) {
		if text := sql[start:end]; strings.TrimSpace(text) != "" {
			out = append(out, statement{text: text, line: startLine})
		}
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\n':
			line++

		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(sql, i, c, &line)

		case c == '-' && i+1 < len(sql) && sql[i+1] == '-', c == '#':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			if i < len(sql) {
				line++
			}

		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				end = len(sql) - i - 2
			}
			line += strings.Count(sql[i:i+2+end], "\n")
			i += end + 3

		case c == '$':
			if tag, ok := dollarTag(sql[i:]); ok {
				end := strings.Index(sql[i+len(tag):], tag)
				if end < 0 {
					end = len(sql) - i - len(tag)
				} else {
					end += len(tag)
				}
				line += strings.Count(sql[i:i+len(tag)+end], "\n")
				i += len(tag) + end - 1
			}

		case c == ';':
			flush(i)
			start = i + 1
			startLine = line
		}
	}
	if start < len(sql) {
		flush(len(sql))
	}
	return out
}

// skipQuoted returns the index of the closing quote matching sql[i]. A
// doubled quote is an escaped quote; backslash escapes apply to strings.
func skipQuoted(sql string, i int, q byte, line *int) int {
	for j := i + 1; j < len(sql); j++ {
		switch sql[j] {
		case '\n':
			*line++
		case '\\':
			if q == '\'' {
				j++
			}
		case q:
			if j+1 < len(sql) && sql[j+1] == q {
				j++
				continue
			}
			return j
		}
	}
	return len(sql) - 1
}

// dollarTag matches a postgres dollar quote opener like $$ or $body$.
func dollarTag(s string) (string, bool) {
	for j := 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '$':
			return s[:j+1], true
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || j > 1 && c >= '0' && c <= '9':
			continue
		default:
			return "", false
		}
	}
	return "", false
}
