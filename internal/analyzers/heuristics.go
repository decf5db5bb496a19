package analyzers

import (
	"triage/internal/engine"
)

// opener remembers where an unmatched bracket was seen.
type opener struct {
	ch   byte
	line int
	col  int
}

// heuristicRecords is the parser-free syntax pass: bracket balance and
// unterminated string detection. Findings are warnings prefixed "possible"
// since there is no grammar behind them.
func heuristicRecords(file string, content []byte, lang string) []engine.ErrorRecord {
	var records []engine.ErrorRecord
	var stack []opener

	line, col := 1, 0
	var inString byte
	var inTriple byte
	stringLine, stringCol := 0, 0
	inBlockComment := false

	i := 0
	for i < len(content) {
		ch := content[i]
		col++

		if ch == '\n' {
			if inString != 0 && inString != '`' {
				records = append(records, possibleRecord(file, lang, stringLine, stringCol,
					"possible unterminated string"))
				inString = 0
			}
			line++
			col = 0
			i++
			continue
		}

		if inBlockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				inBlockComment = false
				i += 2
				col++
				continue
			}
			i++
			continue
		}

		if inTriple != 0 {
			if ch == inTriple && i+2 < len(content) && content[i+1] == ch && content[i+2] == ch {
				inTriple = 0
				i += 3
				col += 2
				continue
			}
			i++
			continue
		}

		if inString != 0 {
			if ch == '\\' {
				i += 2
				col++
				continue
			}
			if ch == inString {
				inString = 0
			}
			i++
			continue
		}

		// Python docstrings span lines; track them separately so the
		// per-line string check does not fire inside them.
		if lang == "python" && (ch == '"' || ch == '\'') &&
			i+2 < len(content) && content[i+1] == ch && content[i+2] == ch {
			inTriple = ch
			i += 3
			col += 2
			continue
		}

		if lang == "python" && ch == '#' {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}
		if lang != "python" && ch == '/' && i+1 < len(content) {
			if content[i+1] == '/' {
				for i < len(content) && content[i] != '\n' {
					i++
				}
				continue
			}
			if content[i+1] == '*' {
				inBlockComment = true
				i += 2
				col++
				continue
			}
		}

		switch ch {
		case '\'', '"':
			inString = ch
			stringLine, stringCol = line, col
		case '`':
			if lang != "python" {
				inString = '`'
				stringLine, stringCol = line, col
			}
		case '(', '[', '{':
			stack = append(stack, opener{ch: ch, line: line, col: col})
		case ')', ']', '}':
			if len(stack) == 0 || closerFor(stack[len(stack)-1].ch) != ch {
				records = append(records, possibleRecord(file, lang, line, col,
					`possible unexpected "`+string(ch)+`"`))
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			} else {
				stack = stack[:len(stack)-1]
			}
		}
		i++
	}

	if inString != 0 {
		records = append(records, possibleRecord(file, lang, stringLine, stringCol,
			"possible unterminated string"))
	}
	for _, op := range stack {
		records = append(records, possibleRecord(file, lang, op.line, op.col,
			`possible unclosed "`+string(op.ch)+`"`))
	}

	return records
}

func closerFor(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return 0
}

func possibleRecord(file, lang string, line, col int, message string) engine.ErrorRecord {
	return engine.ErrorRecord{
		File:     file,
		Line:     line,
		Column:   col,
		Category: engine.CategorySyntax,
		Severity: engine.SeverityWarning,
		Message:  message,
		Language: lang,
	}
}
