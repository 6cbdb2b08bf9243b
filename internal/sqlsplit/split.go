// Package sqlsplit implements the end-of-line semicolon splitting rule of
// spec §4.3: a semicolon that immediately precedes a line terminator, or is
// the final non-whitespace character of the file, terminates a statement. A
// semicolon anywhere else does not split. The splitter never parses quotes
// or comments; it is deliberately text-only.
package sqlsplit

import "strings"

// Split breaks body into an ordered list of trimmed, non-empty SQL
// statements using the end-of-line semicolon rule. The terminating
// semicolon itself marks the boundary and is not included in the
// returned statement text, so Split(joinWithSemicolonNewline(xs)) == xs
// for any xs of non-empty statements containing no ";\n" sequence.
func Split(body string) []string {
	var statements []string
	var current strings.Builder

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		// strings.Split on "\n" turns a trailing "\r\n" into a line ending
		// in "\r"; trim it so a CRLF file is treated the same as LF.
		trimmedLine := strings.TrimSuffix(line, "\r")
		rtrimmed := strings.TrimRight(trimmedLine, " \t")
		isLastLine := i == len(lines)-1

		terminates := strings.HasSuffix(trimmedLine, ";")
		if !terminates && strings.HasSuffix(rtrimmed, ";") {
			// Blanks after the semicolon keep it terminating only when
			// nothing but whitespace follows it in the rest of the body.
			terminates = strings.TrimSpace(strings.Join(lines[i+1:], "\n")) == ""
		}
		lineToAppend := trimmedLine
		if terminates {
			// The final line's trailing semicolon also terminates a
			// statement even without a following newline (spec §4.3: "or
			// is the final non-whitespace character of the file").
			lineToAppend = strings.TrimRight(strings.TrimSuffix(rtrimmed, ";"), " \t")
		}

		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(lineToAppend)

		if terminates {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		if isLastLine && strings.TrimSpace(rtrimmed) == "" {
			// Trailing blank line(s); nothing to flush.
			continue
		}
	}

	if trailing := strings.TrimSpace(current.String()); trailing != "" {
		statements = append(statements, trailing)
	}

	return statements
}
