package search

import (
	"bufio"
	"bytes"
	"strings"
)

// FlattenMarkdownTables rewrites Markdown table rows into one line per row so
// that each row reads as a standalone fact. When the first row of a table is
// followed by a separator row it becomes the header and data cells are
// labeled with it ("Fee: 100; Term: Fall"); otherwise rows are joined
// unlabeled. Non-table lines are kept verbatim (right trimmed). Input
// without tables is returned unchanged.
//
// Lines longer than 4 MiB make the scanner fail; the error is returned.
func FlattenMarkdownTables(data []byte) ([]byte, error) {
	if !bytes.Contains(data, []byte("|")) {
		return data, nil
	}

	var b strings.Builder
	b.Grow(len(data))
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		header   []string // labels for data rows, nil when unlabeled
		pending  []string // first row of the current table, role not yet known
		inTable  bool
		sawTable bool
	)
	emit := func(h, cells []string) {
		if s := renderRow(h, cells); s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}
	flushPending := func() {
		if pending != nil {
			emit(nil, pending)
			pending = nil
		}
	}

	for sc.Scan() {
		raw := strings.TrimRight(sc.Text(), " \t\r")
		line := strings.TrimSpace(raw)

		if !isTableRow(line) {
			flushPending()
			inTable, header = false, nil
			b.WriteString(raw)
			b.WriteByte('\n')
			continue
		}
		sawTable = true
		cells := splitCells(line)

		switch {
		case !inTable:
			inTable = true
			if isSeparatorRow(cells) {
				continue
			}
			pending = cells
		case isSeparatorRow(cells):
			if pending != nil {
				header, pending = pending, nil
			}
		default:
			flushPending()
			emit(header, cells)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flushPending()
	if !sawTable {
		return data, nil
	}
	return []byte(b.String()), nil
}

func isTableRow(line string) bool {
	return len(line) >= 2 && strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

func splitCells(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, ":- ") != "" {
			return false
		}
	}
	return true
}

func renderRow(header, cells []string) string {
	parts := make([]string, 0, len(cells))
	for i, c := range cells {
		if c == "" {
			continue
		}
		if i < len(header) && header[i] != "" {
			parts = append(parts, header[i]+": "+c)
			continue
		}
		parts = append(parts, c)
	}
	if header == nil {
		return strings.Join(parts, " ")
	}
	return strings.Join(parts, "; ")
}
