package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tradelog-dev/tradelog/internal/model"
)

// ErrNoHeader is wrapped by FileParseError when the input has no header row.
var ErrNoHeader = errors.New("no header row")

// FileParseError reports an input that cannot be read as a header row
// followed by data rows. Nothing from such a file is kept.
type FileParseError struct {
	Line int // 0 when the failure is not tied to a line
	Err  error
}

func (e *FileParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing file: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parsing file: %v", e.Err)
}

func (e *FileParseError) Unwrap() error { return e.Err }

// Table is a delimiter-separated file split into headers and raw rows.
type Table struct {
	Headers []string
	Rows    []model.RawRow
}

// delimiters are the candidates SniffDelimiter chooses from, in tie-break order.
var delimiters = []rune{',', ';', '\t', '|'}

// ReadTable reads a header row and all data rows from r. A byte-order mark
// selects the encoding (UTF-16 exports are common); otherwise input is UTF-8.
// A zero delimiter is sniffed from the header line.
//
// Header cells are trimmed. Rows may be ragged: cells past the end of a
// short row are absent from its RawRow, extra cells are dropped. Rows whose
// cells are all blank are skipped. A repeated header keeps its first column.
func ReadTable(r io.Reader, delimiter rune) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, &FileParseError{Err: err}
	}

	if delimiter == 0 {
		delimiter = SniffDelimiter(firstLine(data))
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &FileParseError{Err: ErrNoHeader}
	}
	if err != nil {
		return nil, csvError(err)
	}

	headers := make([]string, len(header))
	blank := true
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil, &FileParseError{Line: 1, Err: ErrNoHeader}
	}

	t := &Table{Headers: headers}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		if blankRecord(rec) {
			continue
		}

		row := make(model.RawRow, len(headers))
		for i, h := range headers {
			if i >= len(rec) {
				break
			}
			if h == "" {
				continue
			}
			if _, dup := row[h]; dup {
				continue
			}
			row[h] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// SniffDelimiter picks the candidate delimiter occurring most often outside
// quotes in line. Ties go to the earlier candidate; no candidate means ','.
func SniffDelimiter(line string) rune {
	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return string(data)
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &FileParseError{Line: pe.Line, Err: pe.Err}
	}
	return &FileParseError{Err: err}
}
