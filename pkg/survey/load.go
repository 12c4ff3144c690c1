package survey

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Format describes the CSV layout of a survey file. The first row is
// always the header.
type Format struct {
	Delimiter string `yaml:"delimiter"` // "," by default, "auto" sniffs the header line
	Encoding  string `yaml:"encoding"`  // IANA/HTML name, utf-8 by default
}

var numericCell = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// LoadCSV reads a survey file from disk.
func LoadCSV(path string, f Format) ([]Record, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open survey file: %w", err)
	}
	defer fh.Close()
	return ReadCSV(fh, f)
}

// ReadCSV parses survey rows. Empty cells are left absent from the record
// and numeric cells become Number values. Fully blank rows are skipped.
func ReadCSV(r io.Reader, f Format) ([]Record, error) {
	// Transcode non-UTF-8 encodings.
	if enc := f.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read survey data: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter(f.Delimiter, data)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("survey data is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		fields := make(map[string]Value, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" || cell == "" {
				continue
			}
			fields[header[i]] = parseCell(cell)
		}
		if len(fields) == 0 {
			continue
		}
		records = append(records, Record{Row: len(records) + 1, fields: fields})
	}
	return records, nil
}

func parseCell(cell string) Value {
	if numericCell.MatchString(cell) {
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return NumberValue(f)
		}
	}
	return StringValue(cell)
}

// delimiter resolves the configured delimiter; "auto" picks the most
// frequent of ',', ';' and tab on the header line.
func delimiter(d string, data []byte) rune {
	switch d {
	case "":
		return ','
	case `\t`, "tab":
		return '\t'
	case "auto":
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
		}
		best, bestN := ',', 0
		for _, c := range []rune{',', ';', '\t'} {
			if n := bytes.Count(line, []byte(string(c))); n > bestN {
				best, bestN = c, n
			}
		}
		return best
	}
	return []rune(d)[0]
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
