package faqsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/yanqian/shopbot/internal/domain/faq"
)

// Columns names the CSV header cells that carry each field.
type Columns struct {
	Question string
	Answer   string
	Type     string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw CSV bytes to text. Input that is not valid UTF-8 is
// re-read as Latin-1, which maps every byte to a rune and therefore cannot fail.
func Decode(data []byte, logger *slog.Logger) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	logger.Warn("csv is not valid utf-8, retrying with latin-1 encoding")
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode csv as latin-1: %w", err)
	}
	return string(decoded), nil
}

// ParseRows reads header-addressed rows out of decoded CSV text.
func ParseRows(text string, cols Columns) ([]faq.Row, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, exists := index[name]; !exists {
			index[name] = i
		}
	}
	qIdx, ok := index[cols.Question]
	if !ok {
		return nil, fmt.Errorf("csv missing question column %q", cols.Question)
	}
	aIdx, ok := index[cols.Answer]
	if !ok {
		return nil, fmt.Errorf("csv missing answer column %q", cols.Answer)
	}
	var (
		tIdx    int
		hasType bool
	)
	if cols.Type != "" {
		tIdx, hasType = index[cols.Type]
	}

	var rows []faq.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		line, _ := reader.FieldPos(0)
		row := faq.Row{
			Line:     line,
			Question: field(record, qIdx),
			Answer:   field(record, aIdx),
		}
		if hasType {
			row.Type = field(record, tIdx)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
