package internal

import (
	"bufio"
	"encoding/csv"
	"io"
	"iter"
	"strings"

	"github.com/cockroachdb/errors"
)

type Result[T any] struct {
	LineNum int
	Value   T
	Error   error
}

// ParseCSV yields one result per record. The separator is sniffed from the
// first line since ANP exports use ';' while hand-maintained files use ','.
// When hasHeader is set, the first record is passed to fromCSV as headers.
func ParseCSV[T any](r io.Reader, hasHeader bool, fromCSV func(record, headers []string) (T, error)) iter.Seq[Result[T]] {
	return func(yield func(Result[T]) bool) {
		br := bufio.NewReader(r)
		reader := csv.NewReader(br)
		reader.Comma = sniffComma(br)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true

		var headers []string
		lineNum := 0
		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			lineNum++
			if err != nil {
				yield(Result[T]{LineNum: lineNum, Error: errors.Wrapf(err, "failed to read CSV line %d", lineNum)})
				return
			}
			if hasHeader && headers == nil {
				headers = record
				continue
			}
			if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
				continue
			}

			value, err := fromCSV(record, headers)
			if err != nil {
				err = errors.Wrapf(err, "line %d", lineNum)
			}
			if !yield(Result[T]{LineNum: lineNum, Value: value, Error: err}) {
				return
			}
		}
	}
}

func sniffComma(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	line := string(peek)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}
