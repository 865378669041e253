package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// csvBatchSize is the number of data rows per node. Each batch repeats the
// header row so every table stands on its own after chunking.
const csvBatchSize = 20

// CSVParser handles CSV files.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	dataRows := records[1:]
	if len(dataRows) == 0 {
		tree.Children = []*doctree.DocNode{{Text: pipeTable([][]string{headers})}}
		return tree, nil
	}

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))
		rows := make([][]string, 0, end-i+1)
		rows = append(rows, headers)
		rows = append(rows, dataRows[i:end]...)

		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Text:  pipeTable(rows),
		})
	}

	return tree, nil
}
