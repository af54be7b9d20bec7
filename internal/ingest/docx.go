package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type docxReader struct{}

func (docxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".docx")
}

// Read returns the first table of the document with its first row as header.
// Documents without tables yield a single "Content" column of paragraphs.
func (docxReader) Read(path string, opt Options) ([]string, [][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read docx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, nil, fmt.Errorf("open docx: %w", err)
	}
	docXML := readZipFile(zr, "word/document.xml")
	if len(docXML) == 0 {
		return nil, nil, fmt.Errorf("document.xml not found in DOCX")
	}
	grid, paragraphs, err := scanDocument(docXML)
	if err != nil {
		return nil, nil, fmt.Errorf("parse document.xml: %w", err)
	}
	if len(grid) > 0 {
		if len(grid) == 1 {
			header := make([]string, len(grid[0]))
			for i := range header {
				header[i] = strconv.Itoa(i)
			}
			return header, limitRows(grid, opt.MaxRows), nil
		}
		width := 0
		for _, row := range grid {
			width = max(width, len(row))
		}
		header := padRow(grid[0], width)
		rows := make([][]string, 0, len(grid)-1)
		for _, row := range grid[1:] {
			rows = append(rows, padRow(row, width))
		}
		return header, limitRows(rows, opt.MaxRows), nil
	}
	if len(paragraphs) == 0 {
		return nil, nil, fmt.Errorf("word document: %w", ErrNoData)
	}
	rows := make([][]string, len(paragraphs))
	for i, p := range paragraphs {
		rows[i] = []string{p}
	}
	return []string{"Content"}, limitRows(rows, opt.MaxRows), nil
}

// scanDocument walks word/document.xml once, collecting the cells of the first
// top-level table and the non-empty paragraphs outside any table.
func scanDocument(data []byte) ([][]string, []string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		grid       [][]string
		paragraphs []string
		tblDepth   int
		tablesSeen int
		inText     bool
		para       strings.Builder
		cell       []string
		row        []string
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					tablesSeen++
				}
			case "tr":
				if tblDepth == 1 {
					row = nil
				}
			case "tc":
				if tblDepth == 1 {
					cell = nil
				}
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				switch {
				case tblDepth == 0:
					if text != "" {
						paragraphs = append(paragraphs, text)
					}
				case tblDepth == 1 && tablesSeen == 1:
					cell = append(cell, text)
				}
				para.Reset()
			case "tc":
				if tblDepth == 1 && tablesSeen == 1 {
					row = append(row, strings.TrimSpace(strings.Join(cell, "\n")))
				}
			case "tr":
				if tblDepth == 1 && tablesSeen == 1 {
					grid = append(grid, row)
				}
			case "tbl":
				tblDepth--
			}
		case xml.CharData:
			if inText {
				para.Write(se)
			}
		}
	}
	return grid, paragraphs, nil
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func limitRows(rows [][]string, maxRows int) [][]string {
	if maxRows > 0 && len(rows) > maxRows {
		return rows[:maxRows]
	}
	return rows
}
