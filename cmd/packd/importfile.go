package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"packd/internal/apperr"
	"packd/internal/service"
)

// readImportFile loads import rows from a CSV or YAML file. format may be
// empty, in which case the file extension decides.
func readImportFile(path, format string) ([]service.ImportRow, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = "yaml"
		default:
			format = "csv"
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch format {
	case "csv":
		return parseCSV(f)
	case "yaml":
		return parseYAML(f)
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown format %q (want csv or yaml)", format))
	}
}

// parseCSV reads "category,item" records. A leading header row is skipped.
func parseCSV(r io.Reader) ([]service.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var rows []service.ImportRow
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("invalid CSV: %v", err))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "category") && strings.EqualFold(strings.TrimSpace(rec[1]), "item") {
			continue
		}
		rows = append(rows, service.ImportRow{Category: rec[0], Item: rec[1]})
	}
	return rows, nil
}

// parseYAML reads a mapping of category name to a list of item names:
//
//	Toiletries:
//	  - Toothbrush
//	  - Sunscreen
//
// Categories keep the order they appear in the file.
func parseYAML(r io.Reader) ([]service.ImportRow, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, apperr.Validation(fmt.Sprintf("invalid YAML: %v", err))
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, apperr.Validation("YAML import must be a mapping of category to items")
	}

	root := doc.Content[0]
	var rows []service.ImportRow
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		var items []string
		if err := value.Decode(&items); err != nil {
			return nil, apperr.Validation(fmt.Sprintf("line %d: items of %q must be a list of names", value.Line, key.Value))
		}
		for _, item := range items {
			rows = append(rows, service.ImportRow{Category: key.Value, Item: item})
		}
	}
	return rows, nil
}
