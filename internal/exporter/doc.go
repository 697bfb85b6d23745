// Package exporter writes datasets as CSV.
//
// CSVWriter is the core writer, with a UTF-8 BOM option so Excel detects the
// encoding. EncodeDataset renders an enriched dataset in column order and is
// used for the enriched.csv session artifact and the CLI output directory.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(logger)
//	data, err := w.EncodeDataset(enriched.Dataset)
package exporter
