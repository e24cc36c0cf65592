// Package exporter renders a dashboard as tables for download.
//
// Every chart series becomes one Table with a header row. Tables are written
// either as CSV (one table per file, optionally with a UTF-8 BOM so Excel
// picks the right encoding) or as a single XLSX workbook with one sheet per
// table.
//
// Example usage:
//
//	tables := exporter.Tables(dashboard)
//	err := exporter.WriteCSV(w, tables[0], exporter.WriteOptions{BOMPrefix: true})
//
//	err = exporter.WriteXLSX(w, dashboard)
package exporter
