// Package dataprocessing turns uploaded marketing exports into classified row-sets.
// It covers everything up to, but not including, aggregation: tokenizing CSV and
// XLSX files, cleaning numbers and dates, locating the header row, resolving
// columns by name, and deciding which report type a file holds.
//
// # Architecture
//
// The package is organized into four layers:
//
// 1. Tokenizer (parser.go): reads CSV or XLSX bytes into raw rows of strings
// 2. Normalizers (numeric.go, dates.go): convert cell text into floats and sortable dates
// 3. HeaderMatcher (header.go): finds the header row and semantic columns
// 4. ReportClassifier (classifier.go): maps a header set to a domain.ReportType
//
// builder.go ties them together and produces domain.ClassifiedReport values.
//
// # Usage
//
//	rows, err := dataprocessing.ParseFile("suitability.xlsx", f)
//	if err != nil {
//	    return err
//	}
//	report := dataprocessing.BuildFromRows("suitability.xlsx", rows, dataprocessing.BuildOptions{})
//	if report.Type == domain.ReportTypeUnknown {
//	    // dropped from aggregation, surfaced to the caller as 0 rows
//	}
//
// # Data Flow
//
//	File → ParseFile → [][]string → FindHeaderRow → Classify → ClassifiedReport
//
// # Error Handling
//
// Cleaning never fails: malformed numbers become 0 and unrecognized dates pass
// through trimmed. Only the tokenizer returns errors, and only for bytes that
// cannot be decoded at all (corrupt workbook, unreadable stream).
//
// # Classification Rules
//
// Headers are lower-cased, trimmed and joined with "|" before testing, first
// match wins:
//
//	Performance  "category name" and "vcr"
//	Suitability  ("brand suitability" or "suitability%") and "suitable impressions"
//	Viewability  ("viewability rate" or "viewability%") and "gross impressions"
//	Exclusion    "video suitability" and "placement name"
//
// A filename hint is consulted only when the headers classify as Unknown.
package dataprocessing
