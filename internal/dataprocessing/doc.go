// Package dataprocessing turns uploaded Resights and ReData exports into
// analysable observations.
//
// # Architecture
//
// The package is organized into four steps:
//
//  1. Loader: reads an xlsx workbook (excelize) or a CSV export into a Dataset
//  2. Registry: resolves a versioned Schema and detects missing columns
//  3. Derive: parses dates and WKT centroids and computes the per-area metric
//  4. Statistics: mean, least squares trend and kernel density estimates (gonum)
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//	ds, err := loader.Load(ctx, file, domain.FormatXLSX, dataprocessing.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//
//	result, err := dataprocessing.DefaultRegistry().Detect(ds, domain.SourceTransactions, "latest")
//	if err != nil {
//	    return err
//	}
//	if !result.Valid {
//	    fmt.Println(result.Message())
//	    return nil
//	}
//
//	enriched := dataprocessing.Derive(ds, result.Schema, dataprocessing.DeriveOptions{})
//	mean := dataprocessing.Mean(enriched)
//
// Records that cannot be used are counted in Enriched.Drops rather than
// aborting the batch.
package dataprocessing
