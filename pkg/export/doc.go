// Package export pulls log lines out of the LogDNA export API in fixed-size
// time windows and writes each window to its own file.
//
// # Overview
//
// A run covers [start, end]. The range is cut into windows of a fixed size;
// the last window is clamped to end, and a run always makes at least one
// request even when start == end. Windows are fetched one at a time.
//
// # Output Layout
//
// Each run gets its own directory:
//
//	logdna_export_for_<start_ms>_to_<end_ms>_ts<run_ms>/
//	    <from_ms>_to_<to_ms>.jsonl
//	    ...
//
// Each file holds the response body for that window exactly as the API
// returned it (newline-delimited JSON). Files are created exclusively and
// never rewritten.
//
// # Failures
//
// A window that fails to fetch or write is logged and recorded in the run
// Summary, and the exporter moves on to the next window. There is no retry.
// Re-run the tool over the failed window's range to recover it.
//
// # Programmatic Usage
//
//	client, err := logdna.NewClient(cfg.Endpoint, cfg.ServiceKey)
//	if err != nil {
//	    return err
//	}
//	summary, err := export.NewExporter(client).Run(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	for _, r := range summary.Failed() {
//	    log.Printf("window %s failed: %v", r.Window, r.Err)
//	}
package export
