// Package io reads and writes lineage tables.
//
// # Formats
//
//   - table: a boxed terminal table followed by a row count
//   - csv: RFC 4180 with a header row; nulls are empty fields
//   - markdown: a GitHub-flavored pipe table
//   - json: a document carrying the run ID, the column list, the rows and
//     per-root statistics; this is the only format [ReadJSON] reads back
//
// All tabular formats use the fixed column order of [lineage.Columns].
// Table and markdown output print nulls as NULL.
//
// # JSON Document
//
//	{
//	  "run_id": "4f1c...",
//	  "columns": ["distance", "source_object_domain", ...],
//	  "rows": [
//	    {"distance": 0, "source_object_domain": "TABLE", ..., "target_object_name": null, ...}
//	  ],
//	  "roots": [{"root": {...}, "type": "VIEW", "rows": 3, "stats": {...}}],
//	  "skipped": [{"root": {...}, "reason": "unknown object type: UNKNOWN", "code": "UNKNOWN_DOMAIN"}]
//	}
package io
