// Package services implements the application layer between the transports
// (HTTP handlers, CLI) and the workbook/analysis packages.
//
// # Analysis
//
// AnalysisService runs one upload through a linear pipeline:
//
//	load workbook -> extract labelled rows -> derive snapshot -> narrative
//
// Every upload builds its own workbook, label index and snapshot, so a single
// service value is shared freely between concurrent requests. Missing sheets
// or labels abort before ratios are derived and surface as
// errors.MissingDataError. The narrative step only annotates the report; its
// failure is recorded on the report and in metrics.
//
// # Health
//
// HealthService backs the /api/health endpoints and reports readiness of the
// analysis pipeline, the workbook layout and the narrative provider.
package services
