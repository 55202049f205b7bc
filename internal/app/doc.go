// Package app wires configuration, logging, telemetry, the analysis
// pipeline and the HTTP surface into a runnable server.
//
// # Initialization Flow
//
//	1. Load configuration from environment and optional YAML file
//	2. Initialize structured logging and OpenTelemetry
//	3. Build the workbook loader, extractor and narrative provider
//	4. Create services, handlers and middleware
//	5. Configure the HTTP server
//
// # Routes
//
//	GET  /                    upload form
//	POST /                    analyze upload, render HTML dashboard
//	POST /api/analyses        analyze upload, JSON or CSV (?format=csv)
//	GET  /api/health          overall health
//	GET  /api/health/live     liveness probe
//	GET  /api/health/ready    readiness probe
//	GET  /api/version         build information
//	GET  /metrics             Prometheus exposition
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app
