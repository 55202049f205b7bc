// Package http implements the HTTP handlers of the analysis service. Handlers
// stay thin: they parse the multipart upload, call the services layer and
// format the response.
//
// # Endpoints
//
//	POST /api/analyses          multipart field "file" -> JSON report
//	POST /api/analyses?format=csv                       -> monthly CSV
//	GET  /                      upload form
//	POST /                      HTML dashboard for the uploaded workbook
//	GET  /api/health[/live|/ready], /api/version
//	GET  /metrics               Prometheus exposition
//
// # Error Handling
//
// API errors are RFC 7807 problem details produced by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/missing",
//	    "title": "Missing Data",
//	    "status": 422,
//	    "detail": "missing data: sheet \"Cash Flow 7988\": sheet not found",
//	    "instance": "/api/analyses",
//	    "missing": {"sheet": "Cash Flow 7988", "reason": "sheet not found"}
//	}
//
// The dashboard renders the same problem as an inline notice with the
// matching status code.
package http
