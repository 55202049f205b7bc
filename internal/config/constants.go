package config

import "time"

// Application constants
const (
	AppName    = "Storage Financial Analysis"
	AppVersion = "1.0.0"

	DefaultPort = 8080

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 10

	// Uploads
	DefaultMaxUploadBytes = 20 << 20 // 20MB

	// DefaultInterestExpense is the monthly interest expense assumed when a
	// workbook has no interest expense row.
	DefaultInterestExpense = 10000.0

	// DSCRBreakEven is the coverage ratio a month must exceed to count as
	// break-even.
	DSCRBreakEven = 1.0

	DefaultNarrativeTimeout = 45 * time.Second

	DefaultLogFile = "logs/app.log"
)
