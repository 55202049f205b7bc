// Package config provides centralized configuration for the analysis service
// and CLI.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, lowest priority first:
//
//	1. Default values (Default)
//	2. A YAML file: $SFA_CONFIG_FILE, config.yaml or configs/config.yaml
//	3. Environment variables prefixed with SFA_
//
// # Environment Variables
//
// Nested sections compose their names with underscores:
//
//	SFA_SERVER_PORT=8080
//	SFA_WORKBOOK_SHEETS_CASH_FLOW="Cash Flow 7988"
//	SFA_EXTRACTION_INTEREST_FALLBACK=10000
//	SFA_NARRATIVE_PROVIDER=openai
//	SFA_NARRATIVE_API_KEY=...
//
// # Validation
//
// Load validates the merged configuration with go-playground/validator
// struct tags and rejects it before any component is constructed.
package config
