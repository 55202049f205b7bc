package contracts

import (
	"runtime"
)

const (
	Version = "1.0.0"

	// ReportFormatVersion versions the JSON shape of AnalysisReport.
	ReportFormatVersion = "v1"

	APIVersion = "v1"
)

// Stamped by build.go through -ldflags -X.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is served by GET /api/version
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
	ReportFormat string `json:"report_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo returns build and runtime version details.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
		ReportFormat: ReportFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetVersionString is the short form shown in the dashboard footer.
func GetVersionString() string {
	s := "Storage Financial Analysis v" + Version
	if GitCommit != "unknown" {
		s += " (" + GitCommit + ")"
	}
	return s
}
