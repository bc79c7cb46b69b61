// Package constants provides shared constants used throughout bankmap:
// timeouts, batch limits, file permissions and remote store defaults.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the remote store
	DefaultHTTPTimeout = 30 * time.Second

	// DownloadTimeout bounds fetching a single source input
	DownloadTimeout = 2 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// SyncTimeout is the timeout for a full reconcile run
	SyncTimeout = 30 * time.Minute
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Remote store limits
const (
	// DefaultPageSize is the number of records requested per list page
	DefaultPageSize = 100

	// BatchSize is the maximum number of records per delete, update or insert call
	BatchSize = 10

	// DefaultRateLimit is the sustained request rate allowed against the remote store
	DefaultRateLimit = 5.0

	// BurstSize is the token bucket burst for the remote store limiter
	BurstSize = 1

	// MaxConcurrentDownloads caps parallel source fetches
	MaxConcurrentDownloads = 4
)

// Defaults
const (
	// DefaultTable is the remote table holding exported banks
	DefaultTable = "bank"

	// DefaultSQLitePath is where the sqlite store keeps its database
	DefaultSQLitePath = "bankmap.db"

	// UnknownName is the display name of a bank no source could name
	UnknownName = "unk"

	// TimeFormatFilename is the format used in snapshot filenames
	TimeFormatFilename = "2006.01.02 15.04.05"
)
