// Package constants provides shared constants for the waterfall calculator.
package constants

// Statutory and contractual rates, expressed as fractions of gross revenue.
const (
	// CAMPct is the collection account management fee (1% of gross)
	CAMPct = 0.01

	// SAGPct is the SAG-AFTRA residual reserve
	SAGPct = 0.045

	// WGAPct is the WGA residual reserve
	WGAPct = 0.012

	// DGAPct is the DGA residual reserve
	DGAPct = 0.012

	// InvestorProfitShare is the equity side of the default 50/50 backend split
	InvestorProfitShare = 0.5
)

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default deal file name
	DefaultConfigFile = "deals.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the calculator API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML deal files (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// RequestIDHeader carries the per-request identifier on every API response
	RequestIDHeader = "X-Request-ID"

	// ServerAddressEnv overrides the configured listen address when set
	ServerAddressEnv = "WATERFALL_ADDRESS"
)

// Sensitivity defaults
const (
	// MaxSweepPoints bounds the number of revenue points a single sweep may produce
	MaxSweepPoints = 1000

	// DefaultSolverTolerance is the revenue tolerance (in dollars) for the bisection solver
	DefaultSolverTolerance = 0.01

	// DefaultSolverMaxIterations caps bisection iterations
	DefaultSolverMaxIterations = 200
)

// Display placeholders
const (
	// InfinitySymbol is rendered for unbounded values such as an unreachable breakeven
	InfinitySymbol = "∞"

	// NotApplicable is rendered where a ratio has no meaning (e.g. multiple without equity)
	NotApplicable = "—"
)
