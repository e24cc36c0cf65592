package config

// Application constants
const (
	AppName = "insight-report"

	// Store drivers
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	DefaultCPM            = 1500.0
	DefaultMaxChartRows   = 500
	DefaultMaxUploadBytes = 32 << 20 // 32MB
	MaxHeaderScanLimit    = 50

	// bcrypt.MinCost and bcrypt.MaxCost
	MinBcryptCost     = 4
	MaxBcryptCost     = 31
	DefaultBcryptCost = 10
)
