package config

import "time"

// Extract defaults.
const (
	DefaultWorkers     = 0 // runtime.NumCPU()
	DefaultRepoTimeout = time.Duration(0)
	DefaultAllRefs     = false
	DefaultFormat      = "xlsx"
	DefaultOutputDir   = "."
)

// Acquire defaults.
const (
	DefaultCloneTimeout = 10 * time.Minute
	DefaultWorkDir      = ""
	DefaultKeepClones   = false
)

// Upload defaults.
const (
	DefaultUploadTimeout = 5 * time.Minute
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Telemetry defaults.
const (
	DefaultServiceName  = "codechurn"
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultMetricsAddr  = ""
	DefaultSampleRatio  = 1.0
)
