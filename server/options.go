package server

import (
	"runtime"
	"time"

	"rawserve/http"
)

type Options struct {
	Decode http.DecodeOptions
	Encode http.EncodeOptions

	Timeout TimeoutOptions

	// WorkerPoolSize bounds how many connections are handled at once;
	// the accept loop blocks once the pool is exhausted. 0 picks the
	// default of twice the available parallelism.
	WorkerPoolSize uint

	// GracePeriod is how long Close waits for in-flight connections
	// before force-closing them. 0 picks the default.
	GracePeriod time.Duration
}

type TimeoutOptions struct {
	// HeadTimeout bounds reading the request line and headers, so a
	// slow or idle client cannot hold a worker. 0 means no limit.
	HeadTimeout time.Duration

	// BodyTimeout bounds reading the declared body; typically longer
	// than HeadTimeout. 0 means no limit.
	BodyTimeout time.Duration

	// WriteTimeout bounds writing the response. 0 means no limit.
	WriteTimeout time.Duration
}

const (
	defaultGracePeriod = 5 * time.Second

	// DefaultHeadTimeout and friends mirror the conservative windows
	// this server has always shipped with.
	DefaultHeadTimeout  = 15 * time.Second
	DefaultBodyTimeout  = 30 * time.Second
	DefaultWriteTimeout = 60 * time.Second
)

// DefaultOptions returns the stock configuration: per-phase timeouts on,
// worker pool sized to the hardware.
func DefaultOptions() Options {
	return Options{
		Timeout: TimeoutOptions{
			HeadTimeout:  DefaultHeadTimeout,
			BodyTimeout:  DefaultBodyTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		WorkerPoolSize: defaultPoolSize(),
		GracePeriod:    defaultGracePeriod,
	}
}

func defaultPoolSize() uint { return uint(runtime.NumCPU()) * 2 }
