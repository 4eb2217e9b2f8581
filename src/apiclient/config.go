package apiclient

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds configuration for the backend API client
type Config struct {
	BaseURL    string        // Base URL of the backend API, e.g. http://localhost:5000/api
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // HTTP timeout
	RetryCount int           // Attempts for idempotent requests
	RetryDelay time.Duration // Delay between attempts, scaled by attempt number

	RequestsPerMinute int // Client-side pacing; 0 disables
	BurstSize         int

	Headers    map[string]string // Extra headers sent on every request
	HTTPClient *http.Client      // Optional; overrides Timeout
}
