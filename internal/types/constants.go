package types

import (
	"strings"
)

const ContextUserKey = "user"

const (
	RegimentsPerPage    = 25
	EmployeesPerPage    = 50
	MaxEmployeesPerPage = 200
)

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
)

// AllowedOrigins returns the development origins plus the comma-separated extra origins.
func AllowedOrigins(extra string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if extra != "" {
		for _, origin := range strings.Split(extra, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
