// Package utils provides utility functions used throughout the application.
package utils

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ParseInt parses a string into an int64 with a default value on error
func ParseInt(s string, defaultValue int64) int64 {
	if s == "" {
		return defaultValue
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return defaultValue
	}

	return val
}

// TruncateString truncates a string to the specified max length with ellipsis
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	return s[:maxLen-3] + "..."
}

// FormatDuration formats seconds into a human-readable duration (MM:SS)
func FormatDuration(seconds int) string {
	minutes := seconds / 60
	remainingSeconds := seconds % 60

	return fmt.Sprintf("%02d:%02d", minutes, remainingSeconds)
}

// FormatDurationLong formats seconds into a longer human-readable format (HH:MM:SS)
func FormatDurationLong(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	remainingSeconds := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, remainingSeconds)
	}

	return fmt.Sprintf("%02d:%02d", minutes, remainingSeconds)
}

// GetRequestIP gets the client IP address from the request
func GetRequestIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for proxies)
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		// If no proxy, get the remote address
		ip = r.RemoteAddr
	}

	// If there are multiple IPs in X-Forwarded-For, get the first one
	if strings.Contains(ip, ",") {
		ip = strings.TrimSpace(strings.Split(ip, ",")[0])
	}

	// Remove port number if present
	if strings.Contains(ip, ":") {
		ip = strings.Split(ip, ":")[0]
	}

	return ip
}

// GetPageParams extracts pagination parameters from an HTTP request
func GetPageParams(r *http.Request, defaultLimit int) (page, limit int) {
	pageStr := r.URL.Query().Get("page")
	limitStr := r.URL.Query().Get("limit")

	page = max(int(ParseInt(pageStr, 1)), 1)

	limit = int(ParseInt(limitStr, int64(defaultLimit)))
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}

	return page, limit
}
