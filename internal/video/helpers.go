package video

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mssola/useragent"
)

func deleteWithRetry(ctx context.Context, files FileStore, key string, maxAttempts int) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		lastErr = files.Delete(ctx, key)
		if lastErr == nil {
			return nil
		}
		slog.Error("storage: delete attempt failed", "attempt", attempt+1, "max_attempts", maxAttempts, "key", key, "error", lastErr)
	}
	return fmt.Errorf("all %d delete attempts failed for %s: %w", maxAttempts, key, lastErr)
}

func viewerHash(ip, ua string) string {
	h := sha256.Sum256([]byte(ip + "|" + ua))
	return fmt.Sprintf("%x", h[:8])
}

func parseBrowser(uaString string) string {
	if uaString == "" {
		return "Other"
	}
	ua := useragent.New(uaString)
	name, _ := ua.Browser()
	switch name {
	case "Chrome", "Safari", "Firefox", "Edge", "Opera":
		return name
	}
	return "Other"
}

func parseDevice(uaString string) string {
	if uaString == "" {
		return "Desktop"
	}
	lower := strings.ToLower(uaString)
	switch {
	case strings.Contains(lower, "ipad"), strings.Contains(lower, "tablet"),
		strings.Contains(lower, "android") && !strings.Contains(lower, "mobile"):
		return "Tablet"
	case useragent.New(uaString).Mobile():
		return "Mobile"
	}
	return "Desktop"
}

// forbidRedirect answers an ownership failure on a page route: 403 with a
// Location pointing back at the listing, matching the redirect-on-forbidden
// behavior of the rest of the site.
func forbidRedirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusForbidden)
}
