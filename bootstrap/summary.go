package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/pipestudio/component"
)

// Summary renders the startup report: every registered component with its
// self description and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	endpoints       []string
}

// NewSummary creates a summary for the named service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackEndpoint records an address shown under the components, such as the
// control API's listen address.
func (s *Summary) TrackEndpoint(endpoint string) {
	s.endpoints = append(s.endpoints, endpoint)
}

// Write prints the summary to w.
func (s *Summary) Write(ctx context.Context, w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())

	// Both lists follow registration order.
	descs := registry.Descriptions()
	health := registry.HealthAll(ctx)

	if len(descs) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n")
		return
	}

	healthy := 0
	fmt.Fprintf(w, "Components\n")
	for i, d := range descs {
		prefix := "├──"
		if i == len(descs)-1 {
			prefix = "└──"
		}
		var h component.Health
		if i < len(health) {
			h = health[i]
		}
		if h.Status == component.StatusHealthy {
			healthy++
		}
		line := fmt.Sprintf("   %s %s %s", prefix, statusIcon(h.Status), d.Name)
		if d.Type != "" {
			line += " [" + d.Type + "]"
		}
		if d.Details != "" {
			line += ": " + d.Details
		}
		if h.Message != "" {
			line += " (" + h.Message + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	for _, e := range s.endpoints {
		fmt.Fprintf(w, "Listening on %s\n", e)
	}

	if healthy == len(descs) {
		fmt.Fprintf(w, "All components healthy (%d/%d)\n", healthy, len(descs))
	} else {
		fmt.Fprintf(w, "Some components have issues (%d/%d healthy)\n", healthy, len(descs))
	}
}

func statusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✓"
	case component.StatusDegraded:
		return "!"
	case component.StatusUnhealthy:
		return "✗"
	}
	return "?"
}
