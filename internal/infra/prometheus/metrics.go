package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application counters, registered on the default registry that the
// /metrics server exposes.
var (
	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleanlink_links_created_total",
		Help: "Number of shortlinks created.",
	})

	Resolutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleanlink_resolutions_total",
		Help: "Number of successful slug resolutions.",
	})

	SlugConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleanlink_slug_conflicts_total",
		Help: "Number of create attempts rejected because the slug was taken.",
	})

	ClickEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleanlink_click_events_published_total",
		Help: "Number of click events fanned out to NATS.",
	})
)
