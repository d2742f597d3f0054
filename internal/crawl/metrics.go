package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalFetches tracks every dispatched page fetch, successful or not.
	TotalFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhound_fetches_total",
		Help: "The total number of page fetches dispatched.",
	})
	// TotalFetchErrors tracks failed fetches partitioned by failure kind.
	TotalFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkhound_fetch_errors_total",
		Help: "The total number of failed fetches by kind.",
	}, []string{"kind"})
	// TotalLinksDiscovered tracks raw links extracted before sampling.
	TotalLinksDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhound_links_discovered_total",
		Help: "The total number of links extracted from fetched pages.",
	})
	// TotalLinksAdmitted tracks links that survived sampling and claiming.
	TotalLinksAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhound_links_admitted_total",
		Help: "The total number of links admitted to the frontier.",
	})
	// TotalInvalidLinks tracks candidates dropped by normalization.
	TotalInvalidLinks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhound_invalid_links_total",
		Help: "The total number of extracted links dropped as invalid URLs.",
	})
	// TotalDepthRejected tracks candidates beyond the depth limit.
	TotalDepthRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhound_depth_rejected_total",
		Help: "The total number of links rejected by the depth limit.",
	})
	// TotalCheckpoints tracks checkpoint writes partitioned by result.
	TotalCheckpoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkhound_checkpoints_total",
		Help: "The total number of checkpoint writes by result.",
	}, []string{"result"})
)
