/*
Package metrics exposes Prometheus instrumentation and process health for
findex: index size and phase-one queue gauges, commit/query latency
histograms, and the /healthz, /readyz, /livez HTTP handlers used by
cmd/findexd.

	collector := metrics.NewCollector(db)
	collector.Start()
	defer collector.Stop()

	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", metrics.HealthHandler())
	mux.Handle("/readyz", metrics.ReadyHandler())
*/
package metrics
