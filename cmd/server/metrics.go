package main

import (
	"fmt"
	"io"

	"uniqueloot.dev/internal/sim/chests"
)

type hubStats interface {
	Connected() int
	Dropped() uint64
}

// writeMetrics renders the Prometheus text exposition format.
func writeMetrics(w io.Writer, m chests.Metrics, hub hubStats) {
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s %d\n", name, v)
	}
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n", name, v)
	}

	gauge("uniqueloot_online_players", "Players currently joined.", m.OnlinePlayers)
	gauge("uniqueloot_cached_sessions", "Per-player container sessions held in memory.", m.CachedSessions)
	gauge("uniqueloot_viewed_containers", "Containers with at least one viewer.", m.ViewedContainers)
	gauge("uniqueloot_loads_in_flight", "Storage loads not yet completed.", m.LoadsInFlight)
	gauge("uniqueloot_ws_clients", "Connected websocket clients.", int64(hub.Connected()))

	counter("uniqueloot_opens_total", "Inventories shown to players.", m.Opens)
	counter("uniqueloot_closes_total", "Inventories closed by players.", m.Closes)
	counter("uniqueloot_emptied_total", "Closes that left the inventory empty.", m.Emptied)

	fmt.Fprintf(w, "# HELP uniqueloot_failures_total Failures by stage.\n")
	fmt.Fprintf(w, "# TYPE uniqueloot_failures_total counter\n")
	fmt.Fprintf(w, "uniqueloot_failures_total{stage=%q} %d\n", "load", m.LoadFailures)
	fmt.Fprintf(w, "uniqueloot_failures_total{stage=%q} %d\n", "save", m.SaveFailures)
	fmt.Fprintf(w, "uniqueloot_failures_total{stage=%q} %d\n", "decode", m.DecodeFailures)
	fmt.Fprintf(w, "uniqueloot_failures_total{stage=%q} %d\n", "encode", m.EncodeFailures)
	fmt.Fprintf(w, "uniqueloot_failures_total{stage=%q} %d\n", "loot", m.LootFailures)

	counter("uniqueloot_ws_dropped_total", "Messages dropped because a client queue was full.", hub.Dropped())
}
