package chests

import "sync/atomic"

type metrics struct {
	onlinePlayers    atomic.Int64
	cachedSessions   atomic.Int64
	viewedContainers atomic.Int64
	loadsInFlight    atomic.Int64

	loadFailures   atomic.Uint64
	saveFailures   atomic.Uint64
	decodeFailures atomic.Uint64
	encodeFailures atomic.Uint64
	lootFailures   atomic.Uint64
	opens          atomic.Uint64
	closes         atomic.Uint64
	emptied        atomic.Uint64
}

// Metrics is a point-in-time copy of the service counters. Gauges are refreshed after every loop
// iteration; counters are exact.
type Metrics struct {
	OnlinePlayers    int64
	CachedSessions   int64
	ViewedContainers int64
	LoadsInFlight    int64

	LoadFailures   uint64
	SaveFailures   uint64
	DecodeFailures uint64
	EncodeFailures uint64
	LootFailures   uint64
	Opens          uint64
	Closes         uint64
	// Emptied counts closes that left the inventory with no items.
	Emptied uint64
}

// Metrics may be called from any goroutine.
func (s *Service) Metrics() Metrics {
	m := &s.metrics
	return Metrics{
		OnlinePlayers:    m.onlinePlayers.Load(),
		CachedSessions:   m.cachedSessions.Load(),
		ViewedContainers: m.viewedContainers.Load(),
		LoadsInFlight:    m.loadsInFlight.Load(),
		LoadFailures:     m.loadFailures.Load(),
		SaveFailures:     m.saveFailures.Load(),
		DecodeFailures:   m.decodeFailures.Load(),
		EncodeFailures:   m.encodeFailures.Load(),
		LootFailures:     m.lootFailures.Load(),
		Opens:            m.opens.Load(),
		Closes:           m.closes.Load(),
		Emptied:          m.emptied.Load(),
	}
}

func (s *Service) refreshGauges() {
	s.metrics.onlinePlayers.Store(int64(len(s.players)))
	s.metrics.cachedSessions.Store(int64(s.cache.Len()))
	s.metrics.viewedContainers.Store(int64(s.viewers.Len()))
}
