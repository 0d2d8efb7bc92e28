package queue

import (
	"game-soul-technology/quickqueue/quickqueue-server/pkg/config"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"time"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"go.uber.org/zap"
)

// Stats is owned by Engine and only touched while holding the engine
// lock.
type Stats struct {
	// Tickets handed out in this session, including manual ones.
	Issued int

	// Tickets that completed service in this session.
	Served int

	// Avg time the admin spends on one ticket. Calculated by a fixed
	// size sliding window. Zero until the first ticket is served.
	AvgServiceDuration time.Duration

	// A fixed size sliding window for calculating average service time.
	serviceDurationQueue *linkedlistqueue.Queue
	windowSize           int

	logger *zap.SugaredLogger
}

type StatsSnapshot struct {
	Issued             int   `json:"issued"`
	Served             int   `json:"served"`
	AvgServiceSeconds  int64 `json:"avgServiceSeconds"`
	ServiceWindowCount int   `json:"serviceWindowCount"`
}

func ProvideStats(config *config.Config, loggerFactory *infra.LoggerFactory) *Stats {
	windowSize := *config.ServiceWindowSize
	if windowSize <= 0 {
		windowSize = 1
	}

	return &Stats{
		serviceDurationQueue: linkedlistqueue.New(),
		windowSize:           windowSize,
		logger:               loggerFactory.Create("Stats").Sugar(),
	}
}

func (s *Stats) reset() {
	s.Issued = 0
	s.Served = 0
	s.AvgServiceDuration = 0
	s.serviceDurationQueue.Clear()
}

func (s *Stats) incrIssued() {
	s.Issued++
}

func (s *Stats) recordServed(serviceDuration time.Duration) {
	s.Served++

	if serviceDuration <= 0 {
		return
	}

	if s.serviceDurationQueue.Size() >= s.windowSize {
		s.serviceDurationQueue.Dequeue()
	}
	s.serviceDurationQueue.Enqueue(serviceDuration)

	it := s.serviceDurationQueue.Iterator()
	var totalServiceDuration time.Duration
	for it.Next() {
		totalServiceDuration += it.Value().(time.Duration)
	}

	s.AvgServiceDuration = totalServiceDuration / time.Duration(s.serviceDurationQueue.Size())
	s.logger.Debugf("updated avgServiceDuration[%v]", s.AvgServiceDuration)
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Issued:             s.Issued,
		Served:             s.Served,
		AvgServiceSeconds:  int64(s.AvgServiceDuration / time.Second),
		ServiceWindowCount: s.serviceDurationQueue.Size(),
	}
}
