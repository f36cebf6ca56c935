// Package domain holds the core types shared across the detection pipeline.
// No I/O happens here; everything is a plain value computed elsewhere.
package domain

import "time"

// Window identifies a trailing measurement window on a snapshot.
type Window string

const (
	Window5m  Window = "m5"
	Window1h  Window = "h1"
	Window24h Window = "h24"
)

// Source tags where a candidate was first seen during discovery.
type Source string

const (
	SourceBoost         Source = "boost"
	SourceProfile       Source = "profile"
	SourceTakeover      Source = "takeover"
	SourceGainer        Source = "gainer"
	SourceSnapshotMover Source = "snapshot_mover"
)

// Candidate is an instrument surfaced by discovery, not yet confirmed as a
// signal. Identity is the instrument id (address or ticker). Candidates live
// only for the cycle that produced them.
type Candidate struct {
	ID           string
	Source       Source
	DiscoveredAt time.Time

	// PreScore orders candidates before enrichment so a truncated cycle
	// still looks at the most promising ids first. Zero when the feed
	// provides no ordering hint.
	PreScore float64
}

// MetricSnapshot is a point-in-time view of one instrument's market metrics.
// Immutable once created; owned exclusively by the snapshot store after
// Record.
type MetricSnapshot struct {
	ID            string
	Symbol        string
	Timestamp     time.Time
	Price         float64
	LiquidityUSD  float64
	Volume        map[Window]float64
	PercentChange map[Window]float64

	// VolumeSurgeRatio15m is last-15-minute volume over the preceding
	// 45-minute average, captured at the provider boundary when intraday
	// bars are available. Zero when unknown.
	VolumeSurgeRatio15m float64

	// MicroReversal reports a pop-then-downtick shape on the most recent
	// bars (close0 < close1 while close1 > close2).
	MicroReversal bool

	// URL points at a human chart page for alert formatting.
	URL string
}

// Vol returns the volume for a window, zero when absent.
func (s MetricSnapshot) Vol(w Window) float64 {
	if s.Volume == nil {
		return 0
	}
	return s.Volume[w]
}

// Change returns the percent change for a window, zero when absent.
func (s MetricSnapshot) Change(w Window) float64 {
	if s.PercentChange == nil {
		return 0
	}
	return s.PercentChange[w]
}

// AccelerationHint classifies the trajectory of an instrument's percent
// change between its oldest and newest retained snapshots.
type AccelerationHint string

const (
	AccelBuilding     AccelerationHint = "building"
	AccelAccelerating AccelerationHint = "accelerating"
	AccelDecelerating AccelerationHint = "decelerating"
	AccelFlat         AccelerationHint = "flat"
)

// AccelerationReading is derived on demand from the snapshot store. It is
// never persisted.
type AccelerationReading struct {
	Samples     int
	ChangeDelta map[Window]float64
	Hint        AccelerationHint
}

// StageTag is a rough "how far into the move" label.
type StageTag string

const (
	StageEarly StageTag = "EARLY"
	StageMid   StageTag = "MID"
	StageLate  StageTag = "LATE"
)

// Signal is one surviving candidate for one cycle, ready for dispatch.
type Signal struct {
	CandidateID       string
	Source            Source
	Snapshot          MetricSnapshot
	Acceleration      AccelerationReading
	Gate              string
	Confidence        float64
	StageTag          StageTag
	ReversalWarning   bool
	ExhaustionWarning bool
	VolumeShock       bool
	CreatedAt         time.Time
}

// AlertRecord is the per-id cooldown state. Created on first alert, updated
// in place on every subsequent fire.
type AlertRecord struct {
	ID           string    `json:"id"`
	LastFiredAt  time.Time `json:"last_fired_at"`
	LastStrength float64   `json:"last_strength"`
}
