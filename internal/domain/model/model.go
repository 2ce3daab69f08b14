// Package model contains domain models passed between layers.
package model

import "time"

// Trigger signals that a session's raw data is complete and the pipeline
// should run.
type Trigger struct {
	SessionID string
}

// ESense holds the attention/meditation pair reported by the headset.
type ESense struct {
	Attention  float64 `json:"attention"`
	Meditation float64 `json:"meditation"`
}

// BandPowers holds the eight named EEG power bands.
type BandPowers struct {
	Delta     float64 `json:"delta"`
	Theta     float64 `json:"theta"`
	LowAlpha  float64 `json:"lowAlpha"`
	HighAlpha float64 `json:"highAlpha"`
	LowBeta   float64 `json:"lowBeta"`
	HighBeta  float64 `json:"highBeta"`
	LowGamma  float64 `json:"lowGamma"`
	HighGamma float64 `json:"highGamma"`
}

// RawSignalSample is one reading from one player's sensor, as written to the
// per-player jsonl log by the acquisition path.
type RawSignalSample struct {
	Player          int        `json:"player"`
	TimestampMS     int64      `json:"timeStamp"`
	ESense          ESense     `json:"eSense"`
	PoorSignalLevel int        `json:"poorSignalLevel"`
	EEGPower        BandPowers `json:"eegPower"`
}

// Timestamp converts the sample's epoch-millisecond clock to a UTC instant.
func (s RawSignalSample) Timestamp() time.Time {
	return time.UnixMilli(s.TimestampMS).UTC()
}

// TrustedRecord is one row of the unified, time-ordered session dataset.
// Signal-only rows carry the sensor fields and a nil event type; event-only
// rows carry the event type and nil sensor fields. IsSignalValid is derived
// and holds poorSignalLevel == 0, which is always false for event rows.
type TrustedRecord struct {
	Timestamp       time.Time `parquet:"timestamp" json:"timestamp"`
	Player          *int32    `parquet:"player,optional" json:"player,omitempty"`
	Attention       *float64  `parquet:"attention,optional" json:"attention,omitempty"`
	Meditation      *float64  `parquet:"meditation,optional" json:"meditation,omitempty"`
	PoorSignalLevel *int32    `parquet:"poorSignalLevel,optional" json:"poorSignalLevel,omitempty"`
	IsSignalValid   bool      `parquet:"is_signal_valid" json:"is_signal_valid"`
	GameEventType   *string   `parquet:"game_event_type,optional" json:"game_event_type,omitempty"`
	Delta           *float64  `parquet:"delta,optional" json:"delta,omitempty"`
	Theta           *float64  `parquet:"theta,optional" json:"theta,omitempty"`
	LowAlpha        *float64  `parquet:"lowAlpha,optional" json:"lowAlpha,omitempty"`
	HighAlpha       *float64  `parquet:"highAlpha,optional" json:"highAlpha,omitempty"`
	LowBeta         *float64  `parquet:"lowBeta,optional" json:"lowBeta,omitempty"`
	HighBeta        *float64  `parquet:"highBeta,optional" json:"highBeta,omitempty"`
	LowGamma        *float64  `parquet:"lowGamma,optional" json:"lowGamma,omitempty"`
	HighGamma       *float64  `parquet:"highGamma,optional" json:"highGamma,omitempty"`
}

// PlayerKPIs is one player's session-level KPI set. Percentages and the
// std-dev are rounded to 2 decimals, the slope to 5, at construction time;
// all intermediate math runs at full precision.
type PlayerKPIs struct {
	ValidSessionPct         float64            `json:"valid_session_percentage"`
	TZFPct                  float64            `json:"tzf_percentage"`
	TZCPct                  float64            `json:"tzc_percentage"`
	CalmFocusPct            float64            `json:"calm_focus_percentage"`
	CVFLabel                string             `json:"cvf_label"`
	AttentionStdDev         float64            `json:"cvf_attention_std_dev"`
	FatigueSlope            float64            `json:"fatigue_slope"`
	PostEventFocusVariation map[string]float64 `json:"post_event_focus_variation"`
	PostEventCalmVariation  map[string]float64 `json:"post_event_calm_variation"`
	LFOAvgRecoverySeconds   *float64           `json:"lfo_avg_recovery_seconds"`
	CoachFeedback           string             `json:"coachFeedback,omitempty"`
}

// SessionSummary maps "player_<id>" to that player's KPI set. It is the
// refined-layer document persisted locally and under sessions/{sessionId}.
type SessionSummary map[string]PlayerKPIs

// SeriesSummary holds the derived statistics of one global series.
type SeriesSummary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P10   float64 `json:"p10"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	P90   float64 `json:"p90"`
}

// GlobalStats is the singleton cross-session record stored under
// global_stats/summary. The raw series grow without bound; the summaries are
// recomputed on every update.
type GlobalStats struct {
	AllTZF      []float64     `json:"all_tzf"`
	AllLFO      []float64     `json:"all_lfo"`
	TZF         SeriesSummary `json:"tzf_summary"`
	LFO         SeriesSummary `json:"lfo_summary"`
	UpdatedAtMS int64         `json:"updated_at_ms"`
}

// RaceSummary is one entry of a user's rolling race history.
type RaceSummary struct {
	SessionID    string   `json:"session_id"`
	TimestampMS  int64    `json:"timestamp_ms"`
	TZFPct       float64  `json:"tzf_percentage"`
	TZCPct       float64  `json:"tzc_percentage"`
	FatigueSlope float64  `json:"fatigue_slope"`
	LFOSeconds   *float64 `json:"lfo_seconds"`
}

// UserProfile is the per-user aggregate stored under users/{id} and keyed
// logically by email.
type UserProfile struct {
	UserID              string        `json:"user_id"`
	Email               string        `json:"email"`
	TotalRaces          int           `json:"total_races"`
	TotalWins           int           `json:"total_wins"`
	WinPercentage       float64       `json:"win_percentage"`
	BestRaceTimeSeconds *float64      `json:"best_race_time_seconds"`
	PersonalBestTZF     *float64      `json:"personal_best_tzf"`
	RaceHistory         []RaceSummary `json:"race_history"`
	EvolutionFeedback   string        `json:"evolution_feedback"`
}
