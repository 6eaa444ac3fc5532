// Package metrics exposes table-engine instrumentation for Prometheus
// scraping: hand throughput, hand duration, stage transitions,
// betting-action and timeout counts, pot sizes, and seated players.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"poker-platform/internal/game"
)

var (
	HandsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_table_hands_started_total",
		Help: "Total number of hands started, by table",
	}, []string{"table_id"})

	HandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poker_table_hand_duration_seconds",
		Help:    "Wall-clock time from hand start to hand cleanup",
		Buckets: prometheus.DefBuckets,
	}, []string{"table_id"})

	StageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_table_stage_transitions_total",
		Help: "Total number of stage transitions, by resulting stage",
	}, []string{"table_id", "stage"})

	ActionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_table_actions_applied_total",
		Help: "Total number of betting actions applied, by kind",
	}, []string{"table_id", "kind"})

	ActionTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_table_action_timeouts_total",
		Help: "Total number of action timers that expired and auto-acted",
	}, []string{"table_id"})

	PotSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poker_table_pot_size_chips",
		Help:    "Distribution of awarded pot sizes in chip units",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
	}, []string{"table_id"})

	SeatedPlayers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "poker_table_seated_players",
		Help: "Current number of occupied seats, by table",
	}, []string{"table_id"})
)

// Recorder tracks per-table transient state (hand start time) that the
// gauge/histogram API alone can't derive, and exposes a
// game.WithStateChangeHook-compatible callback.
type Recorder struct {
	tableID     string
	handStarted time.Time
	lastStage   game.Stage
}

// NewRecorder creates a metrics recorder for one table.
func NewRecorder(tableID string) *Recorder {
	return &Recorder{tableID: tableID, lastStage: game.StageWaitingForPlayers}
}

// Observe is wired as a game.WithStateChangeHook callback: it derives
// counter/histogram updates purely from consecutive snapshots, with no
// access to the table's internals beyond what a TableSnapshot carries.
func (r *Recorder) Observe(snap game.TableSnapshot) {
	if snap.Stage != r.lastStage {
		StageTransitions.WithLabelValues(r.tableID, snap.Stage.String()).Inc()

		if snap.Stage == game.StageStartingHand {
			r.handStarted = time.Now()
			HandsStarted.WithLabelValues(r.tableID).Inc()
		}
		if snap.Stage == game.StageHandCleanup && !r.handStarted.IsZero() {
			HandDuration.WithLabelValues(r.tableID).Observe(time.Since(r.handStarted).Seconds())
			var total int64
			for _, p := range snap.Pots {
				total += p.Amount
			}
			if total > 0 {
				PotSize.WithLabelValues(r.tableID).Observe(float64(total))
			}
		}
		r.lastStage = snap.Stage
	}

	seated := 0
	for _, s := range snap.Seats {
		if s != nil {
			seated++
		}
	}
	SeatedPlayers.WithLabelValues(r.tableID).Set(float64(seated))
}

// RecordAction increments the per-kind action counter. Callers invoke
// this alongside Table.SubmitAction since the kind isn't visible from
// a TableSnapshot alone (by design -- a snapshot describes state, not
// the action that produced it).
func RecordAction(tableID string, kind game.ActionKind) {
	ActionsApplied.WithLabelValues(tableID, kind.String()).Inc()
}

// RecordTimeout increments the action-timeout counter for a table.
func RecordTimeout(tableID string) {
	ActionTimeouts.WithLabelValues(tableID).Inc()
}
