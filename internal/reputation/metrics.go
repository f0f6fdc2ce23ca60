package reputation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var actionRecordCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reputation_actions_recorded",
	Help: "Number of behavior log entries written",
}, []string{"action"})

var anomalyFlagCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "reputation_anomalies_flagged",
	Help: "Number of behavior entries flagged anomalous",
})

var creditAwardCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reputation_credits_awarded",
	Help: "Number of credit ledger entries written",
}, []string{"kind"})

var promotionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reputation_promotions_applied",
	Help: "Number of automatic role promotions applied",
}, []string{"from", "to"})
