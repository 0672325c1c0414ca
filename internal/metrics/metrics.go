package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_dispatch_total",
			Help: "Dispatch attempts by outcome",
		},
		[]string{"outcome"},
	)
	CreditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_credits_total",
			Help: "Ledger credits by kind",
		},
		[]string{"kind"},
	)
	PayoutsPaidTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payouts_paid_total",
			Help: "Payout requests that reached paid",
		},
	)
	RewardKeysAssigned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_keys_assigned_total",
			Help: "Reward keys assigned by the distributor",
		},
	)
)

func init() {
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(CreditsTotal)
	prometheus.MustRegister(PayoutsPaidTotal)
	prometheus.MustRegister(RewardKeysAssigned)
}
