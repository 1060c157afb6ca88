package gifts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	giftsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gifts_created_total",
			Help: "Total number of gifts created",
		},
	)

	giftVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gift_verifications_total",
			Help: "Total number of gift verification attempts by result",
		},
		[]string{"result"},
	)

	giftClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gift_claims_total",
			Help: "Total number of gift claim attempts by result",
		},
		[]string{"result"},
	)

	giftsReconciledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gifts_reconciled_total",
			Help: "Total number of claimed gifts backfilled with an order by the reconciler",
		},
	)
)
