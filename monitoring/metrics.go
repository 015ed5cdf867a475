package monitoring

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	redemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_redemptions_total",
			Help: "Redemption attempts by store and outcome",
		},
		[]string{"store_id", "outcome"},
	)

	redeemDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_redeem_duration_seconds",
			Help:    "Duration of redeem calls including the atomic update",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	storeRedemptionsToday = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_redemptions_today",
			Help: "Redemptions counted today per store",
		},
		[]string{"store_id"},
	)
)

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectStoreCounters(context.Background())
	}
}

// collectStoreCounters mirrors the per-store daily counters kept in
// Redis into gauges. Key layout: redemptions:store:<storeID>:<date>,
// dated by the store's local day. Counters expire after two days, so
// per store the newest dated key is its current day.
func (m *Monitor) collectStoreCounters(ctx context.Context) {
	keys, err := m.redis.Keys(ctx, "redemptions:store:*").Result()
	if err != nil {
		return
	}

	newestDate := make(map[string]string)
	newestKey := make(map[string]string)
	for _, key := range keys {
		parts := strings.Split(key, ":")
		if len(parts) != 4 {
			continue
		}
		storeID, date := parts[2], parts[3]
		if date > newestDate[storeID] {
			newestDate[storeID] = date
			newestKey[storeID] = key
		}
	}

	for storeID, key := range newestKey {
		count, err := m.redis.Get(ctx, key).Int64()
		if err != nil {
			continue
		}
		storeRedemptionsToday.WithLabelValues(storeID).Set(float64(count))
	}
}

// TrackRedemption records one redeem attempt outcome.
func (m *Monitor) TrackRedemption(storeID, outcome string) {
	if storeID == "" {
		storeID = "none"
	}
	redemptionsTotal.WithLabelValues(storeID, outcome).Inc()
}

// ObserveRedeemDuration records how long a redeem call took.
func (m *Monitor) ObserveRedeemDuration(duration time.Duration) {
	redeemDuration.Observe(duration.Seconds())
}
