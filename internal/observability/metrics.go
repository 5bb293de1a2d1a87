// Package observability exposes Prometheus instrumentation for the
// storefront core. Counters track the ledger and order lifecycle with
// deliberately label-free (or low-cardinality) collectors so dashboards
// stay cheap: per-user or per-product labels would be unbounded.
//
// All collectors are registered at package init and are safe for
// concurrent use. The service layer increments them after each
// successful (committed) operation; failed operations are not counted
// except for outbound Telegram sends, where failures are the signal of
// interest.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// UsersCreated counts first-contact user registrations.
	UsersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_users_created_total",
		Help: "Total number of wallet accounts created.",
	})

	// TransactionsRecorded counts appended ledger entries by origin:
	// "provider" for payment-provider charges, "manual" for admin
	// adjustments, "order" for purchase charges.
	TransactionsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_transactions_recorded_total",
		Help: "Total number of ledger entries recorded.",
	}, []string{"origin"})

	// TransactionsRefunded counts refund flips on ledger entries.
	TransactionsRefunded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_transactions_refunded_total",
		Help: "Total number of ledger entries marked refunded.",
	})

	// OrdersPlaced counts successfully committed orders.
	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_orders_placed_total",
		Help: "Total number of orders placed.",
	})

	// OrdersDelivered counts orders transitioned to delivered.
	OrdersDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_orders_delivered_total",
		Help: "Total number of orders delivered.",
	})

	// OrdersRefunded counts orders transitioned to refunded.
	OrdersRefunded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_orders_refunded_total",
		Help: "Total number of orders refunded.",
	})

	// TelegramSendFailures counts failed outbound Telegram calls by
	// operation ("send_text", "send_photo", "fetch_image"). Sends never
	// roll back ledger writes, so this counter is how delivery problems
	// surface operationally.
	TelegramSendFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_telegram_send_failures_total",
		Help: "Total number of failed outbound Telegram operations.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(
		UsersCreated,
		TransactionsRecorded,
		TransactionsRefunded,
		OrdersPlaced,
		OrdersDelivered,
		OrdersRefunded,
		TelegramSendFailures,
	)
}
