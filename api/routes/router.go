package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/procureflow/procureflow-backend/api/controllers"
	"github.com/procureflow/procureflow-backend/api/middleware"
	"github.com/procureflow/procureflow-backend/internal/audit"
	"github.com/procureflow/procureflow-backend/internal/goodsreceipt"
	"github.com/procureflow/procureflow-backend/internal/payments"
	"github.com/procureflow/procureflow-backend/internal/purchaseorders"
	"github.com/procureflow/procureflow-backend/internal/replenishments"
	"github.com/procureflow/procureflow-backend/internal/requests"
	"github.com/procureflow/procureflow-backend/pkg/db"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/logger"
	pkgredis "github.com/procureflow/procureflow-backend/pkg/redis"
)

func NewRouter(
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	requestService requests.Service,
	replenishmentService replenishments.Service,
	purchaseOrderService purchaseorders.Service,
	goodsReceiptService goodsreceipt.Service,
	paymentService payments.Service,
	auditService audit.Service,
) http.Handler {
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbClient, redisClient, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", controllers.RequestList(requestService, logg))
			r.Get("/{requestID}", controllers.RequestGet(requestService, logg))
			r.Get("/{requestID}/audit", controllers.AuditHistoryFor(auditService, logg, "requestID", enums.EntityTypeRequest))
			r.Get("/{requestID}/purchase-orders", controllers.PurchaseOrderListByRequest(purchaseOrderService, logg))
			r.Get("/{requestID}/payment", controllers.PaymentGetByRequest(paymentService, logg))
			r.Get("/{requestID}/payment-readiness", controllers.PaymentReadiness(goodsReceiptService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor(logg))
				r.Use(middleware.Idempotency(idempotencyStore, logg))
				r.Post("/", controllers.RequestSubmit(requestService, logg))
				r.Post("/{requestID}/decision", controllers.RequestDecide(requestService, logg))
				r.Post("/{requestID}/resubmit", controllers.RequestResubmit(requestService, logg))
			})
		})

		r.Route("/replenishments", func(r chi.Router) {
			r.Get("/", controllers.ReplenishmentList(replenishmentService, logg))
			r.Get("/{replenishmentID}", controllers.ReplenishmentGet(replenishmentService, logg))
			r.Get("/{replenishmentID}/audit", controllers.AuditHistoryFor(auditService, logg, "replenishmentID", enums.EntityTypeReplenishment))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor(logg))
				r.Use(middleware.Idempotency(idempotencyStore, logg))
				r.Post("/", controllers.ReplenishmentCreate(replenishmentService, logg))
				r.Post("/{replenishmentID}/decision", controllers.ReplenishmentDecide(replenishmentService, logg))
				r.Post("/{replenishmentID}/complete", controllers.ReplenishmentComplete(replenishmentService, logg))
			})
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/{purchaseOrderID}", controllers.PurchaseOrderGet(purchaseOrderService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor(logg))
				r.Use(middleware.Idempotency(idempotencyStore, logg))
				r.Post("/", controllers.PurchaseOrderCreate(purchaseOrderService, logg))
				r.Post("/{purchaseOrderID}/status", controllers.PurchaseOrderUpdateStatus(purchaseOrderService, logg))
			})
		})

		r.Route("/svcs", func(r chi.Router) {
			r.Get("/{svcID}", controllers.SVCGet(goodsReceiptService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor(logg))
				r.Use(middleware.Idempotency(idempotencyStore, logg))
				r.Post("/", controllers.SVCCreate(goodsReceiptService, logg))
				r.Post("/{svcID}/decision", controllers.SVCResolve(goodsReceiptService, logg))
			})
		})

		r.Route("/srvs", func(r chi.Router) {
			r.Get("/{srvID}", controllers.SRVGet(goodsReceiptService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor(logg))
				r.Use(middleware.Idempotency(idempotencyStore, logg))
				r.Post("/", controllers.SRVCreate(goodsReceiptService, logg))
				r.Post("/{srvID}/complete", controllers.SRVComplete(goodsReceiptService, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor(logg))
				r.Use(middleware.Idempotency(idempotencyStore, logg))
				r.Post("/", controllers.PaymentRecord(paymentService, logg))
			})
		})

		r.Route("/audit", func(r chi.Router) {
			r.Get("/{entityID}", controllers.AuditHistory(auditService, logg))
		})
	})

	return r
}
