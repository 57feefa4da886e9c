package paymentservice

import (
	"log/slog"

	httpadapter "eduweb/contexts/commerce/payment-service/adapters/http"
	"eduweb/contexts/commerce/payment-service/adapters/memory"
	postgresadapter "eduweb/contexts/commerce/payment-service/adapters/postgres"
	"eduweb/contexts/commerce/payment-service/application/commands"
	"eduweb/contexts/commerce/payment-service/application/queries"
	"eduweb/contexts/commerce/payment-service/ports"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/outbox"

	"gorm.io/gorm"
)

type Module struct {
	Handler   httpadapter.Handler
	Publisher outbox.Publisher
	Store     *memory.Store
}

type Dependencies struct {
	Payments  ports.Repository
	Tx        ports.Transactor
	Publisher outbox.Publisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	deps.Publisher.Service = events.ServicePayment
	return Module{
		Handler: httpadapter.Handler{
			Payments: commands.PaymentUseCase{
				Payments:  deps.Payments,
				Tx:        deps.Tx,
				Publisher: deps.Publisher,
				Clock:     deps.Clock,
				IDGen:     deps.IDGen,
				Logger:    deps.Logger,
			},
			Queries: queries.PaymentQueries{Payments: deps.Payments},
			Logger:  deps.Logger,
		},
		Publisher: deps.Publisher,
	}
}

func NewInMemoryModule(publisher outbox.Publisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	publisher.Outbox = store.Outbox()
	module := NewModule(Dependencies{
		Payments:  store,
		Tx:        store,
		Publisher: publisher,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}

func NewPostgresModule(gdb *gorm.DB, publisher outbox.Publisher, logger *slog.Logger) Module {
	publisher.Outbox = outbox.NewPostgresStore(gdb, postgresadapter.OutboxTable, logger)
	return NewModule(Dependencies{
		Payments:  postgresadapter.NewRepository(gdb, logger),
		Tx:        db.Transactor{DB: gdb},
		Publisher: publisher,
		Clock:     postgresadapter.SystemClock{},
		IDGen:     postgresadapter.UUIDGenerator{},
		Logger:    logger,
	})
}
