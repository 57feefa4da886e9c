package analyticsservice

import (
	"log/slog"

	contractsv1 "eduweb/contracts/events/v1"
	httpadapter "eduweb/contexts/insights/analytics-service/adapters/http"
	"eduweb/contexts/insights/analytics-service/adapters/memory"
	postgresadapter "eduweb/contexts/insights/analytics-service/adapters/postgres"
	"eduweb/contexts/insights/analytics-service/application/queries"
	"eduweb/contexts/insights/analytics-service/application/workers"
	"eduweb/contexts/insights/analytics-service/ports"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/inbox"

	"gorm.io/gorm"
)

type Module struct {
	Handler  httpadapter.Handler
	Tx       ports.Transactor
	Inbox    inbox.Store
	Handlers map[string]inbox.Handler
	Store    *memory.Store
}

type Dependencies struct {
	Stats  ports.Repository
	Tx     ports.Transactor
	Inbox  inbox.Store
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	projector := workers.Projector{Stats: deps.Stats, Logger: deps.Logger}
	return Module{
		Handler: httpadapter.Handler{
			Queries: queries.AnalyticsQueries{Stats: deps.Stats},
			Logger:  deps.Logger,
		},
		Tx:    deps.Tx,
		Inbox: deps.Inbox,
		Handlers: map[string]inbox.Handler{
			contractsv1.TypeUserCreated:               projector.UserCreated,
			contractsv1.TypePaymentCompleted:          projector.PaymentCompleted,
			contractsv1.TypeEnrollmentCreated:         projector.EnrollmentCreated,
			contractsv1.TypeEnrollmentCompleted:       projector.EnrollmentCompleted,
			contractsv1.TypeEnrollmentProgressUpdated: projector.ProgressUpdated,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Stats:  store,
		Tx:     store,
		Inbox:  store.Inbox(),
		Logger: logger,
	})
	module.Store = store
	return module
}

func NewPostgresModule(gdb *gorm.DB, logger *slog.Logger) Module {
	return NewModule(Dependencies{
		Stats:  postgresadapter.NewRepository(gdb, logger),
		Tx:     db.Transactor{DB: gdb},
		Inbox:  inbox.NewPostgresStore(gdb, postgresadapter.ProcessedEventsTable, logger),
		Logger: logger,
	})
}
