package userservice

import (
	"log/slog"

	contractsv1 "eduweb/contracts/events/v1"
	httpadapter "eduweb/contexts/identity-access/user-service/adapters/http"
	"eduweb/contexts/identity-access/user-service/adapters/memory"
	postgresadapter "eduweb/contexts/identity-access/user-service/adapters/postgres"
	"eduweb/contexts/identity-access/user-service/application/commands"
	"eduweb/contexts/identity-access/user-service/application/queries"
	"eduweb/contexts/identity-access/user-service/application/workers"
	"eduweb/contexts/identity-access/user-service/ports"
	"eduweb/internal/platform/db"
	"eduweb/internal/shared/events"
	"eduweb/internal/shared/inbox"
	"eduweb/internal/shared/outbox"

	"gorm.io/gorm"
)

type Module struct {
	Handler   httpadapter.Handler
	Publisher outbox.Publisher
	Tx        ports.Transactor
	Inbox     inbox.Store
	Handlers  map[string]inbox.Handler
	Store     *memory.Store
}

type Dependencies struct {
	Profiles  ports.Repository
	Tx        ports.Transactor
	Inbox     inbox.Store
	Publisher outbox.Publisher
	Clock     ports.Clock
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	deps.Publisher.Service = events.ServiceUser
	userCreated := workers.UserCreatedHandler{Profiles: deps.Profiles, Logger: deps.Logger}
	return Module{
		Handler: httpadapter.Handler{
			Profiles: commands.ProfileUseCase{
				Profiles:  deps.Profiles,
				Tx:        deps.Tx,
				Publisher: deps.Publisher,
				Clock:     deps.Clock,
				Logger:    deps.Logger,
			},
			Queries: queries.ProfileQueries{Profiles: deps.Profiles},
			Logger:  deps.Logger,
		},
		Publisher: deps.Publisher,
		Tx:        deps.Tx,
		Inbox:     deps.Inbox,
		Handlers: map[string]inbox.Handler{
			contractsv1.TypeUserCreated: userCreated.Handle,
		},
	}
}

func NewInMemoryModule(publisher outbox.Publisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	publisher.Outbox = store.Outbox()
	module := NewModule(Dependencies{
		Profiles:  store,
		Tx:        store,
		Inbox:     store.Inbox(),
		Publisher: publisher,
		Clock:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}

func NewPostgresModule(gdb *gorm.DB, publisher outbox.Publisher, logger *slog.Logger) Module {
	publisher.Outbox = outbox.NewPostgresStore(gdb, postgresadapter.OutboxTable, logger)
	return NewModule(Dependencies{
		Profiles:  postgresadapter.NewRepository(gdb, logger),
		Tx:        db.Transactor{DB: gdb},
		Inbox:     inbox.NewPostgresStore(gdb, postgresadapter.ProcessedEventsTable, logger),
		Publisher: publisher,
		Clock:     postgresadapter.SystemClock{},
		Logger:    logger,
	})
}
