package courseservice

import (
	"log/slog"

	httpadapter "eduweb/contexts/catalog/course-service/adapters/http"
	"eduweb/contexts/catalog/course-service/adapters/memory"
	postgresadapter "eduweb/contexts/catalog/course-service/adapters/postgres"
	"eduweb/contexts/catalog/course-service/application/commands"
	"eduweb/contexts/catalog/course-service/application/queries"
	"eduweb/contexts/catalog/course-service/ports"
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
	Repository ports.Repository
	Tx         ports.Transactor
	Publisher  outbox.Publisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	deps.Publisher.Service = events.ServiceCourse
	return Module{
		Handler: httpadapter.Handler{
			Courses: commands.CourseUseCase{
				Repository: deps.Repository,
				Tx:         deps.Tx,
				Publisher:  deps.Publisher,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Queries: queries.CourseQueries{Repository: deps.Repository},
			Logger:  deps.Logger,
		},
		Publisher: deps.Publisher,
	}
}

// NewInMemoryModule runs the service on process memory. The publisher's
// broker, registry and metrics are kept; its outbox becomes the store's.
func NewInMemoryModule(publisher outbox.Publisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	publisher.Outbox = store.Outbox()
	module := NewModule(Dependencies{
		Repository: store,
		Tx:         store,
		Publisher:  publisher,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

func NewPostgresModule(gdb *gorm.DB, publisher outbox.Publisher, logger *slog.Logger) Module {
	publisher.Outbox = outbox.NewPostgresStore(gdb, postgresadapter.OutboxTable, logger)
	return NewModule(Dependencies{
		Repository: postgresadapter.NewRepository(gdb, logger),
		Tx:         db.Transactor{DB: gdb},
		Publisher:  publisher,
		Clock:      postgresadapter.SystemClock{},
		IDGen:      postgresadapter.UUIDGenerator{},
		Logger:     logger,
	})
}
