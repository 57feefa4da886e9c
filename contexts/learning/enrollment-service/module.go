package enrollmentservice

import (
	"log/slog"

	contractsv1 "eduweb/contracts/events/v1"
	httpadapter "eduweb/contexts/learning/enrollment-service/adapters/http"
	"eduweb/contexts/learning/enrollment-service/adapters/memory"
	postgresadapter "eduweb/contexts/learning/enrollment-service/adapters/postgres"
	"eduweb/contexts/learning/enrollment-service/application/commands"
	"eduweb/contexts/learning/enrollment-service/application/queries"
	"eduweb/contexts/learning/enrollment-service/application/workers"
	"eduweb/contexts/learning/enrollment-service/ports"
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
	Enrollments ports.Repository
	Courses     ports.CourseLookup
	Tx          ports.Transactor
	Inbox       inbox.Store
	Publisher   outbox.Publisher
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	deps.Publisher.Service = events.ServiceEnrollment
	totals := workers.TotalLessonsHandler{Enrollments: deps.Enrollments, Clock: deps.Clock, Logger: deps.Logger}
	payments := workers.PaymentCompletedHandler{
		Enrollments: deps.Enrollments,
		Courses:     deps.Courses,
		IDGen:       deps.IDGen,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Progress: commands.ProgressUseCase{
				Enrollments: deps.Enrollments,
				Tx:          deps.Tx,
				Publisher:   deps.Publisher,
				Clock:       deps.Clock,
				Logger:      deps.Logger,
			},
			Queries: queries.EnrollmentQueries{Enrollments: deps.Enrollments},
			Logger:  deps.Logger,
		},
		Publisher: deps.Publisher,
		Tx:        deps.Tx,
		Inbox:     deps.Inbox,
		Handlers: map[string]inbox.Handler{
			contractsv1.TypeCourseTotalLessonsChanged: totals.Handle,
			contractsv1.TypePaymentCompleted:          payments.Handle,
		},
	}
}

// NewInMemoryModule wires the module on process memory. courses may be nil,
// in which case enrollments start from the replicated count or 0.
func NewInMemoryModule(publisher outbox.Publisher, courses ports.CourseLookup, logger *slog.Logger) Module {
	store := memory.NewStore()
	publisher.Outbox = store.Outbox()
	module := NewModule(Dependencies{
		Enrollments: store,
		Courses:     courses,
		Tx:          store,
		Inbox:       store.Inbox(),
		Publisher:   publisher,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

func NewPostgresModule(gdb *gorm.DB, publisher outbox.Publisher, courses ports.CourseLookup, logger *slog.Logger) Module {
	publisher.Outbox = outbox.NewPostgresStore(gdb, postgresadapter.OutboxTable, logger)
	return NewModule(Dependencies{
		Enrollments: postgresadapter.NewRepository(gdb, logger),
		Courses:     courses,
		Tx:          db.Transactor{DB: gdb},
		Inbox:       inbox.NewPostgresStore(gdb, postgresadapter.ProcessedEventsTable, logger),
		Publisher:   publisher,
		Clock:       postgresadapter.SystemClock{},
		IDGen:       postgresadapter.UUIDGenerator{},
		Logger:      logger,
	})
}
