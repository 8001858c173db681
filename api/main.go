package main

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/adoptions"
	"github.com/sri-ravi13/Orphan-Management-System/api/authentication"
	"github.com/sri-ravi13/Orphan-Management-System/api/children"
	"github.com/sri-ravi13/Orphan-Management-System/api/documents"
	"github.com/sri-ravi13/Orphan-Management-System/api/donations"
	"github.com/sri-ravi13/Orphan-Management-System/api/educationalrecords"
	"github.com/sri-ravi13/Orphan-Management-System/api/healthrecords"
	"github.com/sri-ravi13/Orphan-Management-System/api/inquiries"
	jobsapi "github.com/sri-ravi13/Orphan-Management-System/api/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/api/messages"
	"github.com/sri-ravi13/Orphan-Management-System/api/reports"
	"github.com/sri-ravi13/Orphan-Management-System/api/schedules"
	. "github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/api/staffassignments"
	"github.com/sri-ravi13/Orphan-Management-System/api/users"
	"github.com/sri-ravi13/Orphan-Management-System/common/generator"
	"github.com/sri-ravi13/Orphan-Management-System/common/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/mailer"
	"github.com/sri-ravi13/Orphan-Management-System/common/messaging"
	. "github.com/sri-ravi13/Orphan-Management-System/common/roles"
	"github.com/sri-ravi13/Orphan-Management-System/common/storage"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"
	"github.com/sri-ravi13/Orphan-Management-System/common/store/migrations"

	"github.com/facebookgo/inject"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	swgui "github.com/swaggest/swgui/v5cdn"
)

//go:embed swagger.yaml
var swagger []byte

var (
	ctx             = context.Background()
	logger          = log.NewLogger("orphanage-api")
	config          *AppConfig
	db              *gorm.DB
	stringGenerator = &generator.StringGenerator{}

	fileStorage storage.Storage
	queue       jobs.Queue
	smtpMailer  = &mailer.SmtpMailer{}

	jobRunner                  = &jobs.Runner{}
	fileCleanupHandler         = &jobs.FileCleanupHandler{}
	inquiryConfirmationHandler = &jobs.InquiryConfirmationHandler{}

	authenticationService    = &authentication.AuthenticationService{}
	userService              = &users.UserService{}
	childService             = &children.ChildService{}
	documentService          = &documents.DocumentService{}
	healthRecordService      = &healthrecords.HealthRecordService{}
	educationalRecordService = &educationalrecords.EducationalRecordService{}
	messageService           = &messages.MessageService{}
	staffAssignmentService   = &staffassignments.StaffAssignmentService{}
	adoptionService          = &adoptions.AdoptionService{}
	donationService          = &donations.DonationService{}
	scheduleService          = &schedules.ScheduleService{}
	reportService            = &reports.ReportService{}
	inquiryService           = &inquiries.InquiryService{}
	jobService               = &jobsapi.JobService{}

	authenticationHandlerFactory     = &authentication.HandlerFactory{}
	userHandlerFactory               = &users.HandlerFactory{}
	childrenHandlerFactory           = &children.HandlerFactory{}
	documentsHandlerFactory          = &documents.HandlerFactory{}
	healthRecordsHandlerFactory      = &healthrecords.HandlerFactory{}
	educationalRecordsHandlerFactory = &educationalrecords.HandlerFactory{}
	messagesHandlerFactory           = &messages.HandlerFactory{}
	staffAssignmentsHandlerFactory   = &staffassignments.HandlerFactory{}
	adoptionsHandlerFactory          = &adoptions.HandlerFactory{}
	donationsHandlerFactory          = &donations.HandlerFactory{}
	schedulesHandlerFactory          = &schedules.HandlerFactory{}
	reportsHandlerFactory            = &reports.HandlerFactory{}
	inquiriesHandlerFactory          = &inquiries.HandlerFactory{}
	jobsHandlerFactory               = &jobsapi.HandlerFactory{}

	dbStore       = &store.Store{}
	authenticator = &authentication.Authenticator{}
)

func init() {
	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(initStorage())
	checkErrAndExit(initDatabaseConnection())
	checkErrAndExit(initQueue())
	checkErrAndExit(initApplicationGraph())
	initIdentityCache()
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	return
}

func initStorage() error {
	switch config.StorageBackend {
	case STORAGE_LOCAL:
		if err := os.MkdirAll(config.UploadsDir, 0755); err != nil {
			return errors.Wrap(err, "failed to create uploads directory")
		}
		fileStorage = &storage.LocalStorage{}
	case STORAGE_GCS:
		gcsStorage, err := storage.New(ctx, storage.Options{
			BucketName:      config.BucketName,
			CredentialsFile: config.BucketServiceAccount,
			UrlPrefix:       config.UploadsUrlPrefix,
		})
		if err != nil {
			return err
		}
		fileStorage = gcsStorage
	default:
		return fmt.Errorf("unknown storage backend %q", config.StorageBackend)
	}
	return nil
}

func initDatabaseConnection() (err error) {
	db, err = store.Open(connectionOptions(), logger)
	return
}

func connectionOptions() store.ConnectionOptions {
	return store.ConnectionOptions{
		Dialect:    config.DbDialect,
		Host:       config.PgContactPoint,
		Port:       config.PgContactPort,
		Username:   config.PgUsername,
		Password:   config.PgPassword,
		DbName:     config.PgDbName,
		SqlitePath: config.SqlitePath,
	}
}

func initQueue() error {
	switch config.JobQueue {
	case QUEUE_MEMORY:
		queue = messaging.NewMemoryQueue(256)
	case QUEUE_PUBSUB:
		client, err := messaging.New(ctx, messaging.ClientOptions{
			ProjectID:      config.GcpProjectID,
			Topic:          config.PubSubTopic,
			CredentialPath: config.PubSubServiceAccount,
		})
		if err != nil {
			return err
		}
		queue = client
	default:
		return fmt.Errorf("unknown job queue %q", config.JobQueue)
	}
	return nil
}

func initApplicationGraph() error {
	g := inject.Graph{}
	err := g.Provide(
		&inject.Object{Value: config},
		&inject.Object{Value: db},
		&inject.Object{Value: stringGenerator},
		&inject.Object{Value: dbStore},
		&inject.Object{Value: fileStorage},
		&inject.Object{Value: queue},
		&inject.Object{Value: smtpMailer},
		&inject.Object{Value: jobRunner},
		&inject.Object{Value: fileCleanupHandler},
		&inject.Object{Value: inquiryConfirmationHandler},
		&inject.Object{Value: authenticator},
		&inject.Object{Value: authenticationService},
		&inject.Object{Value: userService},
		&inject.Object{Value: childService},
		&inject.Object{Value: documentService},
		&inject.Object{Value: healthRecordService},
		&inject.Object{Value: educationalRecordService},
		&inject.Object{Value: messageService},
		&inject.Object{Value: staffAssignmentService},
		&inject.Object{Value: adoptionService},
		&inject.Object{Value: donationService},
		&inject.Object{Value: scheduleService},
		&inject.Object{Value: reportService},
		&inject.Object{Value: inquiryService},
		&inject.Object{Value: jobService},
		&inject.Object{Value: authenticationHandlerFactory},
		&inject.Object{Value: userHandlerFactory},
		&inject.Object{Value: childrenHandlerFactory},
		&inject.Object{Value: documentsHandlerFactory},
		&inject.Object{Value: healthRecordsHandlerFactory},
		&inject.Object{Value: educationalRecordsHandlerFactory},
		&inject.Object{Value: messagesHandlerFactory},
		&inject.Object{Value: staffAssignmentsHandlerFactory},
		&inject.Object{Value: adoptionsHandlerFactory},
		&inject.Object{Value: donationsHandlerFactory},
		&inject.Object{Value: schedulesHandlerFactory},
		&inject.Object{Value: reportsHandlerFactory},
		&inject.Object{Value: inquiriesHandlerFactory},
		&inject.Object{Value: jobsHandlerFactory},
		&inject.Object{Value: logger},
	)
	if err != nil {
		return errors.Wrap(err, "failed to provide")
	}
	if err := g.Populate(); err != nil {
		return errors.Wrap(err, "failed to populate")
	}
	jobRunner.Handlers = []jobs.Handler{fileCleanupHandler, inquiryConfirmationHandler}
	return nil
}

func initIdentityCache() {
	if config.RedisAddr == "" {
		return
	}
	cache := authentication.NewRedisIdentityCache(config.RedisAddr, config.RedisPassword, config.IdentityCacheTtl, logger)
	authenticator.Cache = cache
	userService.Cache = cache
}

func main() {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prepareSchema(ctx)

	if config.JobQueue == QUEUE_MEMORY {
		go jobRunner.Start(ctx)
		_, err := jobRunner.StartRetryScheduler(ctx)
		checkErrAndExit(err)
	}

	startHttpServer(ctx)
}

func prepareSchema(ctx context.Context) {
	if config.DbDialect == store.DIALECT_SQLITE {
		logger.Info(ctx, "auto migrating sqlite schema")
		checkErrAndExit(store.AutoMigrate(db))
	} else if config.StartupMigration {
		applySqlSchemaMigrations(ctx)
	}

	if config.SeedDatabase {
		seededUsers, seededChildren, err := dbStore.SeedDatabase(nil, config.DefaultPhotoUrl)
		checkErrAndExit(err)
		logger.Info(ctx, "database seeded", "users", seededUsers, "children", seededChildren)
	}
}

func applySqlSchemaMigrations(ctx context.Context) {
	logger.Info(ctx, "applying sql schema migrations")
	migrationResult := migrations.Up(migrations.ApplyOptions{
		DatabaseURL: connectionOptions().MigrationURL(),
	})
	checkErrAndExit(migrationResult.Err)
	if !migrationResult.Changes {
		logger.Info(ctx, "no new migrations applied")
	}
}

func serverOptions(encoder kithttp.ErrorEncoder) []kithttp.ServerOption {
	return []kithttp.ServerOption{
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encoder),
	}
}

func startHttpServer(ctx context.Context) {
	authenticationOpts := serverOptions(authentication.EncodeError)
	userOpts := serverOptions(users.EncodeError)
	childrenOpts := serverOptions(children.EncodeError)
	documentsOpts := serverOptions(documents.EncodeError)
	healthRecordsOpts := serverOptions(healthrecords.EncodeError)
	educationalRecordsOpts := serverOptions(educationalrecords.EncodeError)
	messagesOpts := serverOptions(messages.EncodeError)
	staffAssignmentsOpts := serverOptions(staffassignments.EncodeError)
	adoptionsOpts := serverOptions(adoptions.EncodeError)
	donationsOpts := serverOptions(donations.EncodeError)
	schedulesOpts := serverOptions(schedules.EncodeError)
	reportsOpts := serverOptions(reports.EncodeError)
	inquiriesOpts := serverOptions(inquiries.EncodeError)
	jobsOpts := serverOptions(jobsapi.EncodeError)

	router := mux.NewRouter()
	router.NotFoundHandler = NotFoundHandler
	router.MethodNotAllowedHandler = MethodNotAllowedHandler

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.DB().PingContext(r.Context()); err != nil {
			logger.Warn(r.Context(), "database is not reachable", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/swagger.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(swagger)
	}).Methods(http.MethodGet)
	router.PathPrefix("/api/docs/").Handler(swgui.New("Orphanage API", "/swagger.yaml", "/api/docs/"))

	router.PathPrefix(config.UploadsUrlPrefix + "/").Handler(storage.Handler(fileStorage, config.UploadsUrlPrefix)).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = NotFoundHandler
	api.MethodNotAllowedHandler = MethodNotAllowedHandler

	api.Handle("/register", authenticationHandlerFactory.Register(authenticationOpts)).Methods(http.MethodPost)
	api.Handle("/login", authenticationHandlerFactory.Login(authenticationOpts)).Methods(http.MethodPost)

	api.Handle("/users", userHandlerFactory.Add(userOpts)).Methods(http.MethodPost)
	api.Handle("/users", userHandlerFactory.List(userOpts)).Methods(http.MethodGet)
	api.Handle("/users/{id}", userHandlerFactory.Get(userOpts)).Methods(http.MethodGet)
	api.Handle("/users/{id}", userHandlerFactory.Update(userOpts)).Methods(http.MethodPut)
	api.Handle("/users/{id}", userHandlerFactory.Delete(userOpts)).Methods(http.MethodDelete)

	api.Handle("/children", LimitUploadBody(childrenHandlerFactory.Add(childrenOpts), config.MaxUploadSize())).Methods(http.MethodPost)
	api.Handle("/children", childrenHandlerFactory.List(childrenOpts)).Methods(http.MethodGet)
	api.Handle("/children/{childId}", childrenHandlerFactory.Get(childrenOpts)).Methods(http.MethodGet)
	api.Handle("/children/{childId}", LimitUploadBody(childrenHandlerFactory.Update(childrenOpts), config.MaxUploadSize())).Methods(http.MethodPut)
	api.Handle("/children/{childId}", childrenHandlerFactory.Delete(childrenOpts)).Methods(http.MethodDelete)

	api.Handle("/children/{childId}/documents", LimitUploadBody(documentsHandlerFactory.Upload(documentsOpts), config.MaxUploadSize())).Methods(http.MethodPost)
	api.Handle("/children/{childId}/documents", documentsHandlerFactory.List(documentsOpts)).Methods(http.MethodGet)
	api.Handle("/documents/{docId}/download", documentsHandlerFactory.Download(documentsOpts)).Methods(http.MethodGet)
	api.Handle("/documents/{docId}", documentsHandlerFactory.Delete(documentsOpts)).Methods(http.MethodDelete)

	api.Handle("/health-records", healthRecordsHandlerFactory.Add(healthRecordsOpts)).Methods(http.MethodPost)
	api.Handle("/health-records", healthRecordsHandlerFactory.List(healthRecordsOpts)).Methods(http.MethodGet)
	api.Handle("/health-records/{id}", healthRecordsHandlerFactory.Get(healthRecordsOpts)).Methods(http.MethodGet)
	api.Handle("/health-records/{id}", healthRecordsHandlerFactory.Update(healthRecordsOpts)).Methods(http.MethodPut)
	api.Handle("/health-records/{id}", healthRecordsHandlerFactory.Delete(healthRecordsOpts)).Methods(http.MethodDelete)

	api.Handle("/educational-records", educationalRecordsHandlerFactory.Add(educationalRecordsOpts)).Methods(http.MethodPost)
	api.Handle("/educational-records", educationalRecordsHandlerFactory.List(educationalRecordsOpts)).Methods(http.MethodGet)
	api.Handle("/educational-records/{id}", educationalRecordsHandlerFactory.Get(educationalRecordsOpts)).Methods(http.MethodGet)
	api.Handle("/educational-records/{id}", educationalRecordsHandlerFactory.Update(educationalRecordsOpts)).Methods(http.MethodPut)
	api.Handle("/educational-records/{id}", educationalRecordsHandlerFactory.Delete(educationalRecordsOpts)).Methods(http.MethodDelete)

	api.Handle("/messages/users", userHandlerFactory.ListMessagingUsers(userOpts)).Methods(http.MethodGet)
	api.Handle("/messages", authenticator.Identity(messagesHandlerFactory.Send(messagesOpts))).Methods(http.MethodPost)
	api.Handle("/messages", authenticator.Identity(messagesHandlerFactory.Inbox(messagesOpts))).Methods(http.MethodGet)

	// static paths first, they would match {id} otherwise
	api.Handle("/staff-assignments/staff", userHandlerFactory.ListStaff(userOpts)).Methods(http.MethodGet)
	api.Handle("/staff-assignments/children", childrenHandlerFactory.ListSummaries(childrenOpts)).Methods(http.MethodGet)
	api.Handle("/staff-assignments", staffAssignmentsHandlerFactory.Add(staffAssignmentsOpts)).Methods(http.MethodPost)
	api.Handle("/staff-assignments", staffAssignmentsHandlerFactory.List(staffAssignmentsOpts)).Methods(http.MethodGet)
	api.Handle("/staff-assignments/{id}", staffAssignmentsHandlerFactory.Get(staffAssignmentsOpts)).Methods(http.MethodGet)
	api.Handle("/staff-assignments/{id}", staffAssignmentsHandlerFactory.Update(staffAssignmentsOpts)).Methods(http.MethodPut)
	api.Handle("/staff-assignments/{id}", staffAssignmentsHandlerFactory.Delete(staffAssignmentsOpts)).Methods(http.MethodDelete)

	api.Handle("/adoptions", adoptionsHandlerFactory.Add(adoptionsOpts)).Methods(http.MethodPost)
	api.Handle("/adoptions", adoptionsHandlerFactory.List(adoptionsOpts)).Methods(http.MethodGet)
	api.Handle("/adoptions/{id}", adoptionsHandlerFactory.Get(adoptionsOpts)).Methods(http.MethodGet)
	api.Handle("/adoptions/{id}", adoptionsHandlerFactory.Update(adoptionsOpts)).Methods(http.MethodPut)
	api.Handle("/adoptions/{id}", adoptionsHandlerFactory.Delete(adoptionsOpts)).Methods(http.MethodDelete)

	api.Handle("/donations", donationsHandlerFactory.Add(donationsOpts)).Methods(http.MethodPost)
	api.Handle("/donations", donationsHandlerFactory.List(donationsOpts)).Methods(http.MethodGet)

	api.Handle("/schedule", authenticator.OptionalIdentity(schedulesHandlerFactory.Assign(schedulesOpts))).Methods(http.MethodPost)
	api.Handle("/schedule", schedulesHandlerFactory.List(schedulesOpts)).Methods(http.MethodGet)
	api.Handle("/schedule/{id}", schedulesHandlerFactory.Delete(schedulesOpts)).Methods(http.MethodDelete)
	api.Handle("/schedule/{id}/complete", authenticator.Identity(schedulesHandlerFactory.Complete(schedulesOpts))).Methods(http.MethodPatch)
	api.Handle("/staff/schedule", schedulesHandlerFactory.ListStaff(schedulesOpts)).Methods(http.MethodGet)
	api.Handle("/my-schedule", authenticator.Identity(schedulesHandlerFactory.ListMine(schedulesOpts))).Methods(http.MethodGet)

	api.Handle("/reports/child-welfare", reportsHandlerFactory.ChildWelfare(reportsOpts)).Methods(http.MethodGet)
	api.Handle("/reports/educational-performance", reportsHandlerFactory.EducationalPerformance(reportsOpts)).Methods(http.MethodGet)
	api.Handle("/reports/health-records", reportsHandlerFactory.HealthRecords(reportsOpts)).Methods(http.MethodGet)

	api.Handle("/inquiries", inquiriesHandlerFactory.Submit(inquiriesOpts)).Methods(http.MethodPost)
	api.Handle("/inquiries", inquiriesHandlerFactory.List(inquiriesOpts)).Methods(http.MethodGet)
	api.Handle("/inquiries/{id}", inquiriesHandlerFactory.UpdateStatus(inquiriesOpts)).Methods(http.MethodPatch)

	api.Handle("/jobs", authenticator.Identity(authenticator.Roles(jobsHandlerFactory.List(jobsOpts), ROLE_ADMIN))).Methods(http.MethodGet)
	api.Handle("/jobs/{id}", authenticator.Identity(authenticator.Roles(jobsHandlerFactory.Get(jobsOpts), ROLE_ADMIN))).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    "0.0.0.0:" + config.Port,
		Handler: logger.RecoveryMiddleware(logger.RequestLoggerMiddleware(router)),
	}

	go func() {
		<-ctx.Done()
		logger.Info(context.Background(), "shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Err(shutdownCtx, "failed to shutdown http server", "err", err)
		}
	}()

	logger.Info(ctx, "http server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		checkErrAndExit(err)
	}
	db.Close()
}

func checkErrAndExit(err error) {
	if err == nil {
		return
	}
	fmt.Println(err.Error())
	os.Exit(1)
}
