package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	. "github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/generator"
	"github.com/sri-ravi13/Orphan-Management-System/common/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/mailer"
	"github.com/sri-ravi13/Orphan-Management-System/common/messaging"
	"github.com/sri-ravi13/Orphan-Management-System/common/storage"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/facebookgo/inject"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const healthPort = "8081"

var (
	ctx    = context.Background()
	logger = log.NewLogger("event-manager")
	config *AppConfig
	db     *gorm.DB

	dbStore         = &store.Store{}
	stringGenerator = &generator.StringGenerator{}
	fileStorage     storage.Storage
	smtpMailer      = &mailer.SmtpMailer{}
	pubSubClient    *messaging.Client

	jobRunner                  = &jobs.Runner{}
	fileCleanupHandler         = &jobs.FileCleanupHandler{}
	inquiryConfirmationHandler = &jobs.InquiryConfirmationHandler{}
)

func init() {
	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(initStorage())
	checkErrAndExit(initPubSubClient())
	checkErrAndExit(initDatabaseConnection())
	checkErrAndExit(initApplicationGraph())
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	if err != nil {
		return
	}
	if config.JobQueue != QUEUE_PUBSUB {
		return fmt.Errorf("event-manager requires %s_JOB_QUEUE=%s, the api runs jobs in process otherwise", CONFIG_PREFIX, QUEUE_PUBSUB)
	}
	return
}

func initStorage() error {
	if config.StorageBackend == STORAGE_GCS {
		gcsStorage, err := storage.New(ctx, storage.Options{
			BucketName:      config.BucketName,
			CredentialsFile: config.BucketServiceAccount,
			UrlPrefix:       config.UploadsUrlPrefix,
		})
		if err != nil {
			return err
		}
		fileStorage = gcsStorage
		return nil
	}
	fileStorage = &storage.LocalStorage{}
	return nil
}

func initPubSubClient() (err error) {
	pubSubClient, err = messaging.New(ctx, messaging.ClientOptions{
		ProjectID:      config.GcpProjectID,
		Topic:          config.PubSubTopic,
		Subscription:   config.PubSubSubscription,
		CredentialPath: config.PubSubServiceAccount,
	})
	if err != nil {
		return err
	}

	for {
		err := pubSubClient.EnsureTopicAndSubscription(ctx)
		if err == nil {
			logger.Info(ctx, "subscription ready", "topic", config.PubSubTopic, "subscription", config.PubSubSubscription)
			return nil
		}
		logger.Err(ctx, "failed to ensure topic and subscription", "err", err)
		time.Sleep(time.Second)
	}
}

func initDatabaseConnection() (err error) {
	db, err = store.Open(store.ConnectionOptions{
		Dialect:    config.DbDialect,
		Host:       config.PgContactPoint,
		Port:       config.PgContactPort,
		Username:   config.PgUsername,
		Password:   config.PgPassword,
		DbName:     config.PgDbName,
		SqlitePath: config.SqlitePath,
	}, logger)
	return
}

func initApplicationGraph() error {
	g := inject.Graph{}
	err := g.Provide(
		&inject.Object{Value: config},
		&inject.Object{Value: db},
		&inject.Object{Value: dbStore},
		&inject.Object{Value: stringGenerator},
		&inject.Object{Value: fileStorage},
		&inject.Object{Value: smtpMailer},
		&inject.Object{Value: pubSubClient},
		&inject.Object{Value: jobRunner},
		&inject.Object{Value: fileCleanupHandler},
		&inject.Object{Value: inquiryConfirmationHandler},
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

func main() {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go jobRunner.Start(ctx)
	_, err := jobRunner.StartRetryScheduler(ctx)
	checkErrAndExit(err)

	startHttpServer(ctx)
	pubSubClient.Close()
	db.Close()
}

func startHttpServer(ctx context.Context) {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.DB().PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	server := &http.Server{Addr: "0.0.0.0:" + healthPort, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		checkErrAndExit(err)
	}
}

func checkErrAndExit(err error) {
	if err == nil {
		return
	}
	fmt.Println(err.Error())
	os.Exit(1)
}
