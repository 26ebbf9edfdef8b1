package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pot-code/learn-progress/internal/domain"
	infra "github.com/pot-code/learn-progress/internal/infrastructure"
	"github.com/pot-code/learn-progress/internal/infrastructure/auth"
	"github.com/pot-code/learn-progress/internal/infrastructure/driver"
	"github.com/pot-code/learn-progress/internal/infrastructure/i18n"
	"github.com/pot-code/learn-progress/internal/infrastructure/logging"
	"github.com/pot-code/learn-progress/internal/infrastructure/uuid"
	"github.com/pot-code/learn-progress/internal/infrastructure/validate"
	ihttp "github.com/pot-code/learn-progress/internal/interfaces/http"
	"github.com/pot-code/learn-progress/internal/repository"
	"github.com/pot-code/learn-progress/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := createPendingStore(ctx, option, logger)
	if err != nil {
		logger.Fatal("Failed to create pending store", zap.String("store.driver", option.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	catalog, err := i18n.NewCatalog(option.Locale)
	if err != nil {
		logger.Fatal("Failed to create message catalog", zap.Error(err))
	}
	validator, err := validate.NewValidator(catalog)
	if err != nil {
		logger.Fatal("Failed to create validator", zap.Error(err))
	}
	UUIDGenerator, err := uuid.NewNanoIDGenerator(option.Security.IDLength)
	if err != nil {
		logger.Fatal("Failed to create id generator", zap.Error(err))
	}

	token := auth.NewBearerToken(option.API.Token)
	ProgressAPI := repository.NewProgressAPIClient(&repository.ProgressAPIConfig{
		BaseURL: option.API.BaseURL,
		Timeout: option.API.Timeout,
		Token:   token,
	})
	ProgressUseCase := usecase.NewProgressUseCase(ProgressAPI, store, UUIDGenerator, validator, catalog, logger)
	SyncController := ProgressUseCase.SyncController(option.Sync.FailureThreshold)

	prober, err := usecase.NewConnectivityProber(ProgressAPI, option.Sync.ProbeSchedule, logger)
	if err != nil {
		logger.Fatal("Failed to create connectivity prober", zap.Error(err))
	}
	go SyncController.Run(ctx, prober)
	prober.Start()
	defer prober.Stop()

	if err := ihttp.Serve(ctx, option, &ihttp.Dependencies{
		Progress:  ProgressUseCase,
		Sync:      SyncController,
		Prober:    prober,
		Store:     store,
		Token:     token,
		Validator: validator,
		Logger:    logger,
	}); err != nil {
		logger.Error("Bridge stopped", zap.Error(err))
	}
}

func createPendingStore(ctx context.Context, option *infra.AppConfig, logger *zap.Logger) (domain.PendingStore, func(), error) {
	switch option.Store.Driver {
	case "memory":
		return repository.NewPendingKV(driver.NewMemoryKV()), func() {}, nil
	case "redis":
		rdb := driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password, option.KVStore.DB)
		if err := rdb.Ping(); err != nil {
			rdb.Close()
			return nil, nil, err
		}
		logger.Debug("Create redis connection instance", zap.String("kv.host", option.KVStore.Host), zap.Int("kv.db", option.KVStore.DB))
		return repository.NewPendingKV(rdb), func() { rdb.Close() }, nil
	case "mysql", "postgres":
		dbConn, err := driver.GetDBConnection(&driver.DBConfig{
			User:     option.Database.User,
			Password: option.Database.Password,
			MaxConn:  option.Database.MaxConn,
			Protocol: option.Database.Protocol,
			Driver:   option.Store.Driver,
			Host:     option.Database.Host,
			Port:     option.Database.Port,
			Query:    option.Database.Query,
			Schema:   option.Database.Schema,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Create db connection instance", zap.String("db.driver", option.Store.Driver),
			zap.String("db.schema", option.Database.Schema),
			zap.String("db.host", option.Database.Host),
		)
		store := repository.NewPendingSQL(dbConn)
		if err := store.EnsureSchema(ctx); err != nil {
			dbConn.Close(ctx)
			return nil, nil, err
		}
		return store, func() { dbConn.Close(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", option.Store.Driver)
}
