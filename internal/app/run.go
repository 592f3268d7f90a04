package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lollipop-server/internal/config"
	db "lollipop-server/internal/db"
	httpapi "lollipop-server/internal/httpapi"
	"lollipop-server/internal/migrate"
	lollipop "lollipop-server/internal/modules/lollipop"
	"lollipop-server/internal/modules/lollipop/repository"
	"lollipop-server/internal/modules/lollipop/service"
	"lollipop-server/internal/modules/lollipop/views"
	"lollipop-server/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sqliteLogQueries", cfg.SQLiteLogQueries,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"sessionTTL", cfg.SessionTTL,
		"rateLimitRPS", cfg.RateLimitRPS,
	)
	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRowContext(ctx, `SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	// The dataset is anchored at process start and read back once.
	repo := repository.NewRepository(dbConn)
	if err := service.SeedBuiltin(repo, time.Now()); err != nil {
		return err
	}
	data, err := service.LoadDataset(repo)
	if err != nil {
		return err
	}
	count, err := repo.CountSamples()
	if err != nil {
		return fmt.Errorf("count samples: %w", err)
	}
	first, _ := data.First()
	slog.Info("dataset loaded", "samples", count, "first", first.Time)

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	publisher := mqtt.NewPublisher(cfg, logger)
	// Use a short timeout for initial MQTT connect so we don't block startup when broker is down (e.g. E2E).
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = publisher.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt not connected yet (retrying in background)", "error", err)
	}

	svc := service.NewService(data, publisher, service.Options{
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	})
	go svc.Run(ctx, cfg.SessionSweepInterval)

	mux := httpapi.NewMux(dbConn)
	lollipop.RegisterFeature(mux, svc, cfg)

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		publisher.Disconnect()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	publisher.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
