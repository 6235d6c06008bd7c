package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"room-lab/api"
	"room-lab/auth"
	"room-lab/internal"
	"room-lab/moderation"
	"room-lab/repositories"
	"room-lab/runtime"
	"room-lab/runtime/workers"
	"room-lab/services"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "room-lab terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal arrives.
// Deferred cleanups run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, _ := internal.CharacterRune(config.CharReplacement)
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		log.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Moderation dictionary
	censored, err := runtime.NewCensoredLoader(runtime.CensoredFolder).LoadAll("censored")
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to load censored words: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, charReplacement, log)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to build moderator: %w", err)
	}
	log.Info("Moderation ready", "languages", censored.Languages, "words", len(censored.Words))

	// 4. Registry, identity and live channel
	roomRepository := repositories.NewRoomRepository(db, log)
	tokens := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(repositories.NewUserRepository(db), tokens)
	roomService := services.NewRoomService(log, roomRepository,
		repositories.NewRoomIndex(blugeWriter, log),
		services.NewSessionFactory(roomRepository),
		runtime.NewRoomLocks())

	directory := runtime.NewDirectory()
	broadcaster := workers.NewBroadcaster(log, directory, moderator)
	live := api.NewLiveHandler(log, directory, broadcaster, config.ConnectionBufferSize)
	server := api.NewServer(log, config.Address(),
		api.NewHandlers(roomService, authService, directory), live, tokens).
		WithShutdownTimeout(config.ShutdownTimeout)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised workers, Run returns once all of them stopped
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		server,
		internal.NewHealthWorker(log, config.HealthAddress()),
		workers.NewHeartbeatWorker(log, config.HeartbeatInterval, directory, broadcaster),
	)
	log.Info("Starting room-lab", "address", config.Address(), "health", config.HealthAddress())
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return exitOK, nil
}
