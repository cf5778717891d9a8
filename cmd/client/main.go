package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/farklezone/farkle-client/internal/config"
	"github.com/farklezone/farkle-client/internal/ledger/gateway"
	"github.com/farklezone/farkle-client/internal/logger"
	"github.com/farklezone/farkle-client/internal/server"
	"github.com/farklezone/farkle-client/internal/session"
	"github.com/farklezone/farkle-client/internal/sse"
	"github.com/farklezone/farkle-client/internal/store"
	"github.com/farklezone/farkle-client/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logger.Setup(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "farkle-client",
	})

	ctx := logger.WithSessionID(context.Background(), logger.GenerateSessionID())
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DataPath)
	if err != nil {
		slog.Error("Failed to open local store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	w, err := loadWallet(ctx, st, cfg.Username)
	if err != nil {
		slog.Error("Failed to load wallet", "error", err)
		os.Exit(1)
	}
	slog.Info("Wallet ready", "address", w.Address())

	hub := sse.NewHub()
	hub.Start()
	defer hub.Stop()

	gw := gateway.New(cfg.RPCURL)
	sess := session.New(ctx, cfg, w, st, gw, gw, gw, hub)
	defer sess.Close()

	srv := server.NewServer(cfg.Port, sess, hub)

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}()

	if err := srv.Start(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// loadWallet restores the saved keypair or generates and saves a fresh
// one, the moral equivalent of a browser's remembered login.
func loadWallet(ctx context.Context, st *store.Store, username string) (*wallet.Keypair, error) {
	login, err := st.LoadLogin(ctx)
	if err != nil {
		return nil, err
	}
	if login != nil {
		return wallet.FromSeed(login.Seed)
	}

	kp, err := wallet.Generate()
	if err != nil {
		return nil, err
	}

	if err := st.SaveLogin(ctx, store.Login{
		Username: username,
		Seed:     kp.Seed(),
		Method:   "keypair",
	}); err != nil {
		return nil, err
	}
	return kp, nil
}
