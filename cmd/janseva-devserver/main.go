package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Goofygiraffe06/janseva/api"
	"github.com/Goofygiraffe06/janseva/internal/auth"
	"github.com/Goofygiraffe06/janseva/internal/config"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/mailbox"
	"github.com/Goofygiraffe06/janseva/internal/mailer"
	"github.com/Goofygiraffe06/janseva/internal/manager"
	"github.com/Goofygiraffe06/janseva/store"
	"github.com/Goofygiraffe06/janseva/store/ephemeral"
)

func main() {
	f, err := logging.InitLogger(config.LogFile())
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer f.Close()
	defer logging.Sync()

	logging.InfoLog("Starting Jan Seva dev auth server")

	if err := auth.InitSigningKey(); err != nil {
		logging.FatalLog("Failed to generate session signing key: %v", err)
	}
	logging.InfoLog("Session signing key ready kid=%s", auth.GetSigningKey().ID)

	// Secure SQLite DB file if it exists
	dbFile := config.DevServerDBPath()
	if _, err := os.Stat(dbFile); err == nil {
		if err := os.Chmod(dbFile, 0600); err != nil {
			logging.ErrorLog("Failed to set restrictive permissions on %s: %v", dbFile, err)
		} else {
			logging.DebugLog("Permissions on %s set to 0600", dbFile)
		}
	}

	userStore, err := store.NewSQLiteStore(dbFile)
	if err != nil {
		logging.FatalLog("Failed to connect to DB: %v", err)
	}
	defer userStore.Close()
	logging.InfoLog("Connected to SQLite database: %s", dbFile)

	otpStore := ephemeral.NewOTPStore()
	defer otpStore.Close()

	mgr := manager.NewWorkManager()
	defer mgr.Close()

	sender, err := mailer.FromConfig()
	if err != nil {
		logging.FatalLog("Failed to configure mailer: %v", err)
	}

	var mbox *mailbox.Server
	if addr := config.MailboxListenAddr(); addr != "" {
		backend := mailbox.NewBackend(mailbox.NewInbox(), config.MailboxDomain())
		mbox = mailbox.NewServer(backend, addr)
		if err := mbox.Start(); err != nil {
			logging.FatalLog("Failed to start mailbox: %v", err)
		}
	}

	srv := &http.Server{
		Addr: ":" + config.ServerPort(),
		Handler: api.NewRouter(api.Deps{
			Users:  userStore,
			OTPs:   otpStore,
			Work:   mgr,
			Mailer: sender,
		}),
		ReadTimeout:       config.ServerReadTimeout(),
		ReadHeaderTimeout: config.ServerReadHeaderTimeout(),
		WriteTimeout:      config.ServerWriteTimeout(),
		IdleTimeout:       config.ServerIdleTimeout(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.InfoLog("Dev auth server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLog("Server failed: %v", err)
		}
	case <-ctx.Done():
		logging.InfoLog("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.WarnLog("HTTP shutdown: %v", err)
	}
	mbox.Stop(shutdownCtx)
	logging.InfoLog("Dev auth server stopped")
}
