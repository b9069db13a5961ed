// Command review is the terminal client for the Sentsei deck: it keeps a
// local SQLite copy of the deck, drives review sessions against it, and
// mirrors every change to the deck API when a session credential is cached.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/adapters/localstore"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/adapters/remote"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/deck"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/reconcile"
)

var rootCmd = &cobra.Command{
	Use:   "review",
	Short: "Spaced-repetition review of your learned sentences",
	Long: `Spaced-repetition review of your learned sentences.

The deck lives in a local database and works fully offline; sign in with
'review login' to keep it synced across devices.`,
	SilenceUsage: true,
}

// app bundles the wired client engine for one command invocation.
type app struct {
	db     *localstore.DB
	store  *deck.Store
	engine *reconcile.Engine
}

func (a *app) Close() {
	// In-flight background pushes read the credential from the local store,
	// so they must settle before it closes.
	a.engine.Wait()
	if err := a.db.Close(); err != nil {
		log.Printf("closing local store: %v", err)
	}
}

// syncOnStart runs the merge with the server copy when a credential is
// already cached, so a session started on another device is picked up
// without an explicit 'review sync'. Offline or signed-out sessions proceed
// on the local deck alone.
func (a *app) syncOnStart(ctx context.Context) {
	token, err := a.db.Token(ctx)
	if err != nil || token == "" {
		return
	}
	if err := a.engine.SignIn(ctx); err != nil {
		log.Printf("Sync: startup merge skipped: %v", err)
	}
}

func dataDir() (string, error) {
	if dir := os.Getenv("SENTSEI_DATA_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(base, "sentsei"), nil
}

func serverURL() string {
	if url := os.Getenv("SENTSEI_SERVER"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func openApp(ctx context.Context) (*app, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := localstore.Open(filepath.Join(dir, "sentsei.db"))
	if err != nil {
		return nil, err
	}

	store, err := deck.Open(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	client := remote.NewClient(serverURL(), db)
	engine := reconcile.NewEngine(store, client, db)

	return &app{db: db, store: store, engine: engine}, nil
}

func main() {
	rootCmd.AddCommand(
		loginCmd,
		logoutCmd,
		syncCmd,
		addCmd,
		removeCmd,
		listCmd,
		dueCmd,
		reviewCmd,
		batchCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
