package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/srs"
)

// --- login / logout / sync ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and merge this device's deck with the server copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		if username == "" || password == "" {
			return fmt.Errorf("--username and --password are required")
		}

		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		token, err := requestToken(ctx, username, password)
		if err != nil {
			return err
		}
		if err := app.db.SaveToken(ctx, token); err != nil {
			return fmt.Errorf("caching credential: %w", err)
		}

		if err := app.engine.SignIn(ctx); err != nil {
			fmt.Printf("Signed in, but deck sync was skipped: %v\n", err)
			return nil
		}
		fmt.Printf("Signed in as %s. Deck merged: %d items.\n", username, app.store.Len())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the cached credential (the local deck is kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.db.ClearToken(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge the local deck with the server copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.engine.SignIn(ctx); err != nil {
			fmt.Printf("Sync skipped: %v\n", err)
			return nil
		}
		fmt.Printf("Deck synced: %d items.\n", app.store.Len())
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "account username")
	loginCmd.Flags().String("password", "", "account password")
}

// requestToken exchanges credentials for a bearer token at the auth
// endpoint. Authentication is the server's concern; the client only caches
// the result.
func requestToken(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		serverURL()+"/api/v1/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("invalid credentials")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return body.Token, nil
}

// --- deck management ---

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a learned sentence to the deck",
	Long: `Add a learned sentence to the deck.

Example:
  review add --sentence "猫が好きです" --translation "I like cats" --lang ja --pronunciation "neko ga suki desu"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sentence, _ := cmd.Flags().GetString("sentence")
		translation, _ := cmd.Flags().GetString("translation")
		lang, _ := cmd.Flags().GetString("lang")
		pronunciation, _ := cmd.Flags().GetString("pronunciation")

		item, err := domain.NewDeckItem(sentence, translation, lang, pronunciation, time.Now())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		added, err := app.store.Add(ctx, item)
		if err != nil {
			return err
		}
		if !added {
			fmt.Println("Already in the deck, nothing to do.")
			return nil
		}

		app.engine.MirrorAdd(ctx, item)
		fmt.Printf("Added. First review %s.\n", formatWait(time.Until(item.NextReview)))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a sentence from the deck",
	RunE: func(cmd *cobra.Command, args []string) error {
		sentence, _ := cmd.Flags().GetString("sentence")
		lang, _ := cmd.Flags().GetString("lang")
		if sentence == "" || lang == "" {
			return fmt.Errorf("--sentence and --lang are required")
		}

		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		removed, err := app.store.Remove(ctx, sentence, lang)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("Not in the deck.")
			return nil
		}

		app.engine.MirrorRemove(ctx, sentence, lang)
		fmt.Println("Removed.")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every deck item with its scheduling state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		items := app.store.Items()
		if len(items) == 0 {
			fmt.Println("The deck is empty. Add sentences with 'review add'.")
			return nil
		}

		now := time.Now()
		for _, item := range items {
			marker := " "
			if srs.IsDue(item, now) {
				marker = "*"
			}
			fmt.Printf("%s [%s] %s — %s  (streak %d, next %s)\n",
				marker, item.Lang, item.Sentence, item.Translation,
				item.ReviewCount, formatWait(time.Until(item.NextReview)))
		}
		fmt.Printf("\n%d items, %d due now.\n", len(items), app.store.DueCount(now))
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show how many items are waiting for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		now := time.Now()
		count := app.store.DueCount(now)
		if count > 0 {
			fmt.Printf("%d items due for review.\n", count)
			return nil
		}

		if next, ok := srs.NextDue(app.store.Items()); ok {
			fmt.Printf("Nothing due. Next review %s.\n", formatWait(next.Sub(now)))
		} else {
			fmt.Println("The deck is empty.")
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("sentence", "", "source-language sentence")
	addCmd.Flags().String("translation", "", "translation")
	addCmd.Flags().String("lang", "", "target language code")
	addCmd.Flags().String("pronunciation", "", "optional pronunciation")
	_ = addCmd.MarkFlagRequired("sentence")
	_ = addCmd.MarkFlagRequired("translation")
	_ = addCmd.MarkFlagRequired("lang")

	removeCmd.Flags().String("sentence", "", "source-language sentence")
	removeCmd.Flags().String("lang", "", "target language code")
}

// --- review sessions ---

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review due items one at a time",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		app.syncOnStart(ctx)
		return runSingle(ctx, app)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a timed batch of up to 10 due items with a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		app.syncOnStart(ctx)
		return runBatch(ctx, app)
	},
}

func formatWait(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	switch {
	case d < time.Minute:
		return "in less than a minute"
	case d < time.Hour:
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("in %dh", int(d.Hours()))
	default:
		return fmt.Sprintf("in %dd", int(d.Hours()/24))
	}
}
