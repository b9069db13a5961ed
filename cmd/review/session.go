package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/review"
)

// runSingle drives an endless one-at-a-time session until nothing is due
// or the user quits.
func runSingle(ctx context.Context, app *app) error {
	session := review.NewSession(app.store, app.engine, nil, nil)
	defer session.Exit()

	input := bufio.NewScanner(os.Stdin)
	state := session.StartSingle(ctx)

	for state == review.StatePresenting {
		quit, err := askQuestion(ctx, session, input, app)
		if err != nil {
			return err
		}
		if quit {
			fmt.Println("Session closed.")
			return nil
		}
		state = session.Next(ctx)
	}

	printComplete(session)
	return nil
}

// runBatch drives a capped batch session and prints the end-of-queue
// summary.
func runBatch(ctx context.Context, app *app) error {
	session := review.NewSession(app.store, app.engine, nil, nil)
	defer session.Exit()

	input := bufio.NewScanner(os.Stdin)
	state := session.StartBatch(ctx)

	card := 0
	for state == review.StatePresenting {
		card++
		fmt.Printf("\n--- Card %d ---\n", card)
		quit, err := askQuestion(ctx, session, input, app)
		if err != nil {
			return err
		}
		if quit {
			fmt.Println("Session closed.")
			return nil
		}
		state = session.Next(ctx)
	}

	if state == review.StateSummary {
		printSummary(session.Summary())
		return nil
	}

	printComplete(session)
	return nil
}

// askQuestion shows the current question, reads one choice, commits the
// answer and reports whether the user chose to quit instead.
func askQuestion(ctx context.Context, session *review.Session, input *bufio.Scanner, app *app) (quit bool, err error) {
	q := session.Question()

	if q.Direction == review.AskTranslation {
		fmt.Printf("\nTranslate: %s\n", q.Prompt)
	} else {
		fmt.Printf("\nWhich sentence means: %s\n", q.Prompt)
	}
	if q.Item.Pronunciation != "" && q.Direction == review.AskTranslation {
		fmt.Printf("           (%s)\n", q.Item.Pronunciation)
	}
	for i, choice := range q.Choices {
		fmt.Printf("  %d) %s\n", i+1, choice)
	}

	choice, quit := readChoice(input, len(q.Choices))
	if quit {
		return true, nil
	}

	outcome, err := session.Answer(ctx, choice)
	if err != nil {
		return false, err
	}

	if outcome.Correct {
		fmt.Println("Correct!")
	} else {
		fmt.Printf("Not quite. The answer was: %s\n", outcome.CorrectAnswer)
	}
	fmt.Printf("(%d still due)\n", app.store.DueCount(time.Now()))
	return false, nil
}

// readChoice reads a 1-based choice from the terminal; 'q' abandons the
// question ungraded.
func readChoice(input *bufio.Scanner, choices int) (choice int, quit bool) {
	for {
		fmt.Printf("Answer [1-%d, q to quit]: ", choices)
		if !input.Scan() {
			return 0, true
		}
		text := strings.TrimSpace(input.Text())
		if strings.EqualFold(text, "q") {
			return 0, true
		}
		n, err := strconv.Atoi(text)
		if err == nil && n >= 1 && n <= choices {
			return n - 1, false
		}
		fmt.Println("Please enter a listed number.")
	}
}

func printComplete(session *review.Session) {
	if session.EmptyDeck() {
		fmt.Println("The deck is empty. Add sentences with 'review add'.")
		return
	}
	fmt.Printf("All caught up! Next review %s.\n", formatWait(session.NextDueIn()))
}

func printSummary(s *review.Summary) {
	if s == nil {
		return
	}
	fmt.Println("\n=== Session summary ===")
	fmt.Printf("Score:       %d/%d (%d%%)\n", s.Correct, s.Total, s.Accuracy)
	fmt.Printf("Best streak: %d\n", s.BestStreak)
	fmt.Printf("Avg time:    %.1fs per card\n", s.AverageTime.Seconds())
	fmt.Printf("Grade:       %s\n", s.Grade)
}
