// CLI tool to create a user with a bcrypt-hashed password and a default goals row.
// Usage: go run ./cmd/create-user [-goal maintain]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"lg/nutri-coach-go-api/internal/config"
	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
)

// newUser is what the prompts collect.
type newUser struct {
	Username string
	Email    string
	Password string
}

// prompt asks for username, email and password on r, echoing labels to w.
func prompt(r io.Reader, w io.Writer) (newUser, error) {
	reader := bufio.NewReader(r)
	ask := func(label string) string {
		fmt.Fprintf(w, "%s: ", label)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	u := newUser{Username: ask("Username"), Email: ask("Email"), Password: ask("Password")}
	if u.Username == "" || u.Password == "" {
		return u, fmt.Errorf("username and password are required")
	}
	if len(u.Password) < 8 {
		return u, fmt.Errorf("password must be at least 8 characters")
	}
	return u, nil
}

func main() {
	goalFlag := flag.String("goal", string(metabolism.Maintain), "initial goal type: lose_weight, maintain or gain_weight")
	flag.Parse()

	goalType, ok := metabolism.ParseGoalType(*goalFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown goal type %q\n", *goalFlag)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DB.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	u, err := prompt(os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid input: %v\n", err)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}
	authToken := uuid.New().String()
	goal := progress.DefaultGoal()
	goal.Type = goalType

	var userID int
	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO users (username, email, password, auth_token)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			u.Username, u.Email, string(hash), authToken,
		).Scan(&userID); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_goals (user_id, calorie_target, protein_target, goal_type) VALUES ($1, $2, $3, $4)`,
			userID, goal.CalorieTarget, goal.ProteinTarget, string(goal.Type)); err != nil {
			return fmt.Errorf("create goals: %w", err)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  ID:         %d\n", userID)
	fmt.Printf("  Username:   %s\n", u.Username)
	fmt.Printf("  Goal:       %s (%d kcal, %dg protein)\n", goal.Type, goal.CalorieTarget, goal.ProteinTarget)
	fmt.Printf("  Auth Token: %s\n", authToken)
}
