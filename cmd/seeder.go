package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/budget"
	budgetPostgres "github.com/frahmantamala/budget-tracker/internal/budget/postgres"
	"github.com/frahmantamala/budget-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/budget-tracker/internal/category/postgres"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	goalPostgres "github.com/frahmantamala/budget-tracker/internal/goal/postgres"
	"github.com/frahmantamala/budget-tracker/internal/seed"
	"github.com/frahmantamala/budget-tracker/internal/storage"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	transactionPostgres "github.com/frahmantamala/budget-tracker/internal/transaction/postgres"
	"github.com/frahmantamala/budget-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	clearData  bool
	seedUser   string
	seedMonths int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed one user's account with sample categories, transactions, budgets and goals for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if seedUser == "" {
			log.Fatal("--user is required")
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.L()

		db, err := storage.Open(cfg.Database, lg)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()
		if db.Driver == "sqlite" {
			if err := db.AutoMigrate(); err != nil {
				log.Fatalf("failed to migrate sqlite schema: %v", err)
			}
		}

		ctx := context.Background()
		if clearData {
			if err := seed.Clear(ctx, db.Gorm, seedUser); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data for user:", seedUser)
		}

		transactions := transaction.NewService(transactionPostgres.NewTransactionRepository(db.Gorm), nil, nil, lg)
		services := seed.Services{
			Categories:   category.NewService(categoryPostgres.NewCategoryRepository(db.Gorm), nil, nil, lg),
			Transactions: transactions,
			Budgets:      budget.NewService(budgetPostgres.NewBudgetRepository(db.Gorm), transactions, nil, nil, internal.SystemClock, lg),
			Goals:        goal.NewService(goalPostgres.NewGoalRepository(db.Gorm), nil, nil, lg),
		}

		summary, err := seed.Run(ctx, services, seedUser, seedMonths, time.Now().UTC(), lg)
		if err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
		fmt.Printf("Seeded %d categories, %d transactions, %d budgets and %d goals for %s\n",
			summary.Categories, summary.Transactions, summary.Budgets, summary.Goals, seedUser)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVar(&seedUser, "user", "", "user id (the session subject) to seed")
	seedCmd.Flags().IntVar(&seedMonths, "months", 3, "months of history to generate")
}
