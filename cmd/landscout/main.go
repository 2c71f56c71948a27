package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"land-scout/internal/config"
	"land-scout/internal/database"
	"land-scout/internal/engine"
	"land-scout/internal/models"
	"land-scout/internal/scoring"
)

func main() {
	// .env is optional; explicit environment wins either way.
	_ = godotenv.Load()

	command := "run"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "run":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: landscout run <listings.json>")
			os.Exit(2)
		}
		if err := runBatch(args[0]); err != nil {
			log.Fatalf("Run failed: %v", err)
		}
	case "status":
		if err := showStatus(); err != nil {
			log.Fatalf("Status failed: %v", err)
		}
	case "help", "-h", "--help":
		showHelp()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		showHelp()
		os.Exit(2)
	}
}

func runBatch(batchPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	batch, err := readBatch(batchPath)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d listing records from %s", len(batch), batchPath)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	scorer, err := scoring.NewScorer(cfg.Scoring)
	if err != nil {
		return err
	}

	result, err := engine.New(scorer, store).Run(batch)
	if err != nil {
		return err
	}

	log.Printf("Run %s completed in %.1fs", result.RunID, result.RunLog.DurationSeconds)
	log.Printf("  total: %d, new: %d, price changed: %d, removed: %d, unchanged: %d, skipped: %d",
		result.RunLog.TotalListings,
		result.RunLog.NewCount,
		result.RunLog.PriceChangedCount,
		result.RunLog.RemovedCount,
		result.RunLog.UnchangedCount,
		result.RunLog.SkippedCount,
	)

	for _, skip := range result.Skipped {
		log.Printf("  skipped %s: %s", skip.PropertyID, skip.Reason)
	}

	reportHighGrades(cfg, result)
	return nil
}

// reportHighGrades logs the new and repriced listings whose grade is
// in the notification set, best first. Whatever delivers the actual
// notification consumes the same data downstream.
func reportHighGrades(cfg *config.Config, result *engine.Result) {
	type entry struct {
		id    string
		score scoring.Score
	}

	var entries []entry
	for id, sc := range result.Scores {
		if cfg.Notify.NotifiesGrade(string(sc.Grade)) {
			entries = append(entries, entry{id: id, score: sc})
		}
	}
	if len(entries) == 0 {
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score.TotalScore != entries[j].score.TotalScore {
			return entries[i].score.TotalScore > entries[j].score.TotalScore
		}
		return entries[i].id < entries[j].id
	})

	log.Printf("High-grade listings this run: %d", len(entries))
	for _, e := range entries {
		kind := "new"
		if _, repriced := result.Changes.PriceChanged[e.id]; repriced {
			kind = "price changed"
		}
		log.Printf("  %s級 (%.1f点) %s [%s]", e.score.Grade, e.score.TotalScore, e.id, kind)
	}
}

func showStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	topN := cfg.Notify.TopN
	if topN <= 0 {
		topN = 5
	}
	stats, err := store.GetStatistics(topN)
	if err != nil {
		return err
	}

	fmt.Printf("Active properties: %d\n", stats.ActiveTotal)
	fmt.Println("By grade:")
	for _, grade := range []string{"S", "A", "B", "C", "D"} {
		fmt.Printf("  %s: %d\n", grade, stats.ByGrade[grade])
	}

	if stats.LastRun != nil {
		fmt.Printf("Last run: %s at %s (new: %d, price changed: %d, removed: %d)\n",
			stats.LastRun.RunID,
			stats.LastRun.FinishedAt.Format("2006-01-02 15:04:05"),
			stats.LastRun.NewCount,
			stats.LastRun.PriceChangedCount,
			stats.LastRun.RemovedCount,
		)
	}

	if len(stats.TopRanked) > 0 {
		fmt.Printf("Top %d:\n", len(stats.TopRanked))
		for i, p := range stats.TopRanked {
			fmt.Printf("  %d. %s級 (%.1f点) %s - %s\n", i+1, p.Grade, p.TotalScore, p.Title, p.Address)
		}
	}
	return nil
}

func showHelp() {
	fmt.Print(`landscout - land listing scoring and change detection

usage:
  landscout run <listings.json>   score a batch of normalized listings
                                  and reconcile it against the store
  landscout status                show store statistics
  landscout help                  show this help

configuration:
  CONFIG_PATH points at the YAML config (default config/landscout.yaml)
`)
}

func loadConfig() (*config.Config, error) {
	configPath := getEnv("CONFIG_PATH", "config/landscout.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded configuration from %s", configPath)
	return cfg, nil
}

// readBatch decodes the normalizer's output: a JSON array of listing
// records for one run.
func readBatch(path string) ([]models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	var batch []models.Listing
	if err := json.NewDecoder(f).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return batch, nil
}

func openStore(cfg *config.Config) (database.Store, error) {
	dbType := cfg.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "sqlite")
	}

	switch dbType {
	case "mysql":
		log.Println("Using MySQL")
		mysqlCfg := cfg.Database.MySQL
		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}
		return database.NewMySQL(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "localhost"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "landscout"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", ""),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "landscout"),
		)
	case "postgres":
		log.Println("Using PostgreSQL")
		pgCfg := cfg.Database.Postgres
		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}
		return database.NewPostgres(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "localhost"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "landscout"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", ""),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "landscout"),
			pgCfg.SSLMode,
		)
	default:
		path := getEnvOrConfig(cfg.Database.SQLite.Path, "DB_PATH", "data/properties.db")
		log.Printf("Using SQLite at %s", path)
		return database.NewSQLite(path)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}
