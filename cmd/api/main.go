package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"land-scout/internal/config"
	"land-scout/internal/database"
)

var store database.Store

func main() {
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "config/landscout.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", configPath, err)
	}
	log.Printf("Loaded configuration from %s", configPath)

	store, err = openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Setup Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.API.AllowOrigins,
		AllowMethods:     []string{"GET"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	// Read-only reporting routes; runs are committed by the batch CLI.
	r.GET("/health", healthCheck)
	r.GET("/api/properties", getProperties)
	r.GET("/api/properties/:id", getProperty)
	r.GET("/api/properties/:id/history", getPropertyHistory)
	r.GET("/api/runs", getRecentRuns)
	r.GET("/api/stats", getStatistics)

	port := getEnv("PORT", strconv.Itoa(cfg.API.Port))
	log.Printf("Reporting API starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func getProperties(c *gin.Context) {
	grade := c.Query("grade")
	limit := parseIntQuery(c, "limit", 100)

	properties, err := store.ActiveProperties(grade, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      len(properties),
		"properties": properties,
	})
}

func getProperty(c *gin.Context) {
	property, err := store.GetProperty(c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, property)
}

func getPropertyHistory(c *gin.Context) {
	id := c.Param("id")
	limit := parseIntQuery(c, "limit", 0)

	points, err := store.PriceHistory(id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property_id": id,
		"count":       len(points),
		"history":     points,
	})
}

func getRecentRuns(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 20)

	runs, err := store.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(runs),
		"runs":  runs,
	})
}

func getStatistics(c *gin.Context) {
	topN := parseIntQuery(c, "top", 10)

	stats, err := store.GetStatistics(topN)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}

func openStore(cfg *config.Config) (database.Store, error) {
	dbType := cfg.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "sqlite")
	}

	switch dbType {
	case "mysql":
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
		return database.NewSQLite(getEnvOrConfig(cfg.Database.SQLite.Path, "DB_PATH", "data/properties.db"))
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
