package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"mevwatcher/cmd"
	"mevwatcher/config"
	"mevwatcher/db"
	"mevwatcher/logger"
)

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(config.ConfigPath)

	if err := viper.MergeInConfig(); err != nil {
		logger.GlobalLogger.Warn("Error reading config.yaml file, if you don't have config.yaml file, please create one from config-example.yaml", "err", err)
	}

	if err := godotenv.Load(config.ConfigPath + ".env"); err != nil {
		logger.GlobalLogger.Warn("Error reading .env file, if you don't have .env file, please create one from .env-example", "err", err)
	}

	viper.AutomaticEnv()
}

func initDB() {
	if !db.Configured() {
		logger.GlobalLogger.Info("CLICKHOUSE_ADDR not set, reports will not be stored")
		return
	}
	ch, err := db.NewClickhouse()
	if err != nil {
		logger.GlobalLogger.Error("Failed to open database", "err", err)
		return
	}
	defer ch.Close()

	logger.GlobalLogger.Info("Try to ensure database and tables exist")

	if err := ch.EnsureDatabaseExists(); err != nil {
		logger.GlobalLogger.Error("Failed to ensure database", "err", err)
		return
	}

	if err := ch.CreateTables(); err != nil {
		logger.GlobalLogger.Error("Failed to create tables", "err", err)
	}
}

func main() {
	initConfig()
	initDB()
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.GlobalLogger.Error("Error executing command", "err", err)
	}

	logger.CloseAll()
}
