package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Redis        Redis
	Auth         Auth
	Storage      Storage
	Worker       Worker
	GeminiApiKey string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Auth struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type Storage struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	UploadTTL       time.Duration
	DownloadTTL     time.Duration
}

type Worker struct {
	Concurrency int
	MaxRetry    int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("JWT_TOKEN_TTL_MINUTES", 60*24)
	viper.SetDefault("UPLOAD_URL_TTL_MINUTES", 15)
	viper.SetDefault("DOWNLOAD_URL_TTL_MINUTES", 60)
	viper.SetDefault("WORKER_CONCURRENCY", 4)
	viper.SetDefault("WORKER_MAX_RETRY", 3)

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	config.Auth.TokenTTL = time.Duration(viper.GetInt("JWT_TOKEN_TTL_MINUTES")) * time.Minute

	config.Storage.Endpoint = viper.GetString("OSS_ENDPOINT")
	config.Storage.AccessKeyID = viper.GetString("OSS_ACCESS_KEY_ID")
	config.Storage.AccessKeySecret = viper.GetString("OSS_ACCESS_KEY_SECRET")
	config.Storage.Bucket = viper.GetString("OSS_BUCKET")
	config.Storage.UploadTTL = time.Duration(viper.GetInt("UPLOAD_URL_TTL_MINUTES")) * time.Minute
	config.Storage.DownloadTTL = time.Duration(viper.GetInt("DOWNLOAD_URL_TTL_MINUTES")) * time.Minute

	config.Worker.Concurrency = viper.GetInt("WORKER_CONCURRENCY")
	config.Worker.MaxRetry = viper.GetInt("WORKER_MAX_RETRY")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	log.Info().Str("port", config.Server.Port).Str("database", config.Database.Name).Msg("Config loaded")
	return &config, nil
}
