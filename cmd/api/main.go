package main

import (
	"context"
	"crypto/tls"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/geovisor/geovisor/internal/config"
	"github.com/geovisor/geovisor/internal/handlers"
	"github.com/geovisor/geovisor/internal/storage"
	"github.com/geovisor/geovisor/models"
)

func main() {
	// .env is optional; the environment itself may carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log := logrus.New()
	formatter := &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
	log.SetFormatter(formatter)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.Infof("starting with %s", cfg)

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Layer{},
		&models.Measurement{},
	); err != nil {
		log.Fatalf("migrate models: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}

	api := handlers.New(db, store, cfg, log)
	log.Infof("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// newStore selects the storage backend. Local filesystem is the default;
// the s3 backend works against AWS or any S3-compatible endpoint.
func newStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.StorageLocal {
		return storage.NewLocal(cfg.UploadDir)
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
		},
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithHTTPClient(&http.Client{Transport: tr}),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		),
		awsconfig.WithRegion(cfg.S3.Region),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = &cfg.S3.Endpoint
		}
	})
	return storage.NewS3(client, cfg.S3.Bucket), nil
}
