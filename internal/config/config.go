package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/princekumarofficial/course-admin-service/internal/types"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	Storage    Storage    `yaml:"storage"`
	PGSQL      PQSQL      `yaml:"pgsql"`
	Redis      Redis      `yaml:"redis"`
	HTTPServer HTTPServer `yaml:"http_server"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	VideoHost  VideoHost  `yaml:"video_host"`
	Vimeo      Vimeo      `yaml:"vimeo"`
	MinIO      MinIO      `yaml:"minio"`
	Upload     Upload     `yaml:"upload"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
}

type HTTPServer struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
}

// Storage selects the persistence backend: "postgres" or "memory".
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type PQSQL struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-default:"postgres"`
	Password string `yaml:"password" env:"PGSQL_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env-default:"course_platform"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

// VideoHost picks the adapter the coordinator talks to: "vimeo" or "objectstore".
type VideoHost struct {
	Provider string `yaml:"provider" env:"VIDEO_HOST_PROVIDER" env-default:"vimeo"`
}

type Vimeo struct {
	BaseURL      string `yaml:"base_url" env-default:"https://api.vimeo.com"`
	ClientID     string `yaml:"client_id" env:"VIMEO_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"VIMEO_CLIENT_SECRET"`
	AccessToken  string `yaml:"access_token" env:"VIMEO_ACCESS_TOKEN"`
}

type MinIO struct {
	Endpoint        string        `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string        `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string        `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY"`
	UseSSL          bool          `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	BucketName      string        `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"lesson-videos"`
	Region          string        `yaml:"region" env:"MINIO_REGION" env-default:"us-east-1"`
	TicketTTL       time.Duration `yaml:"ticket_ttl" env-default:"6h"`
}

type Upload struct {
	RemoteTimeout  time.Duration `yaml:"remote_timeout" env-default:"15s"`
	DefaultPrivacy string        `yaml:"default_privacy" env-default:"unlisted"`
	StaleAfter     time.Duration `yaml:"stale_after" env-default:"24h"`
	ReapInterval   time.Duration `yaml:"reap_interval" env-default:"10m"`
	// DistributedLocks moves per-session locks to Redis so several replicas
	// can serve the same sessions.
	DistributedLocks bool          `yaml:"distributed_locks" env-default:"false"`
	LockTTL          time.Duration `yaml:"lock_ttl" env-default:"1m"`
}

// Validate rejects upload settings the coordinator cannot run with. A lock
// that expires before the host call it guards has timed out would let a
// second request into the same session.
func (u Upload) Validate() error {
	if u.RemoteTimeout <= 0 {
		return fmt.Errorf("upload.remote_timeout must be positive, got %s", u.RemoteTimeout)
	}
	if !types.Privacy(u.DefaultPrivacy).Valid() {
		return fmt.Errorf("upload.default_privacy %q is not a known privacy", u.DefaultPrivacy)
	}
	if u.DistributedLocks && u.LockTTL <= u.RemoteTimeout {
		return fmt.Errorf("upload.lock_ttl (%s) must be longer than upload.remote_timeout (%s)", u.LockTTL, u.RemoteTimeout)
	}
	if u.StaleAfter <= 0 || u.ReapInterval <= 0 {
		return errors.New("upload.stale_after and upload.reap_interval must be positive")
	}
	return nil
}

type RateLimit struct {
	UploadsPerMinute int64 `yaml:"uploads_per_minute" env-default:"10"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	if err := cfg.Upload.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	return &cfg
}

// DSN builds the lib/pq connection string.
func (p PQSQL) DSN() string {
	return "host=" + p.Host + " port=" + p.Port + " user=" + p.User +
		" password=" + p.Password + " dbname=" + p.DBName + " sslmode=" + p.SSLMode
}
