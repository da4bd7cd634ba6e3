package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type CORS struct {
	AllowedOrigins []string
}

type Hub struct {
	SendBuffer     int
	PingPeriod     time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

type RedisBus struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	Channel  string
	CodeKey  string
}

type Config struct {
	Env   string
	HTTP  HTTPServer
	CORS  CORS
	Hub   Hub
	Redis RedisBus
}

const (
	logtag = "[config]"
	masked = "******"

	EnvProd = "prod"
	EnvDev  = "dev"
)

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := FromEnv()
	log.Printf("%s backend config : %+v\n", logtag, cfg.Redacted())
	return cfg
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.Redis.Password != "" {
		c.Redis.Password = masked
	}
	return c
}

// FromEnv builds the config from the current process environment.
func FromEnv() *Config {
	return &Config{
		Env:   getenv("APP_ENV", EnvDev),
		HTTP:  *newHTTP(),
		CORS:  *newCORS(),
		Hub:   *newHub(),
		Redis: *newRedis(),
	}
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "0.0.0.0"),
	}
}

func newCORS() *CORS {
	raw := getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	origins := make([]string, 0)
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return &CORS{AllowedOrigins: origins}
}

func newHub() *Hub {
	return &Hub{
		SendBuffer:     getint("HUB_SEND_BUFFER", 256),
		PingPeriod:     getduration("HUB_PING_PERIOD", 54*time.Second),
		WriteWait:      getduration("HUB_WRITE_WAIT", 10*time.Second),
		PongWait:       getduration("HUB_PONG_WAIT", 60*time.Second),
		MaxMessageSize: int64(getint("HUB_MAX_MESSAGE_SIZE", 4096)),
	}
}

func newRedis() *RedisBus {
	return &RedisBus{
		Enabled:  getbool("REDIS_ENABLED", false),
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getsecret("REDIS_PASSWORD"),
		Channel:  getenv("REDIS_CHANNEL", "klick:rooms"),
		CodeKey:  getenv("REDIS_CODE_KEY", "klick:codes"),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

// getsecret never echoes the value.
func getsecret(key string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined\n", logtag, key)
		return ""
	}
	fmt.Printf("%s %s = %s\n", logtag, key, masked)
	return val
}

func getint(key string, defaultValue int) int {
	raw := getenv(key, strconv.Itoa(defaultValue))
	val, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Printf("%s %s is not an integer. Using default value %d\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}

func getbool(key string, defaultValue bool) bool {
	raw := getenv(key, strconv.FormatBool(defaultValue))
	val, err := strconv.ParseBool(raw)
	if err != nil {
		fmt.Printf("%s %s is not a boolean. Using default value %t\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}

func getduration(key string, defaultValue time.Duration) time.Duration {
	raw := getenv(key, defaultValue.String())
	val, err := time.ParseDuration(raw)
	if err != nil {
		fmt.Printf("%s %s is not a duration. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}
