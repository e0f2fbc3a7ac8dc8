package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"Администратор"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 小时，14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Gateway struct {
		// 消息前端（bot / 网页）调用 /gateway 接口时携带的密钥
		APIKey string `env:"API_KEY,required"`
	} `envPrefix:"GATEWAY_"`
	Seed struct {
		Admin struct {
			Password string `env:"PASSWORD" envDefault:"changeme"`
		} `envPrefix:"ADMIN_"`
		WorkersFile string `env:"WORKERS_FILE" envDefault:"./internal/seed/data/workers.csv"`
	} `envPrefix:"SEED_"`
	Email struct {
		WorkerDomain string `env:"WORKER_DOMAIN" envDefault:"example.com"`
		TemplateFile string `env:"TEMPLATE_FILE" envDefault:"./templates/notification.html"`
		SMTP         struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN               string `env:"DSN,required"`
		PublishTimeout    int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
		NotificationQueue string `env:"NOTIFICATION_QUEUE" envDefault:"notification_queue"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	Action struct {
		Expiration int    `env:"EXPIRATION" envDefault:"172800"` // 秒，48 小时
		BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	} `envPrefix:"ACTION_"`
	Roster struct {
		TickInterval     int    `env:"TICK_INTERVAL" envDefault:"60"`   // 秒
		EveningTimeout   int    `env:"EVENING_TIMEOUT" envDefault:"30"` // 分钟
		MorningTimeout   int    `env:"MORNING_TIMEOUT" envDefault:"10"` // 分钟
		FailureThreshold int    `env:"FAILURE_THRESHOLD" envDefault:"4"`
		FallbackTimezone string `env:"FALLBACK_TIMEZONE" envDefault:"Europe/Moscow"`
		CitiesFile       string `env:"CITIES_FILE"` // 为空时使用内置的城市表
		StrictCities     bool   `env:"STRICT_CITIES" envDefault:"true"`
		SentLogTTL       int    `env:"SENT_LOG_TTL" envDefault:"86400"` // 秒
	} `envPrefix:"ROSTER_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
