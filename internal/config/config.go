package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type ZarinPalConfig struct {
	MerchantID string `env:"ZARINPAL_MERCHANT_ID"`
	BaseURL    string `env:"ZARINPAL_BASE_URL" envDefault:"https://payment.zarinpal.com"`
	// CallbackURL is the absolute URL the gateway redirects the payer back to.
	CallbackURL string `env:"ZARINPAL_CALLBACK_URL"`
}

type ShahkarConfig struct {
	BaseURL string `env:"SHAHKAR_BASE_URL"`
	APIKey  string `env:"SHAHKAR_API_KEY"`
}

type AuthConfig struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	OTPTTL    time.Duration `env:"AUTH_OTP_TTL" envDefault:"2m"`
}

type UploadConfig struct {
	Dir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	BaseURL string `env:"UPLOAD_BASE_URL" envDefault:"/uploads"`
}
