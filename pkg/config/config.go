package config

import (
	"time"
)

type DB struct {
	Url     string `envconfig:"URL"`
	Migrate bool   `envconfig:"MIGRATE" default:"true"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Strategy string `envconfig:"STRATEGY" default:"jwt"`
	Jwt      *Jwt   `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers     []string `envconfig:"BROKERS"`
	TopicPrefix string   `envconfig:"TOPIC_PREFIX" default:"wallet"`
	GroupID     string   `envconfig:"GROUP_ID" default:"wallet"`
}

// EventBus selects the event transport: memory, redis or kafka.
type EventBus struct {
	Driver string `envconfig:"DRIVER" default:"memory"`
	Stream string `envconfig:"STREAM" default:"wallet-events"`
	Group  string `envconfig:"GROUP" default:"wallet"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

//revive:disable
type Paystack struct {
	SecretKey  string `envconfig:"SECRET_KEY"`
	BaseURL    string `envconfig:"BASE_URL" default:"https://api.paystack.co"`
	Subaccount string `envconfig:"SUBACCOUNT"`
}

type Stripe struct {
	ApiKey        string `envconfig:"API_KEY"`
	SigningSecret string `envconfig:"SIGNING_SECRET"`
	SuccessPath   string `envconfig:"SUCCESS_PATH" default:"http://localhost:3000/wallet/verify-transaction"`
	CancelPath    string `envconfig:"CANCEL_PATH" default:"http://localhost:3000/wallet/fund/cancel"`
}

//revive:enable

// Gateway configures the payment gateway. Provider serves both checkout and
// payouts; CheckoutProvider, when set, overrides the checkout half.
type Gateway struct {
	Provider         string        `envconfig:"PROVIDER" default:"mock"`
	CheckoutProvider string        `envconfig:"CHECKOUT_PROVIDER"`
	Timeout          time.Duration `envconfig:"TIMEOUT" default:"15s"`
	Country          string        `envconfig:"COUNTRY" default:"nigeria"`
	BankCacheTTL     time.Duration `envconfig:"BANK_CACHE_TTL" default:"6h"`
	Paystack         *Paystack     `envconfig:"PAYSTACK"`
	Stripe           *Stripe       `envconfig:"STRIPE"`
}

// Ledger holds the money rules. Amounts are in kobo.
type Ledger struct {
	Reserve              int64   `envconfig:"RESERVE" default:"10000"`
	WithdrawalFee        int64   `envconfig:"WITHDRAWAL_FEE" default:"1500"`
	PlatformFeeThreshold int64   `envconfig:"PLATFORM_FEE_THRESHOLD" default:"250000"`
	PlatformFeeAbove     int64   `envconfig:"PLATFORM_FEE_ABOVE" default:"15000"`
	PlatformFeeBelow     int64   `envconfig:"PLATFORM_FEE_BELOW" default:"1000"`
	SplitPercentage      float64 `envconfig:"SPLIT_PERCENTAGE" default:"0.01"`
	Currency             string  `envconfig:"CURRENCY" default:"NGN"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[wallet]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Redis     *Redis     `envconfig:"REDIS"`
	Kafka     *Kafka     `envconfig:"KAFKA"`
	EventBus  *EventBus  `envconfig:"EVENT_BUS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Gateway   *Gateway   `envconfig:"GATEWAY"`
	Ledger    *Ledger    `envconfig:"LEDGER"`
}
