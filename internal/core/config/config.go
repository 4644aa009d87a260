package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level string
	JSON  bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Circulation 流通规则常量：显式配置传入规则引擎，不做全局可变状态
type Circulation struct {
	MaxLoanDays       int   `mapstructure:"maxLoanDays"`
	FinePerDayCents   int64 `mapstructure:"finePerDayCents"`
	MaxBooksPerMember int   `mapstructure:"maxBooksPerMember"`
}

type Page struct {
	Books   int
	Members int
	Loans   int
}

type Config struct {
	App         App
	Log         Log
	JWT         JWT
	DB          DB
	Redis       Redis       `mapstructure:"redis"`
	Circulation Circulation `mapstructure:"circulation"`
	Page        Page
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bibliotheca")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("jwt.secret", "dev-only-secret")
	v.SetDefault("jwt.issuer", "bibliotheca")
	v.SetDefault("jwt.accessTokenTTLMin", 120)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "bibliotheca.db")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 60)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	// 14 天借期，逾期每天 25 分，每人最多 5 册
	v.SetDefault("circulation.maxLoanDays", 14)
	v.SetDefault("circulation.finePerDayCents", 25)
	v.SetDefault("circulation.maxBooksPerMember", 5)

	v.SetDefault("page.books", 12)
	v.SetDefault("page.members", 15)
	v.SetDefault("page.loans", 20)
}

func Load(path string) *Config {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 配置文件可缺省：默认值 + 环境变量即可起服务
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !os.IsNotExist(err) {
			log.Fatalf("read config: %v", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}
