package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// CatalogConfig содержит параметры подключения к каталогу обоев.
type CatalogConfig struct {
	// Driver - sqlite3 или postgres.
	Driver string `yaml:"driver,omitempty" envconfig:"DB_DRIVER" validate:"oneof=sqlite3 postgres pgx"`

	// DSN - готовая строка подключения; имеет приоритет над остальными полями.
	DSN string `yaml:"dsn,omitempty" envconfig:"DB_DSN"`

	Host     string `yaml:"host,omitempty" envconfig:"DB_HOST"`
	Port     int    `yaml:"port,omitempty" envconfig:"DB_PORT" validate:"omitempty,min=1,max=65535"`
	User     string `yaml:"user,omitempty" envconfig:"DB_USER"`
	Password string `yaml:"password,omitempty" envconfig:"DB_PASSWORD"`

	// Database - имя базы (для sqlite3 - путь к файлу).
	Database string `yaml:"database,omitempty" envconfig:"DB_NAME" validate:"required_without=DSN"`

	SSLMode string `yaml:"sslmode,omitempty" envconfig:"DB_SSLMODE"`
}

// DefaultCatalogConfig возвращает подключение по умолчанию: локальный SQLite файл.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Driver:   "sqlite3",
		Host:     "localhost",
		User:     "root",
		Database: "wallpaper_db.sqlite",
		SSLMode:  "disable",
	}
}

// IsPostgres сообщает, настроен ли драйвер PostgreSQL.
func (c CatalogConfig) IsPostgres() bool {
	return c.Driver == "postgres" || c.Driver == "pgx"
}

// ConnString строит строку подключения для database/sql.
func (c CatalogConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	if !c.IsPostgres() {
		return c.Database
	}

	host := c.Host
	if c.Port > 0 {
		host = host + ":" + strconv.Itoa(c.Port)
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

// RedactedConnString возвращает ConnString со скрытым паролем для вывода в терминал и логи.
func (c CatalogConfig) RedactedConnString() string {
	conn := c.ConnString()
	if !c.IsPostgres() {
		return conn
	}

	if u, err := url.Parse(conn); err == nil && u.Scheme != "" {
		if q := u.Query(); q.Has("password") {
			q.Set("password", "xxxxx")
			u.RawQuery = q.Encode()
		}
		return u.Redacted()
	}

	// Форма key=value (libpq).
	fields := strings.Fields(conn)
	kept := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), "password=") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// Name возвращает имя каталога для заголовков и логов.
func (c CatalogConfig) Name() string {
	if c.Database != "" {
		return c.Database
	}
	return fmt.Sprintf("%s-dsn", c.Driver)
}
