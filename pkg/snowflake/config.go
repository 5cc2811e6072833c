// Package snowflake implements the lineage collaborators on top of a
// Snowflake warehouse: a catalog [Classifier] backed by INFORMATION_SCHEMA and
// a one-hop lineage [Source] backed by SNOWFLAKE.CORE.GET_LINEAGE.
package snowflake

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/matzehuels/lineagewalk/pkg/errors"
)

// Authenticator names accepted in [Config].
const (
	AuthPassword        = "snowflake"
	AuthExternalBrowser = "externalbrowser"
	AuthKeyPair         = "snowflake_jwt"
)

// Config holds connection settings.
type Config struct {
	Account        string        `koanf:"account"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	Role           string        `koanf:"role"`
	Warehouse      string        `koanf:"warehouse"`
	Database       string        `koanf:"database"`
	Authenticator  string        `koanf:"authenticator"`    // snowflake (default), externalbrowser, snowflake_jwt
	PrivateKeyPath string        `koanf:"private_key_path"` // PKCS#8 PEM, for snowflake_jwt
	DSN            string        `koanf:"dsn"`              // Used verbatim when set
	LoginTimeout   time.Duration `koanf:"login_timeout"`
}

// Validate checks that enough is set to open a connection.
func (c Config) Validate() error {
	if c.DSN != "" {
		return nil
	}
	if c.Account == "" {
		return errors.New(errors.ErrCodeConfig, "snowflake.account is required")
	}
	if c.User == "" {
		return errors.New(errors.ErrCodeConfig, "snowflake.user is required")
	}
	switch strings.ToLower(c.Authenticator) {
	case "", AuthPassword:
		if c.Password == "" {
			return errors.New(errors.ErrCodeConfig, "snowflake.password is required for password authentication")
		}
	case AuthExternalBrowser:
	case AuthKeyPair:
		if c.PrivateKeyPath == "" {
			return errors.New(errors.ErrCodeConfig, "snowflake.private_key_path is required for %s", AuthKeyPair)
		}
	default:
		return errors.New(errors.ErrCodeConfig, "unsupported snowflake.authenticator %q", c.Authenticator)
	}
	return nil
}

// BuildDSN renders the driver DSN for c.
func (c Config) BuildDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	if err := c.Validate(); err != nil {
		return "", err
	}
	cfg := &gosnowflake.Config{
		Account:      c.Account,
		User:         c.User,
		Password:     c.Password,
		Role:         c.Role,
		Warehouse:    c.Warehouse,
		Database:     c.Database,
		LoginTimeout: c.LoginTimeout,
		Application:  "lineagewalk",
	}
	switch strings.ToLower(c.Authenticator) {
	case AuthExternalBrowser:
		cfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	case AuthKeyPair:
		key, err := loadPrivateKey(c.PrivateKeyPath)
		if err != nil {
			return "", err
		}
		cfg.Authenticator = gosnowflake.AuthTypeJwt
		cfg.PrivateKey = key
	default:
		cfg.Authenticator = gosnowflake.AuthTypeSnowflake
	}
	dsn, err := gosnowflake.DSN(cfg)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, err, "build snowflake dsn")
	}
	return dsn, nil
}

// Open connects to Snowflake and verifies the session with a ping.
func Open(ctx context.Context, c Config) (*sql.DB, error) {
	dsn, err := c.BuildDSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "open snowflake connection")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to snowflake as %s", c.describe())
	}
	return db, nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read private key")
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New(errors.ErrCodeConfig, "%s: no PEM block found", path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse private key %s", path)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New(errors.ErrCodeConfig, "%s: not an RSA key", path)
	}
	return key, nil
}

// describe renders the connection target for logs, without credentials.
func (c Config) describe() string {
	if c.DSN != "" {
		return "dsn"
	}
	return fmt.Sprintf("%s@%s", c.User, c.Account)
}
