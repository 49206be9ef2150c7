package database

import (
	"embed"
	"errors"
	"fmt"
	"net"
	"net/url"

	"scan-review-service/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded SQL migrations to PostgreSQL
type Migrator struct {
	m   *migrate.Migrate
	log *logrus.Logger
}

func NewMigrator(cfg config.DBConfig, log *logrus.Logger) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, MigrationURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	return &Migrator{m: m, log: log}, nil
}

// MigrationURL builds the pgx5:// URL golang-migrate expects
func MigrationURL(cfg config.DBConfig) string {
	u := url.URL{
		Scheme: "pgx5",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	m.logVersion()
	return nil
}

// Down rolls back the given number of migrations
func (m *Migrator) Down(steps int) error {
	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	m.logVersion()
	return nil
}

func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *Migrator) Close() {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil || dbErr != nil {
		m.log.Warnf("Failed to close migrator: source=%v database=%v", srcErr, dbErr)
	}
}

func (m *Migrator) logVersion() {
	version, dirty, err := m.Version()
	if err != nil {
		m.log.Warnf("Failed to read migration version: %+v", err)
		return
	}
	m.log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Migrations applied")
}
