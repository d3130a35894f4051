package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Config holds the connection parameters for the Postgres-backed
// subscriber store.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// PostgresStore is a SubscriberStore backed by Postgres. Subscriber,
// APN and MIP6 rows are provisioned by an external surface; this type
// only reads them and writes back the three mutable fields the core
// owns (SQN, serving-node identity, MIP6 destination fields).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool, verifies it, and ensures
// the schema this store depends on exists.
func NewPostgresStore(cfg *Config) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
	return newPostgresStore(dsn, cfg.MaxConns, cfg.MaxIdle)
}

// NewPostgresStoreFromDSN opens a connection pool from a libpq-style
// connection string (the process config's store.dsn field), rather
// than building one from discrete fields.
func NewPostgresStoreFromDSN(dsn string) (*PostgresStore, error) {
	return newPostgresStore(dsn, 10, 2)
}

func newPostgresStore(dsn string, maxConns, maxIdle int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return s, nil
}

// ensureSchema creates the tables this store reads and writes if
// they're not already present. Row provisioning (INSERTs for new
// subscribers/APNs) is the job of the external REST surface; this
// only guarantees the columns the core touches exist.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hss_subscribers (
			imsi VARCHAR(15) PRIMARY KEY,
			msisdn VARCHAR(15),
			stn_sr VARCHAR(15),
			k BYTEA NOT NULL,
			opc BYTEA NOT NULL,
			amf BYTEA NOT NULL,
			sqn BIGINT NOT NULL DEFAULT 0,
			roaming_allowed BOOLEAN NOT NULL DEFAULT FALSE,
			odb SMALLINT NOT NULL DEFAULT 0,
			schar SMALLINT NOT NULL DEFAULT 1,
			ambr_max_ul BIGINT NOT NULL DEFAULT 0,
			ambr_max_dl BIGINT NOT NULL DEFAULT 0,
			default_apn INTEGER NOT NULL DEFAULT 0,
			mme_hostname VARCHAR(255) NOT NULL DEFAULT '',
			mme_realm VARCHAR(255) NOT NULL DEFAULT '',
			ue_srvcc_support SMALLINT NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS hss_apns (
			imsi VARCHAR(15) NOT NULL REFERENCES hss_subscribers(imsi),
			context_id INTEGER NOT NULL,
			service_selection VARCHAR(100) NOT NULL,
			pdn_type SMALLINT NOT NULL,
			qci SMALLINT NOT NULL,
			priority_level SMALLINT NOT NULL,
			ambr_max_ul BIGINT NOT NULL DEFAULT 0,
			ambr_max_dl BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (imsi, context_id)
		);`,
		`CREATE TABLE IF NOT EXISTS hss_mip6 (
			imsi VARCHAR(15) NOT NULL REFERENCES hss_subscribers(imsi),
			context_id INTEGER NOT NULL,
			service_selection VARCHAR(100) NOT NULL,
			destination_realm VARCHAR(255) NOT NULL DEFAULT '',
			destination_host VARCHAR(255) NOT NULL DEFAULT '',
			PRIMARY KEY (imsi, context_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) GetByIMSI(ctx context.Context, imsi string) (*Subscriber, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT imsi, msisdn, stn_sr, k, opc, amf, sqn, roaming_allowed, odb, schar,
		       ambr_max_ul, ambr_max_dl, default_apn, mme_hostname, mme_realm, ue_srvcc_support
		FROM hss_subscribers WHERE imsi = $1`, imsi)

	sub := &Subscriber{}
	var odb, srvcc int
	if err := row.Scan(&sub.IMSI, &sub.MSISDN, &sub.STNSR, &sub.K, &sub.OPc, &sub.AMF, &sub.SQN,
		&sub.RoamingAllowed, &odb, &sub.SCHAR, &sub.AMBRMaxUL, &sub.AMBRMaxDL, &sub.DefaultAPN,
		&sub.MMEHostname, &sub.MMERealm, &srvcc); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan subscriber: %w", err)
	}
	sub.ODB = ODB(odb)
	sub.UESRVCCSupport = Tri(srvcc)

	apnRows, err := s.db.QueryContext(ctx, `
		SELECT context_id, service_selection, pdn_type, qci, priority_level, ambr_max_ul, ambr_max_dl
		FROM hss_apns WHERE imsi = $1 ORDER BY context_id`, imsi)
	if err != nil {
		return nil, fmt.Errorf("store: query apns: %w", err)
	}
	defer apnRows.Close()
	for apnRows.Next() {
		var a APN
		if err := apnRows.Scan(&a.ContextID, &a.ServiceSelection, &a.PDNType, &a.QCI, &a.PriorityLevel,
			&a.AMBRMaxUL, &a.AMBRMaxDL); err != nil {
			return nil, fmt.Errorf("store: scan apn: %w", err)
		}
		sub.APNs = append(sub.APNs, a)
	}
	if err := apnRows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate apns: %w", err)
	}

	mipRows, err := s.db.QueryContext(ctx, `
		SELECT context_id, service_selection, destination_realm, destination_host
		FROM hss_mip6 WHERE imsi = $1 ORDER BY context_id`, imsi)
	if err != nil {
		return nil, fmt.Errorf("store: query mip6: %w", err)
	}
	defer mipRows.Close()
	for mipRows.Next() {
		var m MIP6
		if err := mipRows.Scan(&m.ContextID, &m.ServiceSelection, &m.DestinationRealm, &m.DestinationHost); err != nil {
			return nil, fmt.Errorf("store: scan mip6: %w", err)
		}
		sub.MIP6s = append(sub.MIP6s, m)
	}
	if err := mipRows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate mip6: %w", err)
	}

	return sub, nil
}

func (s *PostgresStore) SetSQN(ctx context.Context, imsi string, sqn uint64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE hss_subscribers SET sqn = $1 WHERE imsi = $2`, sqn, imsi)
	return checkRowUpdated(res, err)
}

func (s *PostgresStore) SetMME(ctx context.Context, imsi, host, realm string, srvcc Tri) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hss_subscribers SET mme_hostname = $1, mme_realm = $2, ue_srvcc_support = $3 WHERE imsi = $4`,
		host, realm, int(srvcc), imsi)
	return checkRowUpdated(res, err)
}

func (s *PostgresStore) SetMIP6(ctx context.Context, imsi string, contextID uint32, host, realm string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hss_mip6 SET destination_host = $1, destination_realm = $2 WHERE imsi = $3 AND context_id = $4`,
		host, realm, imsi, contextID)
	if err != nil {
		return fmt.Errorf("store: update mip6: %w", err)
	}
	// No matching row is a no-op, per the open behaviour decision for
	// the Notify handler: this store never invents a row here.
	_, _ = res.RowsAffected()
	return nil
}

func checkRowUpdated(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("store: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
