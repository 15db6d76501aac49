package config

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/quiver-seismic/quiver/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewSchemaMigrator returns a migrator for the configuration schema in db.
func NewSchemaMigrator(db *sql.DB, logger *zap.SugaredLogger) *migrate.Migrator {
	return migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", ""), logger)
}

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens (or creates) a SQLite configuration database and
// brings its schema up to date.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := NewSchemaMigrator(db, nil).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate configuration schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	var baseDir sql.NullString
	err := s.db.QueryRow(`
		SELECT d.base_dir FROM data_configs d
		JOIN configs c ON c.id = d.config_id
		WHERE c.name = 'default'
	`).Scan(&baseDir)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("no configuration found in %s", s.dbPath)
	case err != nil:
		return nil, fmt.Errorf("failed to load data config: %w", err)
	}
	config.Data.BaseDir = baseDir.String

	server, err := s.GetServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = *server

	bodies, err := s.GetBodies()
	if err != nil {
		return nil, fmt.Errorf("failed to load bodies: %w", err)
	}
	config.Bodies = bodies

	config.ApplyDefaults()
	return config, nil
}

// GetServerConfig returns server configuration from the database
func (s *SQLiteProvider) GetServerConfig() (*ServerData, error) {
	query := `
		SELECT listen_addr, port, cert_file, key_file, request_timeout_ms, workers
		FROM server_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var listenAddr, cert, key sql.NullString
	var port, timeoutMS, workers sql.NullInt64
	err := s.db.QueryRow(query).Scan(&listenAddr, &port, &cert, &key, &timeoutMS, &workers)
	if errors.Is(err, sql.ErrNoRows) {
		return &ServerData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}

	return &ServerData{
		ListenAddr:     listenAddr.String,
		Port:           int(port.Int64),
		Cert:           cert.String,
		Key:            key.String,
		RequestTimeout: time.Duration(timeoutMS.Int64) * time.Millisecond,
		Workers:        int(workers.Int64),
	}, nil
}

// GetBodies returns body configurations from the database. NULL detector
// parameters fall back to the body's default profile.
func (s *SQLiteProvider) GetBodies() ([]BodyData, error) {
	query := `
		SELECT name, catalog_file, train_dir, test_dir,
		       stalta_sta_seconds, stalta_lta_seconds, stalta_trigger_on, stalta_resample_hz,
		       spectrogram_lowpass_hz, spectrogram_highpass_hz, spectrogram_sigma, spectrogram_resample_hz,
		       segmentation_lowpass_hz, segmentation_highpass_hz, segmentation_sigma,
		       segmentation_prominence, segmentation_resample_hz
		FROM bodies
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bodies: %w", err)
	}
	defer rows.Close()

	var bodies []BodyData
	for rows.Next() {
		var name string
		var catalogFile, trainDir, testDir sql.NullString
		var params [13]sql.NullFloat64

		err := rows.Scan(
			&name, &catalogFile, &trainDir, &testDir,
			&params[0], &params[1], &params[2], &params[3],
			&params[4], &params[5], &params[6], &params[7],
			&params[8], &params[9], &params[10], &params[11], &params[12],
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan body row: %w", err)
		}

		b := DefaultBody(name)
		b.CatalogFile = catalogFile.String
		b.TrainDir = trainDir.String
		b.TestDir = testDir.String

		targets := b.paramFields()
		for i, p := range params {
			if p.Valid {
				*targets[i] = p.Float64
			}
		}
		bodies = append(bodies, b)
	}

	return bodies, rows.Err()
}

// paramFields lists the detector parameters in bodies table column order
func (b *BodyData) paramFields() [13]*float64 {
	return [13]*float64{
		&b.STALTA.STASeconds, &b.STALTA.LTASeconds, &b.STALTA.TriggerOn, &b.STALTA.ResampleHz,
		&b.Spectrogram.LowpassHz, &b.Spectrogram.HighpassHz, &b.Spectrogram.Sigma, &b.Spectrogram.ResampleHz,
		&b.Segmentation.LowpassHz, &b.Segmentation.HighpassHz, &b.Segmentation.Sigma,
		&b.Segmentation.Prominence, &b.Segmentation.ResampleHz,
	}
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.upsertConfig(tx, "default")
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO data_configs (config_id, base_dir) VALUES (?, ?)`,
		configID, nullString(configData.Data.BaseDir)); err != nil {
		return fmt.Errorf("failed to insert data config: %w", err)
	}

	srv := configData.Server
	if _, err := tx.Exec(`
		INSERT INTO server_configs (config_id, listen_addr, port, cert_file, key_file, request_timeout_ms, workers)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, configID, nullString(srv.ListenAddr), srv.Port, nullString(srv.Cert), nullString(srv.Key),
		srv.RequestTimeout.Milliseconds(), srv.Workers); err != nil {
		return fmt.Errorf("failed to insert server config: %w", err)
	}

	for _, body := range configData.Bodies {
		if err := s.insertBody(tx, configID, &body); err != nil {
			return fmt.Errorf("failed to insert body %s: %w", body.Name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteProvider) upsertConfig(tx *sql.Tx, name string) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO configs (name, created_at, updated_at) VALUES (?, datetime('now'), datetime('now'))
		ON CONFLICT(name) DO UPDATE SET updated_at = datetime('now')
	`, name)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(`SELECT id FROM configs WHERE name = ?`, name).Scan(&id)
	return id, err
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	queries := []string{
		"DELETE FROM bodies WHERE config_id = ?",
		"DELETE FROM server_configs WHERE config_id = ?",
		"DELETE FROM data_configs WHERE config_id = ?",
	}

	for _, query := range queries {
		if _, err := tx.Exec(query, configID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertBody(tx *sql.Tx, configID int64, body *BodyData) error {
	query := `
		INSERT INTO bodies (
			config_id, name, catalog_file, train_dir, test_dir,
			stalta_sta_seconds, stalta_lta_seconds, stalta_trigger_on, stalta_resample_hz,
			spectrogram_lowpass_hz, spectrogram_highpass_hz, spectrogram_sigma, spectrogram_resample_hz,
			segmentation_lowpass_hz, segmentation_highpass_hz, segmentation_sigma,
			segmentation_prominence, segmentation_resample_hz
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []any{
		configID, body.Name,
		nullString(body.CatalogFile), nullString(body.TrainDir), nullString(body.TestDir),
	}
	for _, p := range body.paramFields() {
		args = append(args, *p)
	}

	_, err := tx.Exec(query, args...)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
