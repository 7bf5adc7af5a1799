// Package registry stores form manifests in SQLite, keyed by signature,
// together with the outcome of identity checks per consumer environment.
// A consumer that has verified a form once can look the result up instead
// of repeating the check.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/notargets/tabulate/identity"
	"github.com/notargets/tabulate/manifest"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no manifest is stored under a signature
var ErrNotFound = errors.New("form not registered")

const schema = `
CREATE TABLE IF NOT EXISTS forms (
	signature TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	version TEXT NOT NULL,
	manifest TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS verifications (
	signature TEXT NOT NULL REFERENCES forms(signature) ON DELETE CASCADE,
	consumer TEXT NOT NULL,
	ok INTEGER NOT NULL,
	checked_at DATETIME NOT NULL,
	PRIMARY KEY (signature, consumer)
);
`

// Registry is a manifest store. It is safe for concurrent use.
type Registry struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Option configures Open
type Option func(*Registry)

// WithLogger sets the logger used for writes
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// Open creates or opens the registry at path. ":memory:" opens a private
// in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*Registry, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	r := &Registry{db: db, path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	r.logger.Debug("registry opened", zap.String("path", path))
	return r, nil
}

// Close closes the database
func (r *Registry) Close() error {
	return r.db.Close()
}

// Path returns the database path
func (r *Registry) Path() string { return r.path }

// Put validates and stores a manifest, replacing any previous one with the
// same signature. Replacing a manifest drops its recorded verifications.
func (r *Registry) Put(ctx context.Context, version identity.Version, f manifest.FormManifest) error {
	if err := f.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM verifications WHERE signature = ?`, f.Signature); err != nil {
		return fmt.Errorf("failed to clear verifications of %q: %w", f.Signature, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO forms (signature, name, version, manifest, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			name = excluded.name, version = excluded.version,
			manifest = excluded.manifest, updated_at = excluded.updated_at`,
		f.Signature, f.Name, version.String(), string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store %q: %w", f.Signature, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.logger.Info("form registered",
		zap.String("signature", f.Signature),
		zap.String("name", f.Name),
		zap.Stringer("version", version))
	return nil
}

// PutAll stores every form of a manifest in one call
func (r *Registry) PutAll(ctx context.Context, m *manifest.Manifest) error {
	for _, f := range m.Forms {
		if err := r.Put(ctx, m.Version, f); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the manifest stored under signature and the version it was
// generated for
func (r *Registry) Get(ctx context.Context, signature string) (manifest.FormManifest, identity.Version, error) {
	var (
		f       manifest.FormManifest
		v       identity.Version
		version string
		data    string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT version, manifest FROM forms WHERE signature = ?`, signature).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return f, v, fmt.Errorf("%q: %w", signature, ErrNotFound)
	}
	if err != nil {
		return f, v, fmt.Errorf("failed to query %q: %w", signature, err)
	}
	if v, err = identity.ParseVersion(version); err != nil {
		return f, v, err
	}
	if err := yaml.Unmarshal([]byte(data), &f); err != nil {
		return f, v, fmt.Errorf("stored manifest of %q is corrupt: %w", signature, err)
	}
	return f, v, nil
}

// Signatures lists every stored signature in order
func (r *Registry) Signatures(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT signature FROM forms ORDER BY signature`)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a manifest and its verifications
func (r *Registry) Delete(ctx context.Context, signature string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE signature = ?`, signature)
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", signature, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", signature, ErrNotFound)
	}
	r.logger.Info("form removed", zap.String("signature", signature))
	return nil
}

// RecordVerification stores the outcome of checking signature against the
// consumer environment identified by consumer
func (r *Registry) RecordVerification(ctx context.Context, signature string, consumer identity.Hash, ok bool) error {
	flag := 0
	if ok {
		flag = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verifications (signature, consumer, ok, checked_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(signature, consumer) DO UPDATE SET ok = excluded.ok, checked_at = excluded.checked_at`,
		signature, consumer.String(), flag, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record verification of %q: %w", signature, err)
	}
	r.logger.Debug("verification recorded",
		zap.String("signature", signature),
		zap.Stringer("consumer", consumer),
		zap.Bool("ok", ok))
	return nil
}

// Verified returns the recorded outcome for signature and consumer. found
// is false when no check has been recorded.
func (r *Registry) Verified(ctx context.Context, signature string, consumer identity.Hash) (ok, found bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT ok FROM verifications WHERE signature = ? AND consumer = ?`,
		signature, consumer.String()).Scan(&ok)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to query verification of %q: %w", signature, err)
	}
	return ok, true, nil
}

// Verify checks a stored form against env and the consumer's element hashes
// and records the outcome. A check already recorded for this consumer is
// returned without repeating it.
func (r *Registry) Verify(ctx context.Context, signature string, env identity.Environment, elements []identity.Hash) error {
	consumer := ConsumerHash(env, elements)
	if ok, found, err := r.Verified(ctx, signature, consumer); err != nil {
		return err
	} else if found && ok {
		return nil
	}

	f, version, err := r.Get(ctx, signature)
	if err != nil {
		return err
	}
	checkErr := env.CheckVersion(version)
	if checkErr == nil {
		checkErr = f.Check(env, elements)
	}
	if err := r.RecordVerification(ctx, signature, consumer, checkErr == nil); err != nil {
		return err
	}
	return checkErr
}

// ConsumerHash identifies a consumer environment together with its element
// hashes
func ConsumerHash(env identity.Environment, elements []identity.Hash) identity.Hash {
	parts := []string{env.Version.String(), env.CoordinateElement.String()}
	for _, h := range elements {
		parts = append(parts, h.String())
	}
	return identity.HashOf(parts...)
}
