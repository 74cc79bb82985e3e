package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/artpar/typekit/core/schema"
)

// ErrTemplateNotFound indicates a lookup for a serial name with no stored row.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateStore persists schema templates. Field lists, type parameters and
// annotations are stored as JSON columns; a content fingerprint per row makes
// drift between stored and live schemas cheap to detect.
type TemplateStore struct {
	db *DB
}

// NewTemplateStore creates a new template store.
func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// Save inserts or replaces a template under its serial name.
func (s *TemplateStore) Save(ctx context.Context, tpl schema.Template) error {
	if err := schema.Validate(tpl); err != nil {
		return err
	}

	fields, err := json.Marshal(tpl.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	params, err := json.Marshal(tpl.TypeParams)
	if err != nil {
		return fmt.Errorf("marshal type params: %w", err)
	}
	annotations, err := json.Marshal(tpl.Annotations)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (serial_name, type_params, fields, annotations, fingerprint, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(serial_name) DO UPDATE SET
		   type_params = excluded.type_params,
		   fields      = excluded.fields,
		   annotations = excluded.annotations,
		   fingerprint = excluded.fingerprint,
		   updated_at  = CURRENT_TIMESTAMP`,
		tpl.SerialName, string(params), string(fields), string(annotations), Fingerprint(tpl),
	)
	if err != nil {
		return fmt.Errorf("save template %s: %w", tpl.SerialName, err)
	}
	return nil
}

// SaveAll saves templates in order, stopping at the first error.
func (s *TemplateStore) SaveAll(ctx context.Context, templates []schema.Template) error {
	for _, tpl := range templates {
		if err := s.Save(ctx, tpl); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a template by serial name.
func (s *TemplateStore) Get(ctx context.Context, serialName string) (schema.Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT serial_name, type_params, fields, annotations FROM templates WHERE serial_name = ?`,
		serialName,
	)

	tpl, err := scanTemplate(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, serialName)
		}
		return schema.Template{}, err
	}
	return tpl, nil
}

// List retrieves all stored templates ordered by serial name.
func (s *TemplateStore) List(ctx context.Context) ([]schema.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT serial_name, type_params, fields, annotations FROM templates ORDER BY serial_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []schema.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

// Delete removes a template by serial name.
func (s *TemplateStore) Delete(ctx context.Context, serialName string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM templates WHERE serial_name = ?`, serialName,
	)
	if err != nil {
		return fmt.Errorf("delete template %s: %w", serialName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, serialName)
	}
	return nil
}

// Fingerprints returns the stored fingerprint per serial name.
func (s *TemplateStore) Fingerprints(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT serial_name, fingerprint FROM templates`,
	)
	if err != nil {
		return nil, fmt.Errorf("list fingerprints: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, fp string
		if err := rows.Scan(&name, &fp); err != nil {
			return nil, err
		}
		out[name] = fp
	}
	return out, rows.Err()
}

// Drifted compares stored fingerprints against live templates and returns
// the serial names whose stored content differs, plus names present only in
// the store.
func (s *TemplateStore) Drifted(ctx context.Context, live []schema.Template) ([]string, error) {
	stored, err := s.Fingerprints(ctx)
	if err != nil {
		return nil, err
	}

	var drifted []string
	liveNames := make(map[string]bool, len(live))
	for _, tpl := range live {
		liveNames[tpl.SerialName] = true
		fp, ok := stored[tpl.SerialName]
		if ok && fp != Fingerprint(tpl) {
			drifted = append(drifted, tpl.SerialName)
		}
	}
	for name := range stored {
		if !liveNames[name] {
			drifted = append(drifted, name)
		}
	}
	return drifted, nil
}

// Fingerprint digests a template's canonical JSON form.
func Fingerprint(tpl schema.Template) string {
	data, err := json.Marshal(tpl)
	if err != nil {
		// Template content is plain data; marshaling cannot fail.
		panic(err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func scanTemplate(scan func(...any) error) (schema.Template, error) {
	var tpl schema.Template
	var params, fields, annotations string

	if err := scan(&tpl.SerialName, &params, &fields, &annotations); err != nil {
		return schema.Template{}, err
	}

	if err := json.Unmarshal([]byte(params), &tpl.TypeParams); err != nil {
		return schema.Template{}, fmt.Errorf("unmarshal type params for %s: %w", tpl.SerialName, err)
	}
	if err := json.Unmarshal([]byte(fields), &tpl.Fields); err != nil {
		return schema.Template{}, fmt.Errorf("unmarshal fields for %s: %w", tpl.SerialName, err)
	}
	if err := json.Unmarshal([]byte(annotations), &tpl.Annotations); err != nil {
		return schema.Template{}, fmt.Errorf("unmarshal annotations for %s: %w", tpl.SerialName, err)
	}

	return tpl, nil
}
