// Package forms assembles forms out of registered fields and resolves
// them back by id or shareable link.
package forms

import (
	"context"
	"database/sql"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/link"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

type CreateForm struct {
	Title    string `json:"title"`
	FieldIDs []int  `json:"field_ids"`
}

type Composer struct {
	db       *sql.DB
	registry *fields.Registry
	links    link.Generator
}

func NewComposer(db *sql.DB, registry *fields.Registry, links link.Generator) *Composer {
	return &Composer{db, registry, links}
}

func validate(title string, fieldIDs []int) error {
	var errs *multierror.Error
	if title == "" {
		errs = multierror.Append(errs, errors.New("title must not be empty"))
	}
	if len(fieldIDs) == 0 {
		errs = multierror.Append(errs, errors.New("at least one field is required"))
	}
	seen := make(map[int]bool, len(fieldIDs))
	for _, id := range fieldIDs {
		if seen[id] {
			errs = multierror.Append(errs, errors.Errorf("duplicate field id %d", id))
			break
		}
		seen[id] = true
	}
	return apperr.Validation(errs.ErrorOrNil())
}

// Create validates the title and field membership, then persists the form
// with a freshly generated unique link. Every field id must resolve
// through the registry before anything is written.
func (c *Composer) Create(ctx context.Context, in CreateForm) (model.Form, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in.Title, in.FieldIDs); err != nil {
		return model.Form{}, err
	}

	for _, id := range in.FieldIDs {
		_, err := c.registry.Get(ctx, id)
		if apperr.IsNotFound(err) {
			return model.Form{}, apperr.Validationf("field %d does not exist", id)
		}
		if err != nil {
			return model.Form{}, err
		}
	}

	for attempt := 0; attempt < c.links.Attempts; attempt++ {
		token := c.links.NewToken()

		var taken bool
		err := c.db.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM form WHERE unique_link = ?)`,
			token,
		).Scan(&taken)
		if err != nil {
			return model.Form{}, errors.Wrap(err, "probe link")
		}
		if taken {
			continue
		}

		form, err := c.insert(ctx, in, token)
		if isLinkCollision(err) {
			// lost the probe-then-insert race, pick another token
			continue
		}
		return form, err
	}
	return model.Form{}, apperr.ErrLinkExhausted
}

func (c *Composer) insert(ctx context.Context, in CreateForm, token string) (model.Form, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	form := model.Form{
		Title:      in.Title,
		UniqueLink: token,
		FieldIDs:   in.FieldIDs,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO form (title, unique_link) VALUES (?, ?)
		RETURNING id`,
		form.Title,
		form.UniqueLink,
	).Scan(&form.ID)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "insert form")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_field (form_id, field_id, position)
		VALUES (?, ?, ?)`)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "insert form.fields.prepare")
	}
	defer stmt.Close()

	for position, fieldID := range in.FieldIDs {
		_, err = stmt.ExecContext(ctx, form.ID, fieldID, position)
		if err != nil {
			return model.Form{}, errors.Wrap(err, "insert form.fields")
		}
	}

	err = tx.Commit()
	if err != nil {
		return model.Form{}, errors.Wrap(err, "insert form.commit")
	}
	return form, nil
}

// isLinkCollision recognizes the unique index on form.unique_link firing
// at write time, the storage-level backstop for the probe-then-insert race.
func isLinkCollision(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (c *Composer) GetByID(ctx context.Context, id int) (model.Form, error) {
	return c.get(ctx, "f.id = ?", id)
}

func (c *Composer) GetByLink(ctx context.Context, token string) (model.Form, error) {
	return c.get(ctx, "f.unique_link = ?", token)
}

func (c *Composer) get(ctx context.Context, where string, key any) (model.Form, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT f.id, f.title, f.unique_link, ff.field_id
		FROM form f
		INNER JOIN form_field ff ON (f.id = ff.form_id)
		WHERE `+where+`
		ORDER BY ff.position`,
		key,
	)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "select form")
	}
	defer rows.Close()

	if !rows.Next() {
		return model.Form{}, apperr.NotFound("form", key)
	}

	form := model.Form{}
	for {
		var fieldID int
		err = rows.Scan(&form.ID, &form.Title, &form.UniqueLink, &fieldID)
		if err != nil {
			return model.Form{}, errors.Wrap(err, "scan form")
		}
		form.FieldIDs = append(form.FieldIDs, fieldID)

		if !rows.Next() {
			break
		}
	}
	return form, rows.Err()
}

func (c *Composer) List(ctx context.Context) ([]model.Form, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT
			f.id, f.title, f.unique_link,
			(SELECT COUNT(*) FROM response r WHERE r.form_id = f.id),
			ff.field_id
		FROM form f
		INNER JOIN form_field ff ON (f.id = ff.form_id)
		ORDER BY f.id, ff.position`)
	if err != nil {
		return nil, errors.Wrap(err, "select forms")
	}
	defer rows.Close()

	forms := []model.Form{}
	for rows.Next() {
		form := model.Form{}
		var fieldID int
		err = rows.Scan(&form.ID, &form.Title, &form.UniqueLink, &form.Responses, &fieldID)
		if err != nil {
			return nil, errors.Wrap(err, "scan forms")
		}

		lastIdx := len(forms) - 1
		if lastIdx > -1 && forms[lastIdx].ID == form.ID {
			forms[lastIdx].FieldIDs = append(forms[lastIdx].FieldIDs, fieldID)
		} else {
			form.FieldIDs = []int{fieldID}
			forms = append(forms, form)
		}
	}
	return forms, rows.Err()
}

// Details resolves the form's member fields live through the registry,
// preserving position order. A field that has gone missing since the form
// was created is skipped and logged, never an error.
func (c *Composer) Details(ctx context.Context, id int) (model.FormDetails, error) {
	form, err := c.GetByID(ctx, id)
	if err != nil {
		return model.FormDetails{}, err
	}
	return c.resolve(ctx, form)
}

func (c *Composer) DetailsByLink(ctx context.Context, token string) (model.FormDetails, error) {
	form, err := c.GetByLink(ctx, token)
	if err != nil {
		return model.FormDetails{}, err
	}
	return c.resolve(ctx, form)
}

func (c *Composer) resolve(ctx context.Context, form model.Form) (model.FormDetails, error) {
	details := model.FormDetails{
		ID:         form.ID,
		Title:      form.Title,
		UniqueLink: form.UniqueLink,
		Fields:     []model.Field{},
	}
	for _, fieldID := range form.FieldIDs {
		field, err := c.registry.Get(ctx, fieldID)
		if apperr.IsNotFound(err) {
			log.Warnf("form.details: form %d references missing field %d", form.ID, fieldID)
			continue
		}
		if err != nil {
			return model.FormDetails{}, err
		}
		details.Fields = append(details.Fields, field)
	}
	return details, nil
}

// Delete removes the form along with its membership rows and responses.
func (c *Composer) Delete(ctx context.Context, id int) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM response WHERE form_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete form.responses")
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM form_field WHERE form_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete form.fields")
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete form.verify")
	}
	if n < 1 {
		return apperr.NotFound("form", id)
	}

	return errors.Wrap(tx.Commit(), "delete form.commit")
}
