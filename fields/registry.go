// Package fields is the registry of reusable field definitions.
package fields

import (
	"context"
	"database/sql"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/model"
)

type CreateField struct {
	Label    string          `json:"label"`
	Type     model.FieldType `json:"field_type"`
	Options  []string        `json:"options"`
	Required bool            `json:"required"`
}

// UpdateField is a partial update; nil means leave as is.
type UpdateField struct {
	Label    *string          `json:"label"`
	Type     *model.FieldType `json:"field_type"`
	Options  *[]string        `json:"options"`
	Required *bool            `json:"required"`
}

type Registry struct {
	db *sql.DB
}

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db}
}

// validate checks the label and the type-options coupling: single_choice
// must have at least one option, every other type must have none.
func validate(label string, typ model.FieldType, options []string) error {
	var errs *multierror.Error
	if label == "" {
		errs = multierror.Append(errs, errors.New("label must not be empty"))
	}
	switch {
	case !typ.Known():
		errs = multierror.Append(errs, errors.Errorf("unknown field_type %q", typ))
	case typ.TakesOptions() && len(options) == 0:
		errs = multierror.Append(errs, errors.New("single_choice fields require at least one option"))
	case !typ.TakesOptions() && len(options) > 0:
		errs = multierror.Append(errs, errors.Errorf("%s fields must not have options", typ))
	}
	return apperr.Validation(errs.ErrorOrNil())
}

func (reg *Registry) Create(ctx context.Context, in CreateField) (model.Field, error) {
	in.Label = strings.TrimSpace(in.Label)
	if err := validate(in.Label, in.Type, in.Options); err != nil {
		return model.Field{}, err
	}

	options, err := model.EncodeOptions(in.Options)
	if err != nil {
		return model.Field{}, errors.Wrap(err, "encode options")
	}

	field := model.Field{
		Label:    in.Label,
		Type:     in.Type,
		Options:  in.Options,
		Required: in.Required,
	}
	err = reg.db.QueryRowContext(ctx, `
		INSERT INTO field (label, field_type, options, required) VALUES (?, ?, ?, ?)
		RETURNING id`,
		field.Label,
		field.Type,
		options,
		field.Required,
	).Scan(&field.ID)
	if err != nil {
		return model.Field{}, errors.Wrap(err, "insert field")
	}
	return field, nil
}

func (reg *Registry) Get(ctx context.Context, id int) (model.Field, error) {
	field := model.Field{}
	var options string
	err := reg.db.QueryRowContext(ctx, `
		SELECT id, label, field_type, options, required
		FROM field
		WHERE id = ?`,
		id,
	).Scan(&field.ID, &field.Label, &field.Type, &options, &field.Required)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model.Field{}, apperr.NotFound("field", id)
	case err != nil:
		return model.Field{}, errors.Wrap(err, "select field")
	}

	field.Options, err = model.DecodeOptions(options)
	if err != nil {
		return model.Field{}, errors.Wrap(err, "decode options")
	}
	return field, nil
}

func (reg *Registry) List(ctx context.Context) ([]model.Field, error) {
	rows, err := reg.db.QueryContext(ctx, `
		SELECT id, label, field_type, options, required
		FROM field
		ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "select fields")
	}
	defer rows.Close()

	fields := []model.Field{}
	for rows.Next() {
		field := model.Field{}
		var options string
		err = rows.Scan(&field.ID, &field.Label, &field.Type, &options, &field.Required)
		if err != nil {
			return nil, errors.Wrap(err, "scan field")
		}

		field.Options, err = model.DecodeOptions(options)
		if err != nil {
			return nil, errors.Wrap(err, "decode options")
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

// Update applies a partial update, then re-validates the merged result so
// the type-options coupling cannot be broken through edits.
func (reg *Registry) Update(ctx context.Context, id int, patch UpdateField) (model.Field, error) {
	field, err := reg.Get(ctx, id)
	if err != nil {
		return model.Field{}, err
	}

	if patch.Label != nil {
		field.Label = strings.TrimSpace(*patch.Label)
	}
	if patch.Type != nil {
		field.Type = *patch.Type
	}
	if patch.Options != nil {
		field.Options = *patch.Options
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}

	if err := validate(field.Label, field.Type, field.Options); err != nil {
		return model.Field{}, err
	}

	options, err := model.EncodeOptions(field.Options)
	if err != nil {
		return model.Field{}, errors.Wrap(err, "encode options")
	}

	_, err = reg.db.ExecContext(ctx, `
		UPDATE field
		SET label = ?, field_type = ?, options = ?, required = ?
		WHERE id = ?`,
		field.Label,
		field.Type,
		options,
		field.Required,
		id,
	)
	if err != nil {
		return model.Field{}, errors.Wrap(err, "update field")
	}
	return field, nil
}
