// Package responses accepts answer sets against a form and persists them
// once every answered key checks out against the form's field membership.
package responses

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/forms"
	"github.com/mbolis/quick-forms/model"
)

type Validator struct {
	db    *sql.DB
	forms *forms.Composer
}

func NewValidator(db *sql.DB, composer *forms.Composer) *Validator {
	return &Validator{db, composer}
}

var reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Submit persists one answer set for the given form. Every answer key must
// be one of the form's field ids (string-compared, transport keys are
// strings); a single offending key rejects the whole submission. Values
// are checked against their field's declared type, then stored stringified.
func (v *Validator) Submit(ctx context.Context, formID int, answers map[string]any) (model.Response, error) {
	if len(answers) == 0 {
		return model.Response{}, apperr.Validationf("at least one answer is required")
	}

	form, err := v.forms.GetByID(ctx, formID)
	if apperr.IsNotFound(err) {
		return model.Response{}, apperr.Validationf("form %d does not exist", formID)
	}
	if err != nil {
		return model.Response{}, err
	}

	details, err := v.forms.Details(ctx, formID)
	if err != nil {
		return model.Response{}, err
	}
	byKey := make(map[string]model.Field, len(details.Fields))
	for _, field := range details.Fields {
		byKey[strconv.Itoa(field.ID)] = field
	}
	member := make(map[string]bool, len(form.FieldIDs))
	for _, id := range form.FieldIDs {
		member[strconv.Itoa(id)] = true
	}

	// sorted keys keep the first offending key deterministic
	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]string, len(answers))
	for _, key := range keys {
		if !member[key] {
			return model.Response{}, apperr.Validationf("field %s is not part of form %d", key, formID)
		}

		value := normalize(answers[key])
		if field, ok := byKey[key]; ok {
			if err := checkValue(field, value); err != nil {
				return model.Response{}, err
			}
		}
		normalized[key] = value
	}

	encoded, err := model.EncodeAnswers(normalized)
	if err != nil {
		return model.Response{}, errors.Wrap(err, "encode answers")
	}

	response := model.Response{
		FormID:      formID,
		Answers:     normalized,
		SubmittedAt: time.Now(),
	}
	err = v.db.QueryRowContext(ctx, `
		INSERT INTO response (form_id, answers, submitted_at) VALUES (?, ?, ?)
		RETURNING id`,
		response.FormID,
		encoded,
		response.SubmittedAt,
	).Scan(&response.ID)
	if err != nil {
		return model.Response{}, errors.Wrap(err, "insert response")
	}
	return response, nil
}

// normalize flattens a decoded JSON scalar to its stored string form.
// Storage is deliberately lossy; the field's declared type keeps the
// original meaning.
func normalize(value any) string {
	switch value := value.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}

func checkValue(field model.Field, value string) error {
	switch field.Type {
	case model.FieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return apperr.Validationf("field %d expects a number, got %q", field.ID, value)
		}
	case model.FieldSingleChoice:
		for _, option := range field.Options {
			if option == value {
				return nil
			}
		}
		return apperr.Validationf("field %d expects one of its options, got %q", field.ID, value)
	case model.FieldEmail:
		if !reEmail.MatchString(value) {
			return apperr.Validationf("field %d expects an email address", field.ID)
		}
	}
	return nil
}

func (v *Validator) ListByForm(ctx context.Context, formID int) ([]model.Response, error) {
	if _, err := v.forms.GetByID(ctx, formID); err != nil {
		return nil, err
	}

	rows, err := v.db.QueryContext(ctx, `
		SELECT id, form_id, answers, submitted_at
		FROM response
		WHERE form_id = ?
		ORDER BY id`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		response := model.Response{}
		var encoded string
		err = rows.Scan(&response.ID, &response.FormID, &encoded, &response.SubmittedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scan response")
		}

		response.Answers, err = model.DecodeAnswers(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "decode answers")
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}
