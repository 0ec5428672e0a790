package forms_test

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/forms"
	"github.com/mbolis/quick-forms/link"
	"github.com/mbolis/quick-forms/model"
)

func setup(t *testing.T) (*sql.DB, *fields.Registry, *forms.Composer) {
	t.Helper()
	db, err := database.Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := fields.NewRegistry(db)
	composer := forms.NewComposer(db, registry, link.NewGenerator())
	return db, registry, composer
}

func newField(t *testing.T, registry *fields.Registry, label string) model.Field {
	t.Helper()
	field, err := registry.Create(context.Background(), fields.CreateField{
		Label: label,
		Type:  model.FieldText,
	})
	require.NoError(t, err)
	return field
}

func countForms(t *testing.T, db *sql.DB) (n int) {
	t.Helper()
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM form`).Scan(&n))
	return
}

func TestCreateForm_EmptyFieldIDs(t *testing.T) {
	db, _, composer := setup(t)

	_, err := composer.Create(context.Background(), forms.CreateForm{Title: "T"})
	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, countForms(t, db))
}

func TestCreateForm_DuplicateFieldIDs(t *testing.T) {
	db, registry, composer := setup(t)
	field := newField(t, registry, "Name")

	_, err := composer.Create(context.Background(), forms.CreateForm{
		Title:    "T",
		FieldIDs: []int{field.ID, field.ID},
	})
	require.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "duplicate")
	assert.Zero(t, countForms(t, db))
}

func TestCreateForm_EmptyTitle(t *testing.T) {
	db, registry, composer := setup(t)
	field := newField(t, registry, "Name")

	_, err := composer.Create(context.Background(), forms.CreateForm{
		Title:    "   ",
		FieldIDs: []int{field.ID},
	})
	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, countForms(t, db))
}

func TestCreateForm_MissingField(t *testing.T) {
	db, registry, composer := setup(t)
	ctx := context.Background()
	field := newField(t, registry, "Name")

	_, err := composer.Create(ctx, forms.CreateForm{
		Title:    "T",
		FieldIDs: []int{field.ID, 999},
	})
	require.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "999")
	assert.Zero(t, countForms(t, db))

	// failure is idempotent: a retry with valid ids goes through
	form, err := composer.Create(ctx, forms.CreateForm{
		Title:    "T",
		FieldIDs: []int{field.ID},
	})
	require.NoError(t, err)
	assert.NotZero(t, form.ID)
	assert.Equal(t, 1, countForms(t, db))
}

func TestCreateForm_RoundTripByLink(t *testing.T) {
	_, registry, composer := setup(t)
	ctx := context.Background()
	first := newField(t, registry, "Name")
	second := newField(t, registry, "Surname")

	created, err := composer.Create(ctx, forms.CreateForm{
		Title:    "T",
		FieldIDs: []int{second.ID, first.ID},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.UniqueLink)

	fetched, err := composer.GetByLink(ctx, created.UniqueLink)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "T", fetched.Title)
	// membership order is preserved
	assert.Equal(t, []int{second.ID, first.ID}, fetched.FieldIDs)

	byID, err := composer.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, fetched, byID)
}

func TestGetForm_NotFound(t *testing.T) {
	_, _, composer := setup(t)
	ctx := context.Background()

	_, err := composer.GetByID(ctx, 999)
	assert.True(t, apperr.IsNotFound(err))

	_, err = composer.GetByLink(ctx, "nope")
	assert.True(t, apperr.IsNotFound(err))
}

func TestCreateForm_LinksStayUnique(t *testing.T) {
	db, registry, _ := setup(t)
	ctx := context.Background()
	field := newField(t, registry, "Name")

	// tiny token space so the retry path actually runs
	rnd := rand.New(rand.NewSource(42))
	composer := forms.NewComposer(db, registry, link.Generator{
		NewToken: func() string { return fmt.Sprintf("%03d", rnd.Intn(500)) },
		Attempts: 100,
	})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		form, err := composer.Create(ctx, forms.CreateForm{
			Title:    fmt.Sprintf("Form %d", i),
			FieldIDs: []int{field.ID},
		})
		require.NoError(t, err)
		assert.False(t, seen[form.UniqueLink], "duplicate link %q", form.UniqueLink)
		seen[form.UniqueLink] = true
	}
}

func TestCreateForm_LinkExhausted(t *testing.T) {
	db, registry, _ := setup(t)
	ctx := context.Background()
	field := newField(t, registry, "Name")

	composer := forms.NewComposer(db, registry, link.Generator{
		NewToken: func() string { return "stuck" },
		Attempts: 5,
	})

	_, err := composer.Create(ctx, forms.CreateForm{Title: "T", FieldIDs: []int{field.ID}})
	require.NoError(t, err)

	_, err = composer.Create(ctx, forms.CreateForm{Title: "T2", FieldIDs: []int{field.ID}})
	assert.True(t, errors.Is(err, apperr.ErrLinkExhausted))
	assert.Equal(t, 1, countForms(t, db))
}

func TestListForms(t *testing.T) {
	_, registry, composer := setup(t)
	ctx := context.Background()
	field := newField(t, registry, "Name")

	list, err := composer.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := composer.Create(ctx, forms.CreateForm{Title: "A", FieldIDs: []int{field.ID}})
	require.NoError(t, err)
	second, err := composer.Create(ctx, forms.CreateForm{Title: "B", FieldIDs: []int{field.ID}})
	require.NoError(t, err)

	list, err = composer.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, []int{field.ID}, list[0].FieldIDs)
	assert.Zero(t, list[0].Responses)
}

func TestFormDetails(t *testing.T) {
	_, registry, composer := setup(t)
	ctx := context.Background()
	name := newField(t, registry, "Name")
	age, err := registry.Create(ctx, fields.CreateField{Label: "Age", Type: model.FieldNumber})
	require.NoError(t, err)

	form, err := composer.Create(ctx, forms.CreateForm{Title: "T", FieldIDs: []int{age.ID, name.ID}})
	require.NoError(t, err)

	details, err := composer.Details(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.UniqueLink, details.UniqueLink)
	assert.Equal(t, []model.Field{age, name}, details.Fields)

	byLink, err := composer.DetailsByLink(ctx, form.UniqueLink)
	require.NoError(t, err)
	assert.Equal(t, details, byLink)
}

func TestFormDetails_DanglingFieldOmitted(t *testing.T) {
	db, registry, composer := setup(t)
	ctx := context.Background()
	name := newField(t, registry, "Name")
	age, err := registry.Create(ctx, fields.CreateField{Label: "Age", Type: model.FieldNumber})
	require.NoError(t, err)

	form, err := composer.Create(ctx, forms.CreateForm{Title: "T", FieldIDs: []int{name.ID, age.ID}})
	require.NoError(t, err)

	// simulate registry drift behind the form's back
	// (single connection so the pragma and the delete line up)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM field WHERE id = ?`, age.ID)
	require.NoError(t, err)
	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	details, err := composer.Details(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Field{name}, details.Fields)
}

func TestDeleteForm(t *testing.T) {
	db, registry, composer := setup(t)
	ctx := context.Background()
	field := newField(t, registry, "Name")

	form, err := composer.Create(ctx, forms.CreateForm{Title: "T", FieldIDs: []int{field.ID}})
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO response (form_id, answers) VALUES (?, '{}')`, form.ID)
	require.NoError(t, err)

	require.NoError(t, composer.Delete(ctx, form.ID))
	assert.Zero(t, countForms(t, db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM response WHERE form_id = ?`, form.ID).Scan(&n))
	assert.Zero(t, n, "responses must go away with their form")

	err = composer.Delete(ctx, form.ID)
	assert.True(t, apperr.IsNotFound(err))
}
