package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/forms"
	"github.com/mbolis/quick-forms/link"
	"github.com/mbolis/quick-forms/responses"
)

func Wire(app app.App) http.Handler {
	registry := fields.NewRegistry(app.DB)
	composer := forms.NewComposer(app.DB, registry, link.NewGenerator())
	validator := responses.NewValidator(app.DB, composer)

	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(registry, composer, validator))

	return root
}

func apiRouter(registry *fields.Registry, composer *forms.Composer, validator *responses.Validator) http.Handler {
	api := chi.NewRouter()

	api.Post("/fields", CreateField(registry))
	api.Get("/fields", ListFields(registry))
	api.Get(`/fields/{id:^\d+$}`, GetField(registry))
	api.Patch(`/fields/{id:^\d+$}`, UpdateField(registry))

	api.Post("/forms", CreateForm(composer))
	api.Get("/forms", ListForms(composer))
	api.Get(`/forms/{id:^\d+$}`, GetFormById(composer))
	api.Get(`/forms/{id:^\d+$}/details`, GetFormDetails(composer))
	api.Delete(`/forms/{id:^\d+$}`, DeleteForm(composer))
	api.Get("/link/{link}", GetFormByLink(composer))

	api.Post(`/forms/{id:^\d+$}/responses`, SubmitResponse(validator))
	api.Get(`/forms/{id:^\d+$}/responses`, ListResponses(validator))

	return api
}
