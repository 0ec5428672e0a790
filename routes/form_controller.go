package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-forms/forms"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
)

func CreateForm(composer *forms.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := forms.CreateForm{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		form, err := composer.Create(r.Context(), in)
		if err != nil {
			httpx.LogError(w, "forms.create", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, form)
	}
}

func ListForms(composer *forms.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := composer.List(r.Context())
		if err != nil {
			httpx.LogError(w, "forms.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": list,
		})
	}
}

func GetFormById(composer *forms.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := composer.GetByID(r.Context(), formId)
		if err != nil {
			httpx.LogError(w, "forms.get", err)
			return
		}

		render.JSON(w, r, form)
	}
}

// GetFormByLink serves the public fill page, so it resolves field details
// rather than bare ids.
func GetFormByLink(composer *forms.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "link")

		details, err := composer.DetailsByLink(r.Context(), token)
		if err != nil {
			httpx.LogError(w, "forms.get_by_link", err)
			return
		}

		render.JSON(w, r, details)
	}
}

func GetFormDetails(composer *forms.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		details, err := composer.Details(r.Context(), formId)
		if err != nil {
			httpx.LogError(w, "forms.details", err)
			return
		}

		render.JSON(w, r, details)
	}
}

func DeleteForm(composer *forms.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		err = composer.Delete(r.Context(), formId)
		if err != nil {
			httpx.LogError(w, "forms.delete", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
