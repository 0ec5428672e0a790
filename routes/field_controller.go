package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
)

func CreateField(registry *fields.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := fields.CreateField{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		field, err := registry.Create(r.Context(), in)
		if err != nil {
			httpx.LogError(w, "fields.create", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, field)
	}
}

func ListFields(registry *fields.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := registry.List(r.Context())
		if err != nil {
			httpx.LogError(w, "fields.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"fields": list,
		})
	}
}

func GetField(registry *fields.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fieldId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		field, err := registry.Get(r.Context(), fieldId)
		if err != nil {
			httpx.LogError(w, "fields.get", err)
			return
		}

		render.JSON(w, r, field)
	}
}

func UpdateField(registry *fields.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fieldId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		patch := fields.UpdateField{}
		err = render.DecodeJSON(r.Body, &patch)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		field, err := registry.Update(r.Context(), fieldId, patch)
		if err != nil {
			httpx.LogError(w, "fields.update", err)
			return
		}

		render.JSON(w, r, field)
	}
}
