package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/responses"
)

type submitRequest struct {
	Answers map[string]any `json:"answers"`
}

func SubmitResponse(validator *responses.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		in := submitRequest{}
		err = render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		response, err := validator.Submit(r.Context(), formId, in.Answers)
		if err != nil {
			httpx.LogError(w, "responses.submit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, response)
	}
}

func ListResponses(validator *responses.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		list, err := validator.ListByForm(r.Context(), formId)
		if err != nil {
			httpx.LogError(w, "responses.list", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": list,
		})
	}
}
