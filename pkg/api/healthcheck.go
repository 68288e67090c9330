package api

import (
	"net/http"

	"github.com/go-chi/render"
)

func (a *LinkVaultAPI) Healthcheck(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "ok")
}
