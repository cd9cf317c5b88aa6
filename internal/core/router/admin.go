package router

import (
	"net/http"

	"github.com/mohammed-shakir/hexproximity/internal/hotness"
)

func (a *api) hot(w http.ResponseWriter, r *http.Request) {
	if a.deps.Hot == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "hotness tracking is disabled", Kind: "not_found"})
		return
	}
	n, err := queryInt(r, "n", 10)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if n < 1 || n > 1000 {
		badRequest(w, "n must be in [1,1000]")
		return
	}
	top := a.deps.Hot.Top(n)
	if top == nil {
		top = []hotness.Scored{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"backend": a.deps.Grid.Name(), "origins": top})
}

func (a *api) purgeRings(w http.ResponseWriter, r *http.Request) {
	if a.deps.Rings == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "ring cache is disabled", Kind: "not_found"})
		return
	}
	n, err := a.deps.Rings.Purge(r.Context())
	if err != nil {
		a.log.ErrorContext(r.Context(), "ring cache purge failed", "err", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "ring cache unavailable", Kind: "cache"})
		return
	}
	a.log.InfoContext(r.Context(), "ring cache purged", "keys", n)
	writeJSON(w, http.StatusOK, map[string]int{"purged": n})
}
