package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
)

// NewRouter wires the API routes to h. GET /todos redirects to /todos/;
// POST /todos creates directly since clients replay a redirected POST as GET.
func NewRouter(h *Handlers) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = methodNotAllowed(router)

	router.HandleFunc("/todos", redirectToCollection).Methods("GET")
	router.HandleFunc("/todos", h.CreateTodo).Methods("POST")
	router.HandleFunc("/todos/", h.GetTodos).Methods("GET")
	router.HandleFunc("/todos/", h.CreateTodo).Methods("POST")
	router.HandleFunc("/todos/{id:[0-9]+}", h.GetTodo).Methods("GET")
	router.HandleFunc("/todos/{id:[0-9]+}", h.UpdateTodo).Methods("PUT")
	router.HandleFunc("/todos/{id:[0-9]+}", h.DeleteTodo).Methods("DELETE")

	router.HandleFunc("/swagger.json", h.GetSwagger).Methods("GET")
	router.HandleFunc("/healthz", h.Health).Methods("GET")

	return router
}

func redirectToCollection(w http.ResponseWriter, r *http.Request) {
	u := *r.URL
	u.Path = "/todos/"
	u.RawPath = ""
	http.Redirect(w, r, u.String(), http.StatusMovedPermanently)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusNotFound, "The requested URL was not found on the server.")
}

func methodNotAllowed(router *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if methods := allowedMethods(router, r); len(methods) > 0 {
			w.Header().Set("Allow", strings.Join(methods, ", "))
		}
		respondWithError(w, http.StatusMethodNotAllowed, "The method is not allowed for the requested URL.")
	})
}

// allowedMethods lists the methods some route would accept for r's path.
func allowedMethods(router *mux.Router, r *http.Request) []string {
	var methods []string
	_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		routeMethods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		for _, m := range routeMethods {
			probe := r.Clone(r.Context())
			probe.Method = m
			var match mux.RouteMatch
			if route.Match(probe, &match) && match.MatchErr == nil {
				methods = append(methods, m)
			}
		}
		return nil
	})
	slices.Sort(methods)
	return slices.Compact(methods)
}
