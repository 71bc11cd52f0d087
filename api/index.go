package handler

import (
	"net/http"

	"stablebricks-backend/bootstrap"
)

var api http.Handler

func init() {
	var err error
	api, err = bootstrap.New()
	if err != nil {
		panic("app create: " + err.Error())
	}
}

// Handler is the serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	api.ServeHTTP(w, r)
}
