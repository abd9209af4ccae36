package server

import (
	"net/http"
	"runtime/debug"
	"strings"
)

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.errorLog.Output(2, err.Error()+"\n"+string(debug.Stack()))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) clientError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

func (s *Server) notFound(w http.ResponseWriter) {
	s.clientError(w, http.StatusNotFound)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, methods ...string) {
	w.Header().Set("Allow", strings.Join(methods, ", "))
	s.clientError(w, http.StatusMethodNotAllowed)
}
