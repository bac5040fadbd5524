package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

var ServerLibrary *Library

func NewRouter(l *Library, webPath string) http.Handler {
	ServerLibrary = l

	r := mux.NewRouter()
	r.HandleFunc("/json/files", HandlerAjaxFiles)
	r.HandleFunc("/json/file/{file}", HandlerAjaxFile)
	r.HandleFunc("/json/file/{file}/{submesh}", HandlerAjaxSubMesh)
	r.HandleFunc("/export/{file}/{format}", HandlerExportFile)
	r.HandleFunc("/dump/{file}", HandlerDumpFile)
	r.HandleFunc("/upload/{file}", HandlerUploadFile).Methods("POST")

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

func StartServer(addr string, l *Library, webPath string) error {
	h := handlers.RecoveryHandler()(NewRouter(l, webPath))
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
