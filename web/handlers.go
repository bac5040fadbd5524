package web

import (
	"bytes"
	"io/ioutil"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj"
	"github.com/mogaika/ymp_browser/pack/yobj/writer"
	"github.com/mogaika/ymp_browser/utils"
	"github.com/mogaika/ymp_browser/webutils"
)

func HandlerAjaxFiles(w http.ResponseWriter, r *http.Request) {
	if files, err := ServerLibrary.List(); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func HandlerAjaxFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	m, err := ServerLibrary.Load(file)
	if err != nil {
		log.Printf("Error loading %q: %v", file, err)
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, m)
	}
}

func HandlerAjaxSubMesh(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["submesh"]
	m, err := ServerLibrary.Load(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	id, err := strconv.Atoi(param)
	if err != nil || id < 0 || id >= len(m.Scene.SubMeshes) {
		webutils.WriteError(w, errors.Errorf("Sub mesh %q not found in %q", param, file))
		return
	}
	webutils.WriteJson(w, &m.Scene.SubMeshes[id])
}

func HandlerDumpFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, _, err := ServerLibrary.Read(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(data), file)
}

func HandlerExportFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	format := strings.ToLower(mux.Vars(r)["format"])
	m, err := ServerLibrary.Load(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	switch format {
	case "glb":
		err = yobj.ExportGLTF(&buf, m.Scene, ServerLibrary.Options.Log)
	case "obj":
		err = yobj.ExportObj(&buf, m.Scene)
	case "json":
		webutils.WriteJsonFile(w, m.Scene, file)
		return
	case "txt":
		buf.WriteString(utils.SDump(m.Scene))
	default:
		p, perr := config.ParsePlatform(format)
		if perr != nil {
			webutils.WriteError(w, errors.Errorf("Unknown export format %q", format))
			return
		}
		var data []byte
		data, err = writer.Write(m.Scene, p, writer.Options{POF0: true, Log: ServerLibrary.Options.Log})
		buf.Write(data)
	}
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Export of %q to %s", file, format))
		return
	}
	webutils.WriteFile(w, &buf, file+"."+format)
}

func HandlerUploadFile(w http.ResponseWriter, r *http.Request) {
	targetFile := mux.Vars(r)["file"]
	fileStream, _, err := r.FormFile("data")
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "File stream getting error"))
		return
	}
	defer fileStream.Close()

	data, err := ioutil.ReadAll(fileStream)
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Reading file error"))
		return
	}
	if err := ServerLibrary.Store(targetFile, data); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, map[string]int{"size": len(data)})
}
