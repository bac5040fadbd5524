package web

import (
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/pack/yobj/txr"
)

// platform by file extension, tag is checked when unknown
var extensions = map[string]config.Platform{
	".ymp":   config.PS2,
	".ymxen": config.Xbox,
	".yobj":  config.PlatformUnknown,
}

type Model struct {
	Name     string
	Platform config.Platform
	Scene    *common.Scene
	Missing  []string `json:",omitempty"`
}

// Library serves models from flat directory, decoded models are cached
type Library struct {
	Dir      string
	Textures txr.Pool
	Options  yobj.Options
	// overrides default revision of platform
	Revisions map[config.Platform]*config.Revision

	lock  sync.Mutex
	cache map[string]*Model
}

func NewLibrary(dir string, textures txr.Pool, opts yobj.Options) *Library {
	return &Library{
		Dir:       dir,
		Textures:  textures,
		Options:   opts,
		Revisions: make(map[config.Platform]*config.Revision),
		cache:     make(map[string]*Model),
	}
}

func (l *Library) List() ([]string, error) {
	infos, err := ioutil.ReadDir(l.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to list %q", l.Dir)
	}
	files := make([]string, 0)
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(fi.Name()))]; ok {
			files = append(files, fi.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (l *Library) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errors.Errorf("Invalid file name %q", name)
	}
	return filepath.Join(l.Dir, name), nil
}

func (l *Library) Read(name string) ([]byte, config.Platform, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, config.PlatformUnknown, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, config.PlatformUnknown, errors.Wrapf(err, "Failed to read %q", name)
	}
	p := extensions[strings.ToLower(filepath.Ext(name))]
	if p == config.PlatformUnknown {
		if p, err = yobj.DetectPlatform(data); err != nil {
			return nil, p, errors.Wrapf(err, "File %q", name)
		}
	}
	return data, p, nil
}

func (l *Library) Load(name string) (*Model, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if m, ok := l.cache[name]; ok {
		return m, nil
	}

	data, p, err := l.Read(name)
	if err != nil {
		return nil, err
	}
	opts := l.Options
	if rev, ok := l.Revisions[p]; ok {
		opts.Revision = rev
	}
	scene, err := yobj.DecodeWithOptions(data, p, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode %q", name)
	}

	m := &Model{Name: name, Platform: p, Scene: scene}
	if l.Textures != nil {
		m.Missing = yobj.BindTextures(scene, l.Textures, l.Options.Log)
	}
	l.cache[name] = m
	return m, nil
}

// Store replaces file contents and drops cached model
func (l *Library) Store(name string, data []byte) error {
	path, err := l.path(name)
	if err != nil {
		return err
	}
	if _, ok := extensions[strings.ToLower(filepath.Ext(name))]; !ok {
		return errors.Errorf("Unsupported extension of %q", name)
	}
	if _, err := yobj.DetectPlatform(data); err != nil {
		return errors.Wrapf(err, "Uploaded %q", name)
	}
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "Failed to write %q", name)
	}
	l.lock.Lock()
	delete(l.cache, name)
	l.lock.Unlock()
	l.Options.Log.Printf("[web] stored %q, 0x%x bytes", name, len(data))
	return nil
}
