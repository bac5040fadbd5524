package txr

import (
	"bytes"
	"encoding/binary"
	"io/fs"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/utils"
)

const (
	DDS_MAGIC       = "DDS "
	DDS_HEADER_SIZE = 0x80
	DDS_HEIGHT      = 0x0C
	DDS_WIDTH       = 0x10
)

// Texture is handle created by IndexDirectory, pixels are not loaded
type Texture struct {
	Name   string
	Path   string
	Format string
	Width  int
	Height int
}

func probeTga(data []byte) (int, int, error) {
	cfg, err := tga.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func probeDds(data []byte) (int, int, error) {
	if len(data) < DDS_HEADER_SIZE || string(data[:4]) != DDS_MAGIC {
		return 0, 0, errors.Errorf("Not a dds file")
	}
	h := binary.LittleEndian.Uint32(data[DDS_HEIGHT:])
	w := binary.LittleEndian.Uint32(data[DDS_WIDTH:])
	return int(w), int(h), nil
}

var probes = map[string]func([]byte) (int, int, error){
	".tga": probeTga,
	".dds": probeDds,
}

// IndexDirectory walks dir and adds every tga or dds file to pool under
// its lower cased base name, with and without extension.
// Files with broken headers are logged and skipped.
func IndexDirectory(dir string, log *utils.Logger) (Pool, error) {
	pool := make(Pool)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		probe, ok := probes[ext]
		if !ok {
			return nil
		}

		data, err := ioutil.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "Failed to read %q", path)
		}
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		t := &Texture{Name: name, Path: path, Format: ext[1:]}
		if t.Width, t.Height, err = probe(data); err != nil {
			log.Printf("[txr] skipping %q: %v", path, err)
			return nil
		}
		pool.Add(name, t)
		pool.Add(base, t)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Indexing textures in %q", dir)
	}
	return pool, nil
}
