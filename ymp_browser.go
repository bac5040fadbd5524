package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj"
	"github.com/mogaika/ymp_browser/pack/yobj/txr"
	"github.com/mogaika/ymp_browser/utils"
	"github.com/mogaika/ymp_browser/web"
)

func main() {
	var addr, dir, textures, revisions, ps2rev, xboxrev, encoding string
	var workers int
	var verbose bool
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&dir, "dir", "", "Path to folder with .ymp/.ymxen files")
	flag.StringVar(&textures, "textures", "", "Path to folder with tga/dds textures")
	flag.StringVar(&revisions, "revisions", "", "Yaml file with additional container revisions")
	flag.StringVar(&ps2rev, "ps2rev", config.REVISION_PS2, "Revision used for ps2 files")
	flag.StringVar(&xboxrev, "xboxrev", config.REVISION_XBOX, "Revision used for xbox files")
	flag.StringVar(&encoding, "encoding", "", "Charmap of ps2 names, one of: "+strings.Join(config.ListEncodings(), ", "))
	flag.IntVar(&workers, "j", 1, "Sub objects decoded in parallel")
	flag.BoolVar(&verbose, "v", false, "Log decoding steps")
	flag.Parse()

	if dir == "" {
		flag.PrintDefaults()
		return
	}

	if revisions != "" {
		if err := config.LoadRevisions(revisions); err != nil {
			log.Fatal(err)
		}
	}
	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			log.Fatal(err)
		}
	}

	var logger *utils.Logger
	if verbose {
		logger = utils.NewLogger(os.Stdout)
	}

	var pool txr.Pool
	if textures != "" {
		var err error
		if pool, err = txr.IndexDirectory(textures, logger); err != nil {
			log.Fatal(err)
		}
		log.Printf("Indexed %d texture names", len(pool))
	}

	l := web.NewLibrary(dir, pool, yobj.Options{Log: logger, Workers: workers})
	for p, name := range map[config.Platform]string{config.PS2: ps2rev, config.Xbox: xboxrev} {
		rev, err := config.GetRevision(name)
		if err != nil {
			log.Fatal(err)
		}
		if rev.Platform != p {
			log.Fatalf("Revision %q is for %v, not %v", name, rev.Platform, p)
		}
		l.Revisions[p] = rev
	}

	if err := web.StartServer(addr, l, "web"); err != nil {
		log.Fatal(err)
	}
}
