package main

import (
	"bytes"
	"flag"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/pack/yobj/txr"
	"github.com/mogaika/ymp_browser/pack/yobj/writer"
	"github.com/mogaika/ymp_browser/utils"
)

func main() {
	var inPath, outPath, platform, revision, revisions, format, textures, outRevision string
	var workers int
	var verbose, pof0 bool
	flag.StringVar(&inPath, "in", "", "Input .ymp/.ymxen file")
	flag.StringVar(&outPath, "out", "", "Output file, extension of input replaced by format when empty")
	flag.StringVar(&platform, "platform", "", "Input platform (ps2|xbox), detected by tag when empty")
	flag.StringVar(&revision, "revision", "", "Input revision, platform default when empty")
	flag.StringVar(&revisions, "revisions", "", "Yaml file with additional container revisions")
	flag.StringVar(&format, "format", "glb", "Output format: glb, obj, txt, ymp, ymxen")
	flag.StringVar(&outRevision, "outrevision", "", "Revision of ymp/ymxen output")
	flag.StringVar(&textures, "textures", "", "Folder with tga/dds textures to check material references")
	flag.IntVar(&workers, "j", 1, "Sub objects decoded in parallel")
	flag.BoolVar(&pof0, "pof0", true, "Append POF0 footer to ymp/ymxen output")
	flag.BoolVar(&verbose, "v", false, "Log decoding steps")
	flag.Parse()

	if inPath == "" {
		log.Fatal("Provide input file. Use --help if you stuck.")
	}
	if revisions != "" {
		if err := config.LoadRevisions(revisions); err != nil {
			log.Fatal(err)
		}
	}
	var logger *utils.Logger
	if verbose {
		logger = utils.NewLogger(os.Stderr)
	}

	data, err := ioutil.ReadFile(inPath)
	if err != nil {
		log.Fatal(err)
	}

	var p config.Platform
	if platform != "" {
		p, err = config.ParsePlatform(platform)
	} else {
		p, err = yobj.DetectPlatform(data)
	}
	if err != nil {
		log.Fatal(err)
	}

	opts := yobj.Options{Log: logger, Workers: workers}
	if revision != "" {
		if opts.Revision, err = config.GetRevision(revision); err != nil {
			log.Fatal(err)
		}
	}
	scene, err := yobj.DecodeWithOptions(data, p, opts)
	if err != nil {
		log.Fatalf("Decoding %q: %v", inPath, err)
	}
	report(scene)

	if textures != "" {
		pool, err := txr.IndexDirectory(textures, logger)
		if err != nil {
			log.Fatal(err)
		}
		if missing := yobj.BindTextures(scene, pool, logger); len(missing) != 0 {
			log.Printf("Missing textures: %v", strings.Join(missing, ", "))
		}
	}

	out, err := convert(scene, strings.ToLower(format), outRevision, pof0, logger)
	if err != nil {
		log.Fatal(err)
	}
	if outPath == "" {
		outPath = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + "." + strings.ToLower(format)
	}
	if err := ioutil.WriteFile(outPath, out, 0644); err != nil {
		log.Fatal(err)
	}
	log.Printf("Saved %q", outPath)
}

func report(scene *common.Scene) {
	log.Printf("%d bones, %d sub meshes, %d textures, %d collections",
		scene.Skeleton.Len(), len(scene.SubMeshes), len(scene.Textures), len(scene.Collections))
	for _, w := range scene.Warnings {
		log.Printf("warning: %s", w)
	}
	for i := range scene.SubMeshes {
		sm := &scene.SubMeshes[i]
		log.Printf("  %d %q: %d vertices, %d faces, %d weighted, %d material params",
			i, sm.Name, len(sm.Vertices), len(sm.Faces), len(sm.Weights), len(sm.Material))
		for _, w := range sm.Warnings {
			log.Printf("    warning: %s", w)
		}
	}
}

func convert(scene *common.Scene, format, revision string, pof0 bool, logger *utils.Logger) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "glb":
		if err := yobj.ExportGLTF(&buf, scene, logger); err != nil {
			return nil, err
		}
	case "obj":
		if err := yobj.ExportObj(&buf, scene); err != nil {
			return nil, err
		}
	case "txt":
		buf.WriteString(utils.SDump(scene))
	default:
		p, err := config.ParsePlatform(format)
		if err != nil {
			return nil, errors.Errorf("Unknown output format %q", format)
		}
		opts := writer.Options{POF0: pof0, Log: logger}
		if revision != "" {
			if opts.Revision, err = config.GetRevision(revision); err != nil {
				return nil, err
			}
		}
		return writer.Write(scene, p, opts)
	}
	return buf.Bytes(), nil
}
