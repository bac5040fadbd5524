package yobj

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/pack/yobj/mesh"
	"github.com/mogaika/ymp_browser/pack/yobj/skel"
	"github.com/mogaika/ymp_browser/pack/yobj/txr"
	"github.com/mogaika/ymp_browser/utils"
)

type Options struct {
	// nil selects config.DefaultRevision for platform
	Revision *config.Revision
	// nil selects config.GetPlatformEncoding, used for xbox names
	Encoding encoding.Encoding
	Log      *utils.Logger
	// sub objects decoded in parallel, values below 1 mean 1
	Workers int
}

// Decode uses default revision of platform
func Decode(data []byte, p config.Platform) (*common.Scene, error) {
	return DecodeWithOptions(data, p, Options{})
}

func DecodeWithOptions(data []byte, p config.Platform, opts Options) (*common.Scene, error) {
	c, err := ReadContainer(data, p)
	if err != nil {
		return nil, err
	}
	ctx, err := NewDecodeContext(c, opts)
	if err != nil {
		return nil, err
	}
	return DecodeScene(ctx)
}

func NewDecodeContext(c *Container, opts Options) (*common.DecodeContext, error) {
	rev := opts.Revision
	if rev == nil {
		rev = config.DefaultRevision(c.Platform)
	}
	if rev.Platform != c.Platform {
		return nil, errors.Errorf("Revision %q is for %v, container is %v", rev.Name, rev.Platform, c.Platform)
	}
	enc := opts.Encoding
	if enc == nil {
		enc = config.GetPlatformEncoding(c.Platform)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	h, err := common.ReadHeader(c.Payload, rev)
	if err != nil {
		return nil, err
	}
	opts.Log.Printf("[yobj] %v revision %q header: %+v", c.Platform, rev.Name, *h)

	return &common.DecodeContext{
		Platform: c.Platform,
		Revision: rev,
		Header:   h,
		Payload:  c.Payload,
		Encoding: enc,
		Log:      opts.Log,
		Workers:  workers,
	}, nil
}

// DecodeScene runs every decoder over context. Structural errors abort
// whole decode, per sub mesh anomalies end up in warnings.
func DecodeScene(ctx *common.DecodeContext) (*common.Scene, error) {
	scene := &common.Scene{}
	warn := common.NewWarnings(ctx.Log, "scene")

	s, err := skel.Decode(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "Skeleton")
	}
	scene.Skeleton = *s

	if scene.Textures, err = txr.DecodeTable(ctx, warn); err != nil {
		return nil, err
	}
	if scene.Collections, err = decodeCollections(ctx); err != nil {
		return nil, err
	}
	if scene.SubMeshes, err = decodeSubMeshes(ctx, s); err != nil {
		return nil, err
	}

	for i := range scene.SubMeshes {
		sm := &scene.SubMeshes[i]
		if sm.CollectionIndex >= len(scene.Collections) {
			warn.Addf("sub mesh %d references collection %d of %d", i, sm.CollectionIndex, len(scene.Collections))
		}
		smWarn := common.NewWarnings(ctx.Log, fmt.Sprintf("sub mesh %d", i))
		sm.Textures = txr.Slots(sm.Material, scene.Textures, smWarn)
		sm.Warnings = append(sm.Warnings, smWarn.List()...)
	}
	scene.Warnings = warn.List()
	return scene, nil
}

// decodeSubMeshes keeps sub object order, first error by index wins
func decodeSubMeshes(ctx *common.DecodeContext, s *common.Skeleton) ([]common.SubMesh, error) {
	count := int(ctx.Header.SubObjectCount)
	if count == 0 {
		return make([]common.SubMesh, 0), nil
	}
	table, err := ctx.Payload.At("subobjects", ctx.Header.SubObjectPtr)
	if err != nil {
		return nil, errors.Wrapf(err, "Sub object table")
	}
	if err := table.CheckTable(count, int(ctx.Header.SubObjectRecordSize(ctx.Revision))); err != nil {
		return nil, errors.Wrapf(err, "Sub object table")
	}

	result := make([]common.SubMesh, count)
	errs := make([]error, count)

	indexes := make(chan int)
	var wg sync.WaitGroup
	workers := ctx.Workers
	if workers > count {
		workers = count
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				sm, err := mesh.DecodeSubObject(ctx, s, i)
				if err != nil {
					errs[i] = err
					continue
				}
				result[i] = *sm
			}
		}()
	}
	for i := 0; i < count; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// BindTextures resolves texture slots of every sub mesh against pool
func BindTextures(scene *common.Scene, pool txr.Pool, log *utils.Logger) []string {
	var missing []string
	for i := range scene.SubMeshes {
		missing = append(missing, txr.Bind(scene.SubMeshes[i].Textures, pool, log)...)
	}
	return missing
}
