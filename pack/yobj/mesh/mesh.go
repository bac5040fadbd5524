package mesh

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

// DecodeSubObject decodes sub object record number index.
// Skeleton is only read, so calls for different indexes may run in parallel.
func DecodeSubObject(ctx *common.DecodeContext, skel *common.Skeleton, index int) (*common.SubMesh, error) {
	rec, err := subObjectRecord(ctx, index)
	if err != nil {
		return nil, err
	}
	warn := common.NewWarnings(ctx.Log, fmt.Sprintf("%v sub object %d", ctx.Platform, index))

	var sm *common.SubMesh
	switch ctx.Platform {
	case config.Xbox:
		sm, err = decodeXbox(ctx, skel, rec, warn)
	default:
		sm, err = decodePs2(ctx, skel, rec, warn)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Sub object %d", index)
	}
	sm.Warnings = warn.List()
	return sm, nil
}

func subObjectRecord(ctx *common.DecodeContext, index int) (*utils.BufView, error) {
	size := int(ctx.Header.SubObjectRecordSize(ctx.Revision))
	table, err := ctx.Payload.At("subobjects", ctx.Header.SubObjectPtr)
	if err != nil {
		return nil, errors.Wrapf(err, "Sub object table")
	}
	if _, err := table.Bytes(index*size, size); err != nil {
		return nil, errors.Wrapf(err, "Sub object %d record", index)
	}
	return table.Sub("subobject", index*size)
}

func newSubMesh() *common.SubMesh {
	return &common.SubMesh{
		CollectionIndex: -1,
		Vertices:        make([]common.Position, 0),
		Normals:         make([]common.Normal, 0),
		UVs:             make([]common.UV, 0),
		Faces:           make([]common.Triangle, 0),
		Weights:         make(map[uint32][]common.Influence),
	}
}

// addInfluence validates bone against skeleton and drops bad ones
func addInfluence(sm *common.SubMesh, skel *common.Skeleton, vertex uint32, bone int, weight float32, warn *common.Warnings) {
	if weight == 0 {
		return
	}
	if !skel.Valid(bone) {
		warn.Addf("vertex %d: bone %d out of skeleton (%d bones), influence %v dropped", vertex, bone, skel.Len(), weight)
		return
	}
	sm.Weights[vertex] = append(sm.Weights[vertex], common.Influence{Bone: bone, Weight: weight})
}
