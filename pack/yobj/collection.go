package yobj

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
)

const (
	COLLECTION_RECORD_SIZE = 0x20
	COLLECTION_NAME_SIZE   = 0x10
)

func decodeCollections(ctx *common.DecodeContext) ([]common.Collection, error) {
	count := int(ctx.Header.ObjectGroupCount)
	if count == 0 {
		return make([]common.Collection, 0), nil
	}
	table, err := ctx.Payload.At("object groups", ctx.Header.ObjectGroupPtr)
	if err != nil {
		return nil, errors.Wrapf(err, "Object group table")
	}
	if err := table.CheckTable(count, COLLECTION_RECORD_SIZE); err != nil {
		return nil, errors.Wrapf(err, "Object group table")
	}
	cols := make([]common.Collection, count)
	for i := range cols {
		r := table.Reader(i * COLLECTION_RECORD_SIZE)
		c := &cols[i]
		c.Name = ctx.DecodeName(r.Read(COLLECTION_NAME_SIZE))
		c.Flags = r.I32()
		c.FirstSubObject = r.I32()
		c.SubObjectCount = r.I32()
		if err := r.Err(); err != nil {
			return nil, errors.Wrapf(err, "Object group %d", i)
		}
	}
	return cols, nil
}
