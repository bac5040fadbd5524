package mesh

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

const (
	WEIGHT_HEAD_SIZE     = 0x10
	WEIGHT_PAIR_SIZE     = 0x08
	WEIGHT_CHAIN_MORE    = 0xFF
	WEIGHT_CHAIN_NO_BONE = 0xFFFFFFFF
)

// RawInfluence holds bone as stored in chain, before palette lookup
type RawInfluence struct {
	Bone   uint32
	Weight float32
}

// WeightChain is result of walking one vertex chain
type WeightChain struct {
	Influences []RawInfluence
	// entries consumed: head, pairs and terminator
	Entries int
	// offset right after chain
	Next int
}

// WalkWeightChain reads chain starting at off. Pairs follow head only when
// continuation low byte is 0xFF and end with first pair whose bone is
// 0xFFFFFFFF or not below paletteSize. That pair is consumed.
// budget limits entries this chain may take.
func WalkWeightChain(view *utils.BufView, off int, paletteSize int, budget int) (*WeightChain, error) {
	if budget < 1 {
		return nil, errors.Wrapf(common.ErrMalformedWeightChain, "chain at 0x%x: entry budget exhausted", view.Start()+off)
	}
	if _, err := view.Bytes(off, WEIGHT_HEAD_SIZE); err != nil {
		return nil, errors.Wrapf(common.ErrMalformedWeightChain, "chain head: %v", err)
	}
	r := view.Reader(off)
	wc := &WeightChain{Entries: 1}
	bone := r.U32()
	weight := r.F32()
	cont := r.U32()
	r.Skip(4)
	wc.Influences = append(wc.Influences, RawInfluence{Bone: bone, Weight: weight})

	if cont&0xFF == WEIGHT_CHAIN_MORE {
		for {
			if wc.Entries >= budget {
				return nil, errors.Wrapf(common.ErrMalformedWeightChain,
					"chain at 0x%x: no terminator within %d entries", view.Start()+off, budget)
			}
			weight := r.F32()
			bone := r.U32()
			if err := r.Err(); err != nil {
				return nil, errors.Wrapf(common.ErrMalformedWeightChain, "chain at 0x%x: %v", view.Start()+off, err)
			}
			wc.Entries++
			if bone == WEIGHT_CHAIN_NO_BONE || int64(bone) >= int64(paletteSize) {
				break
			}
			wc.Influences = append(wc.Influences, RawInfluence{Bone: bone, Weight: weight})
		}
	}
	wc.Next = r.Pos()
	return wc, nil
}

func decodeXboxWeights(ctx *common.DecodeContext, skel *common.Skeleton, so *XboxSubObject, sm *common.SubMesh, warn *common.Warnings) error {
	if so.WeightPtr == 0 || so.WeightEntryCount == 0 || so.VertexCount == 0 {
		return nil
	}
	if skel.Len() == 0 {
		ctx.Log.Printf("[xbox] %q: no skeleton, weights ignored", so.Name)
		return nil
	}
	view, err := ctx.Payload.At("weights", so.WeightPtr)
	if err != nil {
		return errors.Wrapf(common.ErrMalformedWeightChain, "weight buffer: %v", err)
	}

	palette := so.Palette()
	paletteSize := len(palette)
	if paletteSize == 0 {
		paletteSize = skel.Len()
	}

	budget := int(so.WeightEntryCount)
	off := 0
	for v := uint32(0); v < so.VertexCount; v++ {
		wc, err := WalkWeightChain(view, off, paletteSize, budget)
		if err != nil {
			return errors.Wrapf(err, "Vertex %d", v)
		}
		budget -= wc.Entries
		off = wc.Next

		for _, inf := range wc.Influences {
			bone := int64(inf.Bone)
			if len(palette) != 0 {
				if bone >= int64(len(palette)) {
					warn.Addf("vertex %d: palette slot %d of %d, influence dropped", v, inf.Bone, len(palette))
					continue
				}
				bone = int64(palette[bone])
			}
			addInfluence(sm, skel, v, int(bone), inf.Weight, warn)
		}
	}
	return nil
}
