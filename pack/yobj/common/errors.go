package common

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/ps2/vif"
	"github.com/mogaika/ymp_browser/utils"
)

var (
	ErrInvalidContainer        = errors.New("invalid container")
	ErrOutOfBounds             = utils.ErrOutOfBounds
	ErrUnsupportedVertexMode   = vif.ErrUnsupportedMode
	ErrUnsupportedMaterialType = errors.New("unsupported material type")
	ErrInvalidParentIndex      = errors.New("invalid parent index")
	ErrMalformedWeightChain    = errors.New("malformed weight chain")
)
