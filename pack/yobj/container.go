package yobj

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/pack/yobj/common"
	"github.com/mogaika/ymp_browser/utils"
)

const (
	YOBJ_TAG              = "YOBJ"
	YOBJ_TAG_XBOX         = "JBOY"
	CONTAINER_HEADER_SIZE = 8
)

// Container is top level chunk. Trailer holds bytes after payload
// (usually POF0 relocation footer), decoding never looks at it.
type Container struct {
	Platform config.Platform
	Payload  *utils.BufView
	Trailer  []byte
}

func ContainerTag(p config.Platform) string {
	if p == config.Xbox {
		return YOBJ_TAG_XBOX
	}
	return YOBJ_TAG
}

func ReadContainer(data []byte, p config.Platform) (*Container, error) {
	if len(data) < CONTAINER_HEADER_SIZE {
		return nil, errors.Wrapf(common.ErrInvalidContainer, "file of %d bytes is too small", len(data))
	}
	if tag := string(data[:4]); tag != ContainerTag(p) {
		return nil, errors.Wrapf(common.ErrInvalidContainer, "tag %q, %v expects %q", utils.PrintableString(data[:4]), p, ContainerTag(p))
	}

	order := common.PlatformOrder(p)
	size := uint64(order.Uint32(data[4:]))
	if CONTAINER_HEADER_SIZE+size > uint64(len(data)) {
		return nil, errors.Wrapf(common.ErrOutOfBounds, "payload of 0x%x bytes, file has 0x%x after header",
			size, len(data)-CONTAINER_HEADER_SIZE)
	}
	end := CONTAINER_HEADER_SIZE + int(size)
	return &Container{
		Platform: p,
		Payload:  utils.NewBufView("payload", data[CONTAINER_HEADER_SIZE:end:end], order),
		Trailer:  data[end:],
	}, nil
}

// DetectPlatform guesses platform by container tag
func DetectPlatform(data []byte) (config.Platform, error) {
	if len(data) >= 4 {
		switch string(data[:4]) {
		case YOBJ_TAG:
			return config.PS2, nil
		case YOBJ_TAG_XBOX:
			return config.Xbox, nil
		}
	}
	return config.PlatformUnknown, errors.Wrapf(common.ErrInvalidContainer, "unknown tag")
}
