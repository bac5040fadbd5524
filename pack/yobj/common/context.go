package common

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/mogaika/ymp_browser/config"
	"github.com/mogaika/ymp_browser/utils"
)

// DecodeContext is built once per decode and shared read only between workers
type DecodeContext struct {
	Platform config.Platform
	Revision *config.Revision
	Header   *Header
	Payload  *utils.BufView
	Encoding encoding.Encoding
	Log      *utils.Logger
	Workers  int
}

func PlatformOrder(p config.Platform) binary.ByteOrder {
	if p == config.Xbox {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (ctx *DecodeContext) Order() binary.ByteOrder {
	return PlatformOrder(ctx.Platform)
}

// DecodeName turns fixed size name field into string.
// PS2 names keep only printable ascii, xbox names go through text decoding.
func (ctx *DecodeContext) DecodeName(b []byte) string {
	if ctx.Platform == config.Xbox {
		enc := ctx.Encoding
		if enc == nil {
			enc = config.GetPlatformEncoding(ctx.Platform)
		}
		return utils.DecodeString(b, enc)
	}
	return utils.PrintableString(b)
}

// Warnings collects recoverable anomalies and mirrors them into log
type Warnings struct {
	prefix string
	log    *utils.Logger
	list   []string
}

func NewWarnings(log *utils.Logger, prefix string) *Warnings {
	return &Warnings{prefix: prefix, log: log}
}

func (w *Warnings) Addf(format string, a ...interface{}) {
	s := fmt.Sprintf(format, a...)
	w.list = append(w.list, s)
	w.log.Printf("[%s] warning: %s", w.prefix, s)
}

func (w *Warnings) List() []string {
	return w.list
}
