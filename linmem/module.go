package linmem

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/tagcast/errors"
)

// PageSize is the WebAssembly page size in bytes.
const PageSize = 65536

// MaxPages is the largest page count a 32-bit memory can declare.
const MaxPages = 65536

const (
	sectionMemory = 0x05
	sectionExport = 0x07
	externMemory  = 0x02
)

var wasmHeader = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
}

// NewMemoryModule instantiates a module named name whose only content is a
// linear memory exported as "memory". maxPages of zero leaves the memory
// unbounded (up to the runtime's limit).
func NewMemoryModule(ctx context.Context, rt wazero.Runtime, name string, minPages, maxPages uint32) (api.Module, error) {
	if minPages > MaxPages || maxPages > MaxPages {
		return nil, errors.InvalidInput(errors.PhaseMemory, "page count exceeds 65536")
	}
	if maxPages != 0 && maxPages < minPages {
		return nil, errors.InvalidInput(errors.PhaseMemory, "max pages below min pages")
	}

	compiled, err := rt.CompileModule(ctx, memoryModuleBinary(minPages, maxPages))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidInput, err, "compile memory module")
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidInput, err, "instantiate memory module")
	}

	Logger().Debug("memory module ready",
		zap.String("module", name),
		zap.Uint32("min_pages", minPages),
		zap.Uint32("max_pages", maxPages),
	)
	return mod, nil
}

func memoryModuleBinary(minPages, maxPages uint32) []byte {
	var limits []byte
	limits = append(limits, 0x01) // one memory
	if maxPages == 0 {
		limits = append(limits, 0x00)
		limits = appendLEB128u(limits, minPages)
	} else {
		limits = append(limits, 0x01)
		limits = appendLEB128u(limits, minPages)
		limits = appendLEB128u(limits, maxPages)
	}

	var exports []byte
	exports = append(exports, 0x01) // one export
	exports = appendLEB128u(exports, uint32(len("memory")))
	exports = append(exports, "memory"...)
	exports = append(exports, externMemory, 0x00)

	out := append([]byte(nil), wasmHeader...)
	out = appendSection(out, sectionMemory, limits)
	out = appendSection(out, sectionExport, exports)
	return out
}

func appendSection(buf []byte, id byte, content []byte) []byte {
	buf = append(buf, id)
	buf = appendLEB128u(buf, uint32(len(content)))
	return append(buf, content...)
}

func appendLEB128u(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}
