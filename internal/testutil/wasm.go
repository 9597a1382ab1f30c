// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package testutil

// WasmFunc describes an exported function of a generated module.
// Every parameter and result is an i32.
type WasmFunc struct {
	Name    string
	Params  int
	Results int
}

const (
	sectionType     = 0x01
	sectionFunction = 0x03
	sectionMemory   = 0x05
	sectionExport   = 0x07
	sectionCode     = 0x0a

	valTypeI32   = 0x7f
	funcTypeForm = 0x60

	exportKindFunc   = 0x00
	exportKindMemory = 0x02

	opLocalGet = 0x20
	opI32Const = 0x41
	opEnd      = 0x0b
)

// BuildWasm assembles a minimal WebAssembly module exporting the given
// functions and, when memory is true, a one-page memory named "memory".
// Function bodies return local 0 when there is a parameter and 0 otherwise,
// so the module always validates.
func BuildWasm(memory bool, funcs ...WasmFunc) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	if len(funcs) > 0 {
		var types []byte
		types = appendULEB(types, uint32(len(funcs)))
		for _, f := range funcs {
			types = append(types, funcTypeForm)
			types = appendValTypes(types, f.Params)
			types = appendValTypes(types, f.Results)
		}
		out = appendSection(out, sectionType, types)

		var fns []byte
		fns = appendULEB(fns, uint32(len(funcs)))
		for i := range funcs {
			fns = appendULEB(fns, uint32(i))
		}
		out = appendSection(out, sectionFunction, fns)
	}

	if memory {
		out = appendSection(out, sectionMemory, []byte{0x01, 0x00, 0x01})
	}

	exportCount := len(funcs)
	if memory {
		exportCount++
	}
	if exportCount > 0 {
		var exports []byte
		exports = appendULEB(exports, uint32(exportCount))
		for i, f := range funcs {
			exports = appendName(exports, f.Name)
			exports = append(exports, exportKindFunc)
			exports = appendULEB(exports, uint32(i))
		}
		if memory {
			exports = appendName(exports, "memory")
			exports = append(exports, exportKindMemory)
			exports = appendULEB(exports, 0)
		}
		out = appendSection(out, sectionExport, exports)
	}

	if len(funcs) > 0 {
		var code []byte
		code = appendULEB(code, uint32(len(funcs)))
		for _, f := range funcs {
			body := []byte{0x00} // no locals
			for r := 0; r < f.Results; r++ {
				if f.Params > 0 {
					body = append(body, opLocalGet, 0x00)
				} else {
					body = append(body, opI32Const, 0x00)
				}
			}
			body = append(body, opEnd)
			code = appendULEB(code, uint32(len(body)))
			code = append(code, body...)
		}
		out = appendSection(out, sectionCode, code)
	}

	return out
}

// TemplateWasm returns a module exposing the full template ABI for name:
// <name>_abi, <name>_main, tari_alloc and an exported memory.
func TemplateWasm(name string) []byte {
	return BuildWasm(true,
		WasmFunc{Name: name + "_abi", Results: 1},
		WasmFunc{Name: name + "_main", Params: 2, Results: 1},
		WasmFunc{Name: "tari_alloc", Params: 1, Results: 1},
	)
}

func appendSection(out []byte, id byte, content []byte) []byte {
	out = append(out, id)
	out = appendULEB(out, uint32(len(content)))
	return append(out, content...)
}

func appendValTypes(out []byte, n int) []byte {
	out = appendULEB(out, uint32(n))
	for i := 0; i < n; i++ {
		out = append(out, valTypeI32)
	}
	return out
}

func appendName(out []byte, name string) []byte {
	out = appendULEB(out, uint32(len(name)))
	return append(out, name...)
}

func appendULEB(out []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}
