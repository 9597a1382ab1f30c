// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package template

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Template ABI export names.
const (
	abiSuffix   = "_abi"
	mainSuffix  = "_main"
	AllocExport = "tari_alloc"
)

// Signature is the type of an exported function.
type Signature struct {
	Params  []api.ValueType
	Results []api.ValueType
}

func (s Signature) String() string {
	return "(" + valueTypeNames(s.Params) + ") -> (" + valueTypeNames(s.Results) + ")"
}

func (s Signature) matches(params, results []api.ValueType) bool {
	return equalTypes(s.Params, params) && equalTypes(s.Results, results)
}

// Export is an exported function of a template module.
type Export struct {
	Name string
	Signature
}

// ModuleInfo describes a parsed template module.
type ModuleInfo struct {
	// Name is the template name taken from its <Name>_abi export.
	Name      string
	Functions []Export
	Memories  []string
}

var (
	i32 = api.ValueTypeI32

	abiSignature   = Signature{Results: []api.ValueType{i32}}
	mainSignature  = Signature{Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}}
	allocSignature = Signature{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}}
)

// inspect compiles data without instantiating it and checks the template ABI.
func inspect(data []byte) (*ModuleInfo, error) {
	ctx := context.Background()
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer func() { _ = rt.Close(ctx) }()

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	defer func() { _ = compiled.Close(ctx) }()

	info := &ModuleInfo{}
	for name, def := range compiled.ExportedFunctions() {
		info.Functions = append(info.Functions, Export{
			Name:      name,
			Signature: Signature{Params: def.ParamTypes(), Results: def.ResultTypes()},
		})
	}
	sort.Slice(info.Functions, func(i, j int) bool {
		return info.Functions[i].Name < info.Functions[j].Name
	})
	for name := range compiled.ExportedMemories() {
		info.Memories = append(info.Memories, name)
	}
	sort.Strings(info.Memories)

	if err := info.checkABI(); err != nil {
		return nil, err
	}
	return info, nil
}

func (m *ModuleInfo) checkABI() error {
	var abis []Export
	for _, fn := range m.Functions {
		if strings.HasSuffix(fn.Name, abiSuffix) && len(fn.Name) > len(abiSuffix) {
			abis = append(abis, fn)
		}
	}
	switch len(abis) {
	case 0:
		return fmt.Errorf("%w: no <name>%s export found", ErrInvalidTemplate, abiSuffix)
	case 1:
	default:
		names := make([]string, len(abis))
		for i, fn := range abis {
			names[i] = fn.Name
		}
		return fmt.Errorf("%w: multiple ABI exports: %s", ErrInvalidTemplate, strings.Join(names, ", "))
	}

	abi := abis[0]
	if !abiSignature.matches(abi.Params, abi.Results) {
		return fmt.Errorf("%w: %s has signature %s, expected %s", ErrInvalidTemplate, abi.Name, abi.Signature, abiSignature)
	}
	m.Name = strings.TrimSuffix(abi.Name, abiSuffix)

	if err := m.requireFunction(m.Name+mainSuffix, mainSignature); err != nil {
		return err
	}
	if err := m.requireFunction(AllocExport, allocSignature); err != nil {
		return err
	}
	if len(m.Memories) == 0 {
		return fmt.Errorf("%w: module does not export a memory", ErrInvalidTemplate)
	}
	return nil
}

func (m *ModuleInfo) requireFunction(name string, want Signature) error {
	fn, ok := m.Function(name)
	if !ok {
		return fmt.Errorf("%w: missing export %s", ErrInvalidTemplate, name)
	}
	if !want.matches(fn.Params, fn.Results) {
		return fmt.Errorf("%w: %s has signature %s, expected %s", ErrInvalidTemplate, name, fn.Signature, want)
	}
	return nil
}

// Function looks up an exported function by name.
func (m *ModuleInfo) Function(name string) (Export, bool) {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return Export{}, false
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func valueTypeNames(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}
