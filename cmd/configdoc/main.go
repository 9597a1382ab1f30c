// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

// configdoc generates markdown documentation from Go struct tags.
// Usage: go run ./cmd/configdoc > doc/CONFIG_REFERENCE.md
package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/tari-tools/tdeploy/internal/util"
)

// EnvVar represents an environment variable configuration
type EnvVar struct {
	Name        string
	Description string
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		fmt.Println("Usage: go run ./cmd/configdoc > doc/CONFIG_REFERENCE.md")
		fmt.Println()
		fmt.Println("Generates markdown documentation from Go struct tags.")
		return
	}
	writeReference(os.Stdout)
}

func writeReference(w io.Writer) {
	fmt.Fprintln(w, "# Configuration Reference")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Auto-generated from Go struct tags. Do not edit manually.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "---")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## tdeploy Configuration")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: `%s` in the tdeploy data directory (`-d`, `%s` or `~/%s`)\n",
		util.ConfigFileName, util.DataDirEnvVar, util.DefaultDataDirName)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Field | Type | Default | Description |")
	fmt.Fprintln(w, "|-------|------|---------|-------------|")
	writeStructRows(w, reflect.TypeOf(util.Config{}), "")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Environment Variables")
	fmt.Fprintln(w)
	writeEnvVars(w)
}

func writeStructRows(w io.Writer, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		fieldName := strings.Split(tag, ",")[0]
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		desc := field.Tag.Get("description")
		if desc == "" {
			desc = "(no description)"
		}

		switch {
		case field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct:
			fmt.Fprintf(w, "| `%s` | object | (none) | %s |\n", fieldName, desc)
			writeStructRows(w, field.Type.Elem(), fieldName)
			continue
		case field.Type.Kind() == reflect.Map && field.Type.Elem().Kind() == reflect.Struct:
			fmt.Fprintf(w, "| `%s` | map | (none) | %s |\n", fieldName, desc)
			writeStructRows(w, field.Type.Elem(), fieldName+".<name>")
			continue
		}

		def := field.Tag.Get("default")
		switch def {
		case "":
			def = "(none)"
		case `""`:
			def = "(empty string)"
		}

		fmt.Fprintf(w, "| `%s` | %s | `%s` | %s |\n", fieldName, formatType(field.Type), def, desc)
	}
}

func formatType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "[]" + formatType(t.Elem())
	case reflect.Ptr:
		return "*" + formatType(t.Elem())
	default:
		return t.String()
	}
}

func writeEnvVars(w io.Writer) {
	envVars := []EnvVar{
		{util.DataDirEnvVar, "Data directory (config.yaml, SSH keys); overridden by `-d`"},
		{util.DebugEnvVar, "Set to any value to enable debug logging"},
		{"SSH_AUTH_SOCK", "SSH agent socket, used when a network's ssh block has no readable identity_file"},
		{"USER", "Default SSH user name"},
	}

	fmt.Fprintln(w, "| Variable | Description |")
	fmt.Fprintln(w, "|----------|-------------|")
	for _, env := range envVars {
		fmt.Fprintf(w, "| `%s` | %s |\n", env.Name, env.Description)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "### Data Directory Resolution")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. `-d <path>` flag")
	fmt.Fprintf(w, "2. `%s` environment variable\n", util.DataDirEnvVar)
	fmt.Fprintf(w, "3. `~/%s`\n", util.DefaultDataDirName)
}
