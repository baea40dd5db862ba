// Package assets embeds the stylesheet and scripts inlined into HTML exports
package assets

import (
	"embed"
	"io/fs"
)

//go:embed export/*
var exportFS embed.FS

// ExportFS returns the embedded export files
func ExportFS() fs.FS {
	sub, err := fs.Sub(exportFS, "export")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageCSS returns the base stylesheet. Theme colors are supplied as CSS variables
// by the caller.
func PageCSS() string {
	return mustRead("export/page.css")
}

// PageJS returns the group toggle and copy-to-clipboard handlers
func PageJS() string {
	return mustRead("export/page.js")
}

// GateJS returns the password prompt handler. It expects a global gatePassword.
func GateJS() string {
	return mustRead("export/gate.js")
}

func mustRead(name string) string {
	data, err := exportFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
