package jobs

import (
	"path/filepath"
	"strings"

	"github.com/cuongbtq/scanhub/internal/params"
)

// Import file types
const (
	ImportNmap    = "nmap"
	ImportMasscan = "masscan"
)

// ImportExtensions maps each import type to the file extensions it accepts
var ImportExtensions = map[string][]string{
	ImportNmap:    {".xml"},
	ImportMasscan: {".bin", ".dat", ".xml", ".json", ".ndjson", ".list"},
}

// ImportParams is the schema for file import jobs
var ImportParams = params.NewSchema(
	params.Required("type", params.Enum(ImportNmap, ImportMasscan)),
	params.Required("path", params.String),
).WithRules(
	params.Rule{
		Key:      "path",
		Requires: []string{"type"},
		Check: func(v params.Values) string {
			typ, _ := v.String("type")
			path, _ := v.String("path")

			exts := ImportExtensions[typ]
			ext := filepath.Ext(path)
			for _, valid := range exts {
				if ext == valid {
					return ""
				}
			}
			return typ + " file path must end with " + strings.Join(exts, ", ")
		},
	},
)
