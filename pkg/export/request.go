package export

import (
	"path/filepath"

	"srcdump/pkg/classify"
	"srcdump/pkg/config"
	"srcdump/pkg/ignore"
)

// Request describes one export. It is built once per invocation and not
// modified while the export runs.
type Request struct {
	RootDirectory string
	OutputPath    string
	Extensions    classify.ExtensionSet // Empty selects every file.
	Exclude       *ignore.Matcher       // Optional extra patterns; nil excludes nothing.
}

// NewRequest builds a request writing src.txt into outputDir. extensionsCSV is
// parsed with classify.ParseExtensions.
func NewRequest(root, outputDir, extensionsCSV string) Request {
	return Request{
		RootDirectory: root,
		OutputPath:    filepath.Join(outputDir, config.OutputFileName),
		Extensions:    classify.ParseExtensions(extensionsCSV),
	}
}
