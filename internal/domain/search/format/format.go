package format

// Format selects how search results are delivered.
type Format string

// Format constants.
const (
	// Default returns the engine page as a JSON payload.
	Default Format = "default"
	// CSV streams an export with display labels as the header row.
	CSV  Format = "csv"
	JSON Format = "json"
)

var contentTypes = map[Format]string{
	CSV:  "text/csv",
	JSON: "application/json",
}

// IsValid checks if the format is one of the supported values.
func (f Format) IsValid() bool {
	return f == Default || f == CSV || f == JSON
}

// IsExport reports whether the format streams an attachment.
func (f Format) IsExport() bool {
	return f == CSV || f == JSON
}

// ContentType returns the MIME type of an export format ("" for Default).
func (f Format) ContentType() string {
	return contentTypes[f]
}

// Extension returns the export file extension.
func (f Format) Extension() string {
	if !f.IsExport() {
		return ""
	}
	return string(f)
}
