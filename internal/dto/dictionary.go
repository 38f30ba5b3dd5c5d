package dto

// SearchWordsQuery carries the free-text dictionary lookup term.
type SearchWordsQuery struct {
	Q string `form:"q" validate:"required,min=1,max=255"`
}

// ExportWordsQuery selects the export encoding.
type ExportWordsQuery struct {
	Format string `form:"format"`
}

// ImportRowError describes why a row of an uploaded word list was skipped.
type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportWordsResult summarises a word list upload.
type ImportWordsResult struct {
	CategoryID string           `json:"category_id"`
	Processed  int              `json:"processed"`
	Created    int              `json:"created"`
	Skipped    int              `json:"skipped"`
	Errors     []ImportRowError `json:"errors"`
}
