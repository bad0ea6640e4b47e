package schema

import "github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"

// CoreComicFileTable represents the 'core.comicfile' table
type CoreComicFileTable struct {
	Table     string
	ID        string
	Path      string
	SeriesID  string
	CreatedAt string
	UpdatedAt string
}

// CoreComicFile is the schema definition for core.comicfile
var CoreComicFile = CoreComicFileTable{
	Table:     constants.SchemaCore + ".comicfile",
	ID:        "id",
	Path:      "path",
	SeriesID:  "seriesid",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}
