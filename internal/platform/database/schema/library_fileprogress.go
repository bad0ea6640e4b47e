package schema

import "github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"

// LibraryFileProgressTable represents the 'library.fileprogress' table
type LibraryFileProgressTable struct {
	Table     string
	UserID    string
	FileID    string
	Completed string
	UpdatedAt string
}

// LibraryFileProgress is the schema definition for library.fileprogress
var LibraryFileProgress = LibraryFileProgressTable{
	Table:     constants.SchemaLibrary + ".fileprogress",
	UserID:    "userid",
	FileID:    "fileid",
	Completed: "completed",
	UpdatedAt: "updatedat",
}
