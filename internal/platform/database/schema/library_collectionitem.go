package schema

import "github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"

// LibraryCollectionItemTable represents the 'library.collectionitem' table
type LibraryCollectionItemTable struct {
	Table         string
	CollectionID  string
	SeriesID      string
	AddedAt       string
	DeactivatedAt string
}

// LibraryCollectionItem is the schema definition for library.collectionitem
var LibraryCollectionItem = LibraryCollectionItemTable{
	Table:         constants.SchemaLibrary + ".collectionitem",
	CollectionID:  "collectionid",
	SeriesID:      "seriesid",
	AddedAt:       "addedat",
	DeactivatedAt: "deactivatedat",
}
