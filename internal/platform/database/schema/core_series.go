package schema

import "github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"

// CoreSeriesTable represents the 'core.series' table
type CoreSeriesTable struct {
	Table        string
	ID           string
	Name         string
	NameKey      string
	Publisher    string
	PublisherKey string
	StartYear    string
	EndYear      string
	Aliases      string
	ExternalIDs  string
	LockedFields string
	FolderPath   string
	CreatedAt    string
	UpdatedAt    string
	DeletedAt    string
}

// CoreSeries is the schema definition for core.series
var CoreSeries = CoreSeriesTable{
	Table:        constants.SchemaCore + ".series",
	ID:           "id",
	Name:         "name",
	NameKey:      "namekey",
	Publisher:    "publisher",
	PublisherKey: "publisherkey",
	StartYear:    "startyear",
	EndYear:      "endyear",
	Aliases:      "aliases",
	ExternalIDs:  "externalids",
	LockedFields: "lockedfields",
	FolderPath:   "folderpath",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
	DeletedAt:    "deletedat",
}

// Columns lists the columns read into a series entity, in scan order.
func (t CoreSeriesTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Publisher, t.StartYear, t.EndYear, t.Aliases, t.ExternalIDs,
		t.LockedFields, t.FolderPath, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
