// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"path/filepath"
	"strings"
)

// # Folder Registry

// FolderDefinition is an authoritative series description attached to a folder,
// typically read from a series.json sidecar by the scanner.
type FolderDefinition struct {
	Name        string            `json:"name"`
	Publisher   string            `json:"publisher,omitempty"`
	StartYear   *int              `json:"start_year,omitempty"`
	EndYear     *int              `json:"end_year,omitempty"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
}

// FolderRegistry resolves the folder-scoped definition for a candidate name.
// Implementations are scan-session scoped and passed explicitly.
type FolderRegistry interface {
	Lookup(folderPath, candidateName string) (FolderDefinition, float64, bool)
}

// StaticFolderRegistry is a [FolderRegistry] over a fixed folder map.
type StaticFolderRegistry struct {
	definitions map[string][]FolderDefinition
}

// NewStaticFolderRegistry returns an empty registry.
func NewStaticFolderRegistry() *StaticFolderRegistry {
	return &StaticFolderRegistry{definitions: make(map[string][]FolderDefinition)}
}

// Define attaches a definition to a folder.
func (registry *StaticFolderRegistry) Define(folderPath string, definition FolderDefinition) {
	key := folderKey(folderPath)
	registry.definitions[key] = append(registry.definitions[key], definition)
}

/*
Lookup returns the definition of folderPath that best fits candidateName.

Description: A folder with a single definition is authoritative for every file
inside it (confidence 1). When a folder holds several definitions, the one with
the best heuristic name score wins and reports that score.

Parameters:
  - folderPath: string
  - candidateName: string

Returns:
  - FolderDefinition: Best definition
  - float64: Match confidence
  - bool: false when the folder has no definition
*/
func (registry *StaticFolderRegistry) Lookup(folderPath, candidateName string) (FolderDefinition, float64, bool) {
	definitions := registry.definitions[folderKey(folderPath)]
	switch len(definitions) {
	case 0:
		return FolderDefinition{}, 0, false
	case 1:
		return definitions[0], 1, true
	}

	best, bestScore := definitions[0], -1.0
	for _, definition := range definitions {
		if score := QuickSimilarity(candidateName, definition.Name); score > bestScore {
			best, bestScore = definition, score
		}
	}
	return best, bestScore, true
}

func folderKey(folderPath string) string {
	if strings.TrimSpace(folderPath) == "" {
		return ""
	}
	return filepath.Clean(folderPath)
}
