package grouping

import (
	"path/filepath"
	"strings"

	"github.com/amolab/amorate-backend/internal/types"
)

// Identity is the derived piece identity of a single track.
type Identity struct {
	Key          string
	DisplayLabel string
	PieceName    string
	Composer     string
}

// Derive computes the grouping key and display label for one track. The
// key format is load-bearing: it is persisted in arena match rows and
// echoed back through /arena?piece=, so it must stay stable across
// releases.
//
//	composer + piece -> "composer::{c}|piece::{p}", label "{c} — {p}"
//	piece only       -> "piece::{p}",              label "{p}"
//	composer only    -> "composer_only::{c}",      label "{c}"
//	neither          -> "file::{stem}",            label "{stem}" (stem also
//	                    becomes the piece name)
func Derive(filename string, md *types.TrackMetadata) Identity {
	var pieceName, composer string
	if md != nil {
		pieceName = strings.TrimSpace(md.PieceName)
		if pieceName == "" {
			pieceName = strings.TrimSpace(md.ScoreFilename)
		}
		composer = strings.TrimSpace(md.Composer)
	}

	switch {
	case pieceName != "" && composer != "":
		return Identity{
			Key:          "composer::" + composer + "|piece::" + pieceName,
			DisplayLabel: composer + " — " + pieceName,
			PieceName:    pieceName,
			Composer:     composer,
		}
	case pieceName != "":
		return Identity{
			Key:          "piece::" + pieceName,
			DisplayLabel: pieceName,
			PieceName:    pieceName,
		}
	case composer != "":
		return Identity{
			Key:          "composer_only::" + composer,
			DisplayLabel: composer,
			Composer:     composer,
		}
	default:
		stem := strings.TrimSuffix(filename, filepath.Ext(filename))
		return Identity{
			Key:          "file::" + stem,
			DisplayLabel: stem,
			PieceName:    stem,
		}
	}
}

// Collect buckets tracks by piece identity and returns only the groups
// with at least two members, the minimum for an arena comparison. Group
// labels are backfilled from whichever member carries the richest
// metadata, so insertion order never pins a sparse label.
func Collect(tracks []string, metadata map[string]*types.TrackMetadata) map[string]*types.PieceGroup {
	groups := make(map[string]*types.PieceGroup)

	for _, filename := range tracks {
		md := metadata[filename]
		id := Derive(filename, md)

		var modelName string
		if md != nil {
			modelName = strings.TrimSpace(md.ModelName)
		}

		group, ok := groups[id.Key]
		if !ok {
			group = &types.PieceGroup{
				Key:          id.Key,
				DisplayLabel: id.DisplayLabel,
				PieceName:    id.PieceName,
				Composer:     id.Composer,
			}
			groups[id.Key] = group
		}

		group.Tracks = append(group.Tracks, types.GroupTrack{
			Filename:  filename,
			ModelName: modelName,
			PieceName: id.PieceName,
			Composer:  id.Composer,
		})

		if id.Composer != "" && id.PieceName != "" {
			group.DisplayLabel = id.Composer + " — " + id.PieceName
		} else if id.PieceName != "" && group.DisplayLabel == "" {
			group.DisplayLabel = id.PieceName
		}
		if id.Composer != "" && group.Composer == "" {
			group.Composer = id.Composer
		}
		if id.PieceName != "" && group.PieceName == "" {
			group.PieceName = id.PieceName
		}
	}

	for key, group := range groups {
		if len(group.Tracks) < 2 {
			delete(groups, key)
		}
	}
	return groups
}
