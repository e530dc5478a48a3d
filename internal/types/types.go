package types

import "time"

// Track is a single ratable audio rendition, identified by its filename in
// the uploads directory. Metadata is optional and attached by filename.
type Track struct {
	Filename string
	Metadata *TrackMetadata
}

// TrackMetadata is one row of metadata.csv. All fields except Filename and
// UploadedAt are optional free text supplied at upload time.
type TrackMetadata struct {
	Filename      string
	ModelName     string
	Composer      string
	PieceName     string
	ScoreFilename string
	UploadedAt    time.Time
}

// Rating is one row of ratings.csv. Score is validated to [1,10] before a
// row is ever written.
type Rating struct {
	Timestamp time.Time
	Filename  string
	Score     int
	IP        string
	Email     string
	Remark    string
}

// ArenaMatch is one row of model_arena_matches.csv: a single blind A/B
// comparison between two renditions of the same piece.
type ArenaMatch struct {
	Timestamp   time.Time
	Email       string
	PieceKey    string
	PieceLabel  string
	TrackA      string
	TrackB      string
	ModelA      string
	ModelB      string
	WinnerLabel string // "A" or "B"
	WinnerTrack string
	WinnerModel string
	Feedback    string
	IP          string
}

// PieceGroup is the derived set of tracks sharing a piece identity. Groups
// are materialized on demand and never persisted.
type PieceGroup struct {
	Key          string
	DisplayLabel string
	PieceName    string
	Composer     string
	Tracks       []GroupTrack
}

// GroupTrack is one member of a PieceGroup.
type GroupTrack struct {
	Filename  string
	ModelName string
	PieceName string
	Composer  string
}
