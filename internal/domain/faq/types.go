package faq

import "time"

// Row is one raw question/answer record read from the source CSV.
type Row struct {
	Line     int
	Question string
	Answer   string
	Type     string
}

// Entry is a stored FAQ row together with its embedding.
type Entry struct {
	ID        string
	Question  string
	Answer    string
	Type      string
	Embedding []float32
}

// Match is an entry returned by a nearest-neighbour query.
type Match struct {
	Entry    Entry
	Distance float64
}

// IngestReport summarises a single ingestion run.
type IngestReport struct {
	RowsRead          int
	MissingDropped    int
	DuplicatesDropped int
	Upserted          int
	Commits           int
	StartedAt         time.Time
	FinishedAt        time.Time
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Text    string
	Matches []Match
	// Unavailable is set when the model server has no generation backend loaded.
	Unavailable bool
}
