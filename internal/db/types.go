package db

type Settings struct {
	DefaultBook  string `db:"default_book"`
	SelectPolicy string `db:"select_policy"`
	BookMaxPlies int    `db:"book_max_plies"`
}

// Personality is a catalog row. RawParams and EngineParams hold JSON.
type Personality struct {
	Name         string `db:"name"`
	Version      string `db:"version"`
	Rating       int    `db:"rating"`
	Book         string `db:"book"`
	Face         string `db:"face"`
	Summary      string `db:"summary"`
	Bio          string `db:"bio"`
	Style        string `db:"style"`
	RawParams    string `db:"raw_params"`
	EngineParams string `db:"engine_params"`
	Ponder       string `db:"ponder"`
	UpdatedAt    string `db:"updated_at"`
}

type BookUsage struct {
	Book  string `db:"book"`
	Count int    `db:"count"`
}
