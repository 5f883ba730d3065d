// Package lookup holds the immutable reference tables: machine-readable
// code/name pairs plus the source catalog and the challenge-rating/XP map.
// Rows are created by migration only and are read-only through the API; none
// of these carry audit or soft-delete columns.
package lookup

// Item is one code/name reference row. The same struct backs every simple
// lookup table; the table name travels with the instance so one generic
// repository serves them all.
type Item struct {
	table string

	ID   int16  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewItem returns an entity factory bound to the given table.
func NewItem(table string) func() *Item {
	return func() *Item { return &Item{table: table} }
}

func (i *Item) Table() string           { return i.table }
func (i *Item) Columns() []string       { return []string{"id", "code", "name"} }
func (i *Item) Fields() []any           { return []any{&i.ID, &i.Code, &i.Name} }
func (i *Item) PrimaryKey() any         { return i.ID }
func (i *Item) InsertColumns() []string { return []string{"code", "name"} }
func (i *Item) InsertValues() []any     { return []any{i.Code, i.Name} }

// TableDef ties a lookup table to its URL path segment.
type TableDef struct {
	Path  string
	Table string
}

// Catalog enumerates the simple code/name lookup tables, in route order.
var Catalog = []TableDef{
	{Path: "abilities", Table: "ability"},
	{Path: "ac-types", Table: "ac_type"},
	{Path: "alignments", Table: "alignment"},
	{Path: "condition-types", Table: "condition_type"},
	{Path: "creature-types", Table: "creature_type"},
	{Path: "damage-types", Table: "damage_type"},
	{Path: "environments", Table: "environment"},
	{Path: "languages", Table: "language"},
	{Path: "sense-types", Table: "sense_type"},
	{Path: "sizes", Table: "size"},
	{Path: "skills", Table: "skill"},
	{Path: "speed-types", Table: "speed_type"},
	{Path: "tags", Table: "tag"},
}

// Source is a published rulebook or supplement.
type Source struct {
	ID          int16   `json:"id"`
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	Abbrev      *string `json:"abbrev"`
	ReleaseYear *int16  `json:"release_year"`
	Publisher   *string `json:"publisher"`
}

func (s *Source) Table() string { return "source" }
func (s *Source) Columns() []string {
	return []string{"id", "code", "title", "abbrev", "release_year", "publisher"}
}
func (s *Source) Fields() []any {
	return []any{&s.ID, &s.Code, &s.Title, &s.Abbrev, &s.ReleaseYear, &s.Publisher}
}
func (s *Source) PrimaryKey() any { return s.ID }
func (s *Source) InsertColumns() []string {
	return []string{"code", "title", "abbrev", "release_year", "publisher"}
}
func (s *Source) InsertValues() []any {
	return []any{s.Code, s.Title, s.Abbrev, s.ReleaseYear, s.Publisher}
}

// CRToXP maps a challenge rating to its XP value. The rating is the primary
// key, a NUMERIC(4,3) kept as a string to avoid float drift.
type CRToXP struct {
	ChallengeRating string `json:"challenge_rating"`
	XP              int    `json:"xp"`
}

func (c *CRToXP) Table() string           { return "cr_to_xp" }
func (c *CRToXP) Columns() []string       { return []string{"challenge_rating", "xp"} }
func (c *CRToXP) Fields() []any           { return []any{&c.ChallengeRating, &c.XP} }
func (c *CRToXP) PrimaryKey() any         { return c.ChallengeRating }
func (c *CRToXP) InsertColumns() []string { return []string{"challenge_rating", "xp"} }
func (c *CRToXP) InsertValues() []any     { return []any{c.ChallengeRating, c.XP} }
