package models

/*
Cover is the representative image chosen for one (category, album) group.
OptimizedURL mirrors ImageURL; URL transformation belongs to the
presentation layer, not this pipeline.
*/
type Cover struct {
	Category     string `json:"category"`
	Album        string `json:"album"`
	ImageURL     string `json:"imageUrl"`
	OptimizedURL string `json:"optimizedUrl"`
}

/*
CoverCache holds exactly one cover per distinct (category, album) pair in the
catalog index. Version is the generation time in Unix milliseconds; the front
end uses it to detect staleness.
*/
type CoverCache struct {
	Version int64   `json:"version"`
	Covers  []Cover `json:"covers"`
}
