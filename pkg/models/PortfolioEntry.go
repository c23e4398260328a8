package models

import (
	"encoding/json"

	"github.com/crocodeal/crocodealphotographie/pkg/frontmatter"
)

/*
TruthyBool is a boolean that tolerates the legacy encodings found in older
index files and frontmatter: true, "true", "True", "TRUE", 1, "1". It always
marshals back to a plain JSON boolean.
*/
type TruthyBool bool

func (b *TruthyBool) UnmarshalJSON(data []byte) error {
	var raw any

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = TruthyBool(frontmatter.IsCoverTrue(raw))
	return nil
}

func (b TruthyBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

/*
PortfolioEntry is one published photograph. Entries are created by parsing a
single content file and are immutable once validated.
*/
type PortfolioEntry struct {
	Image    string     `json:"image"`
	Title    string     `json:"title"`
	Category string     `json:"category"`
	Album    string     `json:"album"`
	Date     string     `json:"date"`
	IsCover  TruthyBool `json:"isCover,omitempty"`
}

/*
EntryFromFrontmatter builds an entry from parsed frontmatter data. Older
files use imageUrl instead of image; both are accepted.
*/
func EntryFromFrontmatter(data map[string]any) PortfolioEntry {
	entry := PortfolioEntry{
		Image:    stringField(data, "image"),
		Title:    stringField(data, "title"),
		Category: stringField(data, "category"),
		Album:    stringField(data, "album"),
		Date:     stringField(data, "date"),
		IsCover:  TruthyBool(frontmatter.IsCoverTrue(data["isCover"])),
	}

	if entry.Image == "" {
		entry.Image = stringField(data, "imageUrl")
	}

	return entry
}

func stringField(data map[string]any, key string) string {
	if value, ok := data[key].(string); ok {
		return value
	}

	return ""
}
