package store

// Asset is one image's metadata row.
type Asset struct {
	Filename    string `json:"filename"`
	BucketURL   string `json:"bucket_url"`
	Description string `json:"description"`
	AltText     string `json:"alt_text"`
}

// Association pairs an asset filename with a tag name.
type Association struct {
	Filename string `json:"filename"`
	TagName  string `json:"tag_name"`
}

// AssetsFromRows copies asset fields out of batch result rows.
func AssetsFromRows(rows []map[string]any) []Asset {
	assets := make([]Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, Asset{
			Filename:    stringValue(row, "filename"),
			BucketURL:   stringValue(row, "bucket_url"),
			Description: stringValue(row, "description"),
			AltText:     stringValue(row, "alt_text"),
		})
	}
	return assets
}

// AssociationsFromRows copies (filename, tag_name) pairs out of batch
// result rows.
func AssociationsFromRows(rows []map[string]any) []Association {
	assocs := make([]Association, 0, len(rows))
	for _, row := range rows {
		assocs = append(assocs, Association{
			Filename: stringValue(row, "filename"),
			TagName:  stringValue(row, "tag_name"),
		})
	}
	return assocs
}

// StringColumn pulls a single text column out of batch result rows.
func StringColumn(rows []map[string]any, column string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, stringValue(row, column))
	}
	return out
}

func stringValue(row map[string]any, column string) string {
	v, ok := row[column]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
