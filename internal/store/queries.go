package store

// Canonical statement templates for the portfolio tables. Every caller
// that touches the asset/tag/association join does it through these
// constructors so the join semantics cannot drift between call sites.

func InsertAssetQuery(filename, bucketURL, description, altText string) *Query {
	return NewQuery(`
		INSERT INTO portfolio_images (filename, bucket_url, description, alt_text)
		VALUES ($1, $2, $3, $4)
	`, filename, bucketURL, description, altText)
}

// InsertAssociationQuery links filename to tagName by resolving the tag id
// inline. If the tag does not exist the statement inserts nothing; it does
// not fail.
func InsertAssociationQuery(filename, tagName string) *Query {
	return NewQuery(`
		INSERT INTO portfolio_image_tags_assoc (filename, tag_id)
		SELECT $1, tags.tag_id
		FROM portfolio_tags tags
		WHERE tags.tag_name = $2
	`, filename, tagName)
}

func DeleteAssociationsByFilenameQuery(filename string) *Query {
	return NewQuery(`
		DELETE FROM portfolio_image_tags_assoc assoc
		WHERE assoc.filename = $1
	`, filename)
}

func DeleteAssetQuery(filename string) *Query {
	return NewQuery(`
		DELETE FROM portfolio_images images
		WHERE images.filename = $1
	`, filename)
}

func InsertTagQuery(tagName string) *Query {
	return NewQuery(`
		INSERT INTO portfolio_tags (tag_name)
		VALUES ($1)
	`, tagName)
}

func DeleteAssociationsByTagQuery(tagName string) *Query {
	return NewQuery(`
		DELETE FROM portfolio_image_tags_assoc assoc
		WHERE assoc.tag_id = (
			SELECT tags.tag_id
			FROM portfolio_tags tags
			WHERE tags.tag_name = $1
		)
	`, tagName)
}

func DeleteTagQuery(tagName string) *Query {
	return NewQuery(`
		DELETE FROM portfolio_tags tags
		WHERE tags.tag_name = $1
	`, tagName)
}

func DeleteAssociationQuery(filename, tagName string) *Query {
	return NewQuery(`
		DELETE FROM portfolio_image_tags_assoc assoc
		WHERE assoc.filename = $1
		AND assoc.tag_id = (
			SELECT tags.tag_id
			FROM portfolio_tags tags
			WHERE tags.tag_name = $2
		)
	`, filename, tagName)
}

func AllAssetsQuery() *Query {
	return NewQuery(`
		SELECT images.filename, images.bucket_url, images.description, images.alt_text
		FROM portfolio_images images
	`)
}

func AssetsByTagQuery(tagName string) *Query {
	return NewQuery(`
		SELECT images.filename, images.bucket_url, images.description, images.alt_text
		FROM portfolio_tags tag
		JOIN portfolio_image_tags_assoc assoc
			ON tag.tag_name = $1
		JOIN portfolio_images images
			ON images.filename = assoc.filename
		WHERE tag.tag_id = assoc.tag_id
	`, tagName)
}

func AllTagNamesQuery() *Query {
	return NewQuery(`
		SELECT tags.tag_name
		FROM portfolio_tags tags
	`)
}

func AllFilenamesQuery() *Query {
	return NewQuery(`
		SELECT images.filename
		FROM portfolio_images images
	`)
}

func AllAssociationsQuery() *Query {
	return NewQuery(`
		SELECT assoc.filename, tags.tag_name
		FROM portfolio_image_tags_assoc assoc
		JOIN portfolio_tags tags
			ON assoc.tag_id = tags.tag_id
	`)
}
