package raindrop

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// BaseURL is the Raindrop.io REST API root
	BaseURL = "https://api.raindrop.io/rest/v1"

	// CollectionsEndpoint lists root collections
	CollectionsEndpoint = "/collections"

	// ChildCollectionsEndpoint lists every nested collection
	ChildCollectionsEndpoint = "/collections/childrens"

	// DefaultPerPage is the page size used when listing items
	DefaultPerPage = 50

	// MaxPerPage is the largest page the service accepts
	MaxPerPage = 50

	// MaxPages bounds how many pages of one collection are requested
	MaxPages = 100
)

// ItemsPath builds the path for one page of a collection's items
func ItemsPath(collectionID int64, page, perPage int, nested bool) string {
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	if page < 0 {
		page = 0
	}

	params := url.Values{}
	params.Set("perpage", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	if nested {
		params.Set("nested", "true")
	}

	return fmt.Sprintf("/raindrops/%d?%s", collectionID, params.Encode())
}

// ItemPath builds the path for a single item
func ItemPath(itemID int64) string {
	return fmt.Sprintf("/raindrop/%d", itemID)
}
