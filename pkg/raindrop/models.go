package raindrop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Collection is a folder of items. Parent is nil for root collections.
type Collection struct {
	ID     int64
	Title  string
	Count  int
	Parent *int64
}

// Item is a single saved bookmark
type Item struct {
	ID           int64
	Title        string
	Link         string
	Excerpt      string
	Tags         []string
	CollectionID int64
}

// Ref is a reference to another object. The service sends it as
// {"$id": N}, {"id": N}, a bare N, or null.
type Ref struct {
	ID    int64
	Valid bool
}

// UnmarshalJSON normalizes every reference form to a bare identifier
func (r *Ref) UnmarshalJSON(data []byte) error {
	*r = Ref{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '{':
		var obj struct {
			DollarID json.RawMessage `json:"$id"`
			ID       json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("invalid reference object: %w", err)
		}
		raw := obj.DollarID
		if len(raw) == 0 || string(raw) == "null" {
			raw = obj.ID
		}
		if len(raw) == 0 || string(raw) == "null" {
			return nil
		}
		return r.UnmarshalJSON(raw)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid reference id %q", s)
		}
		*r = Ref{ID: id, Valid: true}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid reference %s", string(data))
		}
		id, err := n.Int64()
		if err != nil {
			return fmt.Errorf("invalid reference id %s", n)
		}
		*r = Ref{ID: id, Valid: true}
		return nil
	}
}

// Ptr returns the identifier as a pointer, nil when unset
func (r Ref) Ptr() *int64 {
	if !r.Valid {
		return nil
	}
	id := r.ID
	return &id
}

type collectionJSON struct {
	ID     int64  `json:"_id"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
	Parent Ref    `json:"parent"`
}

// UnmarshalJSON decodes the wire form and resolves the parent reference
func (c *Collection) UnmarshalJSON(data []byte) error {
	var raw collectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Collection{ID: raw.ID, Title: raw.Title, Count: raw.Count, Parent: raw.Parent.Ptr()}
	return nil
}

type itemJSON struct {
	ID         int64    `json:"_id"`
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	Excerpt    string   `json:"excerpt"`
	Tags       []string `json:"tags"`
	Collection Ref      `json:"collection"`
}

// UnmarshalJSON decodes the wire form and resolves the collection reference
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Item{
		ID:           raw.ID,
		Title:        raw.Title,
		Link:         raw.Link,
		Excerpt:      raw.Excerpt,
		Tags:         raw.Tags,
		CollectionID: raw.Collection.ID,
	}
	return nil
}

// envelope is the common response wrapper
type envelope struct {
	Result       *bool  `json:"result"`
	ErrorMessage string `json:"errorMessage"`
}

type collectionsResponse struct {
	envelope
	Items []Collection `json:"items"`
}

type itemsResponse struct {
	envelope
	Items []Item `json:"items"`
	Count int    `json:"count"`
}

type itemResponse struct {
	envelope
	Item Item `json:"item"`
}

type updateTagsRequest struct {
	Tags []string `json:"tags"`
}

// apiFailure reports a 2xx response whose body still says result=false
func (e envelope) apiFailure() (string, bool) {
	if e.Result != nil && !*e.Result {
		return e.ErrorMessage, true
	}
	return "", false
}
