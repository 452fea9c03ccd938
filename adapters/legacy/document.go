// Package legacy reads portfolio documents exported from the previous
// document store.
package legacy

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Bookkeeping keys the old store added at every nesting level.
var internalFields = []string{"_id", "__v"}

// Document is one exported portfolio. Fields holds the portfolio body with
// bookkeeping already removed.
type Document struct {
	Line      int
	OwnerID   string
	Username  string
	IsPrivate bool
	Fields    map[string]any
}

// RemoveInternalFields returns v with "_id" and "__v" dropped from every
// object, including objects nested in arrays. v is not modified.
func RemoveInternalFields(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if isInternal(k) {
				continue
			}
			out[k] = RemoveInternalFields(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = RemoveInternalFields(val)
		}
		return out
	default:
		return v
	}
}

func isInternal(key string) bool {
	for _, f := range internalFields {
		if key == f {
			return true
		}
	}
	return false
}

// ReadDocuments accepts a JSON array of documents or newline delimited JSON.
func ReadDocuments(r io.Reader) ([]Document, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)

	var raws []map[string]any
	if first == '[' {
		if err := dec.Decode(&raws); err != nil {
			return nil, fmt.Errorf("decode document array: %w", err)
		}
	} else {
		for {
			var m map[string]any
			if err := dec.Decode(&m); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("decode document %d: %w", len(raws)+1, err)
			}
			raws = append(raws, m)
		}
	}

	docs := make([]Document, 0, len(raws))
	for i, raw := range raws {
		docs = append(docs, toDocument(i+1, raw))
	}
	return docs, nil
}

func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}

func toDocument(line int, raw map[string]any) Document {
	cleaned, _ := RemoveInternalFields(raw).(map[string]any)
	doc := Document{Line: line, Fields: cleaned}

	if id, ok := cleaned["clerkId"].(string); ok {
		doc.OwnerID = id
	}
	if u, ok := cleaned["username"].(string); ok {
		doc.Username = u
	}
	if p, ok := cleaned["is_private"].(bool); ok {
		doc.IsPrivate = p
	}
	for _, k := range []string{"clerkId", "username", "is_private", "createdAt", "updatedAt"} {
		delete(cleaned, k)
	}
	return doc
}
