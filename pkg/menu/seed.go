package menu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	// RootID is the parent path of root-level nodes.
	RootID = "0"

	// DefaultSeed is the dataset used when nothing has been persisted yet.
	DefaultSeed = `{"Applications":{"Calendar":"app","Chrome":"app"}}`
)

// DefaultForest builds the forest of DefaultSeed.
func DefaultForest() Forest {
	f, err := BuildTree([]byte(DefaultSeed), RootID)
	if err != nil {
		panic(fmt.Sprintf("default seed: %v", err))
	}
	return f
}

// BuildTree converts a nested JSON object into a forest. Keys become node
// names in document order, objects become containers, scalars become the
// leaf type and null leaves both unset. Ids are assigned depth-first as
// parentID + "/" + index.
func BuildTree(data []byte, parentID string) (Forest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrInvalidSeed
	}

	f, err := buildObject(dec, parentID)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after seed object: %w", ErrInvalidSeed)
	}
	return f, nil
}

// buildObject reads the members of an object whose opening brace is consumed.
func buildObject(dec *json.Decoder, parentID string) (Forest, error) {
	out := Forest{}
	for idx := 0; dec.More(); idx++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read seed key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected seed token %v: %w", tok, ErrInvalidSeed)
		}

		n := &Node{ID: parentID + "/" + strconv.Itoa(idx), Name: key}

		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read seed value of %q: %w", key, err)
		}
		switch v := tok.(type) {
		case json.Delim:
			if v != '{' {
				return nil, fmt.Errorf("value of %q: %w", key, ErrInvalidSeed)
			}
			if n.Children, err = buildObject(dec, n.ID); err != nil {
				return nil, err
			}
		case nil:
		case string:
			n.Type = v
		default:
			n.Type = fmt.Sprint(v)
		}

		out = append(out, n)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return out, nil
}
