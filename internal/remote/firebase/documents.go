package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"spendly/internal/remote"
)

// Documents reads and writes Firestore documents in the default database.
type Documents struct {
	svc       *firestore.Service
	projectID string
}

var _ remote.DocumentStore = (*Documents)(nil)

// NewDocuments creates the Firestore client. Requests carry the ID token
// from ts, so security rules see the signed-in user.
func NewDocuments(ctx context.Context, projectID string, ts *Auth, opts ...option.ClientOption) (*Documents, error) {
	if projectID == "" {
		return nil, errors.New("missing Firebase project ID")
	}
	svc, err := firestore.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("firestore service: %w", err)
	}
	return &Documents{svc: svc, projectID: projectID}, nil
}

func (d *Documents) name(collection, key string) string {
	return fmt.Sprintf("projects/%s/databases/(default)/documents/%s/%s", d.projectID, collection, key)
}

func (d *Documents) ReadDocument(ctx context.Context, collection, key string) (remote.Document, bool, error) {
	doc, err := d.svc.Projects.Databases.Documents.Get(d.name(collection, key)).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}

	out, err := decodeFields(doc.Fields)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return out, true, nil
}

// WriteDocument patches the document. With merge the update mask lists only
// the fields of doc, so other stored fields are kept.
func (d *Documents) WriteDocument(ctx context.Context, collection, key string, doc remote.Document, merge bool) error {
	body, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}

	call := d.svc.Projects.Databases.Documents.Patch(d.name(collection, key), body).Context(ctx)
	if merge {
		call = call.UpdateMaskFieldPaths(fieldPaths(doc)...)
	}
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("patch %s/%s: %w", collection, key, err)
	}
	return nil
}

func fieldPaths(doc remote.Document) []string {
	paths := make([]string, 0, len(doc))
	for k := range doc {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// encodeDocument builds the Firestore wire form and decodes it into the
// generated type.
func encodeDocument(doc remote.Document) (*firestore.Document, error) {
	fields := make(map[string]map[string]any, len(doc))
	for k, v := range doc {
		enc, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = enc
	}

	raw, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return nil, err
	}
	var out firestore.Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func encodeValue(v any) (map[string]any, error) {
	switch x := v.(type) {
	case nil:
		return map[string]any{"nullValue": "NULL_VALUE"}, nil
	case string:
		return map[string]any{"stringValue": x}, nil
	case bool:
		return map[string]any{"booleanValue": x}, nil
	case int:
		return map[string]any{"integerValue": strconv.Itoa(x)}, nil
	case int64:
		return map[string]any{"integerValue": strconv.FormatInt(x, 10)}, nil
	case float64:
		return map[string]any{"doubleValue": x}, nil
	case time.Time:
		return map[string]any{"timestampValue": x.UTC().Format(time.RFC3339Nano)}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

type wireValue struct {
	StringValue    *string  `json:"stringValue"`
	BooleanValue   *bool    `json:"booleanValue"`
	IntegerValue   *string  `json:"integerValue"`
	DoubleValue    *float64 `json:"doubleValue"`
	TimestampValue *string  `json:"timestampValue"`
	NullValue      *string  `json:"nullValue"`
}

func decodeFields(fields any) (remote.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var wire map[string]wireValue
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	out := make(remote.Document, len(wire))
	for k, v := range wire {
		switch {
		case v.StringValue != nil:
			out[k] = *v.StringValue
		case v.BooleanValue != nil:
			out[k] = *v.BooleanValue
		case v.IntegerValue != nil:
			n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = n
		case v.DoubleValue != nil:
			out[k] = *v.DoubleValue
		case v.TimestampValue != nil:
			ts, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = ts
		default:
			// null, or a type profiles never store
			out[k] = nil
		}
	}
	return out, nil
}
