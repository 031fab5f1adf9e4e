package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TerraMA2/terrama2-sub002/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves the path-style object calls the adapter makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/projects")
	key = strings.TrimPrefix(key, "/")

	switch {
	case r.Method == http.MethodGet && key == "":
		prefix := r.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>projects</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><IsTruncated>false</IsTruncated>`, prefix, len(keys))
		for _, k := range keys {
			fmt.Fprintf(w, `<Contents><Key>%s</Key><Size>%d</Size></Contents>`, k, len(f.objects[k]))
		}
		fmt.Fprint(w, `</ListBucketResult>`)
	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		data, ok := f.objects[key]
		if !ok {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		if r.Method == http.MethodGet {
			w.Write(data)
		}
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestAdapter(t *testing.T) (*Adapter, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	a, err := NewAdapter(context.Background(), Config{
		Endpoint:        srv.URL,
		Bucket:          "projects",
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	return a, fake
}

func TestAdapter_PutGetDelete(t *testing.T) {
	a, fake := newTestAdapter(t)
	ctx := context.Background()

	var ops []string
	a.SetOperationObserver(func(op string, _ time.Duration, bytes int, err error) {
		ops = append(ops, fmt.Sprintf("%s:%d:%v", op, bytes, err == nil))
	})

	require.NoError(t, a.PutObject(ctx, "exports/1/a.json", []byte(`{"Projects":[]}`), "application/json"))
	assert.Equal(t, "application/json", fake.types["exports/1/a.json"])

	data, err := a.GetObject(ctx, "exports/1/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"Projects":[]}`, string(data))

	exists, err := a.ObjectExists(ctx, "exports/1/a.json")
	require.NoError(t, err)
	assert.True(t, exists)

	keys, err := a.ListObjects(ctx, "exports/1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"exports/1/a.json"}, keys)

	require.NoError(t, a.DeleteObject(ctx, "exports/1/a.json"))
	exists, err = a.ObjectExists(ctx, "exports/1/a.json")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, []string{"put:15:true", "get:15:true", "list:0:true", "delete:0:true"}, ops)
	assert.Equal(t, "projects", a.Bucket())
}

func TestAdapter_GetMissingIsNotFound(t *testing.T) {
	a, _ := newTestAdapter(t)

	_, err := a.GetObject(context.Background(), "exports/9/none.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
