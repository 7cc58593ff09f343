package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putCall struct {
	Key          string
	Body         string
	ContentType  string
	CacheControl string
}

type fakePutter struct {
	mu    sync.Mutex
	calls []putCall
	fail  string
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.fail {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, putCall{
		Key:          key,
		Body:         string(body),
		ContentType:  aws.ToString(in.ContentType),
		CacheControl: aws.ToString(in.CacheControl),
	})
	return &s3.PutObjectOutput{}, nil
}

func (f *fakePutter) sorted() []putCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]putCall(nil), f.calls...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPublish(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "api"), map[string]string{
		"all.json":            `{"data":[]}`,
		"pages/all/1.json":    `{}`,
		".all.json.tmp-12345": "partial",
	})
	writeFiles(t, filepath.Join(root, "wallpapers"), map[string]string{
		"nature/001.jpg": "jpeg-bytes",
	})

	fake := &fakePutter{}
	p := New(fake, "bucket", "/collection/")

	report, err := p.Publish(context.Background(),
		Tree{Dir: filepath.Join(root, "wallpapers"), KeyPrefix: "wallpapers", Immutable: true},
		Tree{Dir: filepath.Join(root, "api"), KeyPrefix: "api/v1"},
	)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if report.Objects != 3 || report.Bytes != int64(len(`{"data":[]}`)+len(`{}`)+len("jpeg-bytes")) {
		t.Errorf("report = %+v", report)
	}

	want := []putCall{
		{Key: "collection/api/v1/all.json", Body: `{"data":[]}`, ContentType: "application/json", CacheControl: documentCacheControl},
		{Key: "collection/api/v1/pages/all/1.json", Body: `{}`, ContentType: "application/json", CacheControl: documentCacheControl},
		{Key: "collection/wallpapers/nature/001.jpg", Body: "jpeg-bytes", ContentType: "image/jpeg", CacheControl: assetCacheControl},
	}
	got := fake.sorted()
	if len(got) != len(want) {
		t.Fatalf("uploaded %d objects, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPublishFollowsCatalogLink(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, ".v1.generation"), map[string]string{
		"all.json": `{"data":[]}`,
	})
	if err := os.Symlink(".v1.generation", filepath.Join(root, "v1")); err != nil {
		t.Fatal(err)
	}

	fake := &fakePutter{}
	report, err := New(fake, "bucket", "").Publish(context.Background(),
		Tree{Dir: filepath.Join(root, "v1"), KeyPrefix: "api/v1"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	got := fake.sorted()
	if report.Objects != 1 || len(got) != 1 || got[0].Key != "api/v1/all.json" {
		t.Errorf("Publish() through a link = %+v, calls %+v", report, got)
	}
}

func TestPublishStopsOnError(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.json": "a", "b.json": "b"})

	fake := &fakePutter{fail: "b.json"}
	_, err := New(fake, "bucket", "").Publish(context.Background(), Tree{Dir: root})
	if err == nil {
		t.Fatal("Publish() should fail when an upload fails")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{"", []string{"api/v1", "all.json"}, "api/v1/all.json"},
		{"site", []string{"", "all.json"}, "site/all.json"},
		{"/a/b/", []string{"c"}, "a/b/c"},
	}
	for _, tt := range tests {
		if got := New(nil, "b", tt.prefix).Key(tt.parts...); got != tt.want {
			t.Errorf("Key(%q, %v) = %q, want %q", tt.prefix, tt.parts, got, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	for key, want := range map[string]string{
		"x/all.json":  "application/json",
		"x/001.JPG":   "image/jpeg",
		"x/README.md": "application/octet-stream",
	} {
		if got := contentType(key); got != want {
			t.Errorf("contentType(%q) = %q, want %q", key, got, want)
		}
	}
}
