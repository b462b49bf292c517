package fragment

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/jonwraymond/fragcache/cache"
)

func BenchmarkDeriveKey_Block(b *testing.B) {
	for b.Loop() {
		_, _ = DeriveKey("widgets/most-commented.php:18", Block("sidebar"))
	}
}

func BenchmarkDeriveKey_Query(b *testing.B) {
	q := map[string]any{"post_type": "post", "paged": 2, "tax_query": []any{map[string]any{"taxonomy": "category", "terms": []int{1, 2, 3}}}}
	for b.Loop() {
		_, _ = DeriveKey("archive.php:12", Query(q))
	}
}

func BenchmarkBegin_Hit(b *testing.B) {
	ctx := context.Background()
	eng, err := New(ctx, cache.NewMemoryCache(), Config{Enabled: true})
	if err != nil {
		b.Fatal(err)
	}
	body := strings.Repeat("<li>item</li>", 200)
	f, _ := eng.Begin(ctx, io.Discard, "widgets/list.php:1", Block("list"))
	_, _ = f.WriteString(body)
	_ = f.End()

	b.ReportAllocs()
	for b.Loop() {
		if _, hit := eng.Begin(ctx, io.Discard, "widgets/list.php:1", Block("list")); !hit {
			b.Fatal("expected hit")
		}
	}
}

func BenchmarkBegin_Disabled(b *testing.B) {
	ctx := context.Background()
	eng, err := New(ctx, cache.NewMemoryCache(), Config{})
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		f, _ := eng.Begin(ctx, io.Discard, "widgets/list.php:1", Block("list"))
		_, _ = f.WriteString("<li>item</li>")
		_ = f.End()
	}
}
