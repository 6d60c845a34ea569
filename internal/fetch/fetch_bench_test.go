package fetch

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strconv"
    "testing"
    "time"

    "github.com/hyperifyio/dagenslunch/internal/cache"
)

// Benchmark GetPage at different concurrency limits, with and without the
// conditional-GET cache.
func BenchmarkClient_GetPage(b *testing.B) {
    page := []byte("<html><body><main><h2>Måndag</h2><p>Köttbullar med potatismos</p></main></body></html>")
    ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Header.Get("If-None-Match") == `"menu"` {
            w.WriteHeader(http.StatusNotModified)
            return
        }
        w.Header().Set("Content-Type", "text/html; charset=utf-8")
        w.Header().Set("ETag", `"menu"`)
        _, _ = w.Write(page)
    }))
    defer ts.Close()

    run := func(name string, maxConc int, cached bool) {
        b.Run(name, func(b *testing.B) {
            cli := &Client{
                HTTPClient:        ts.Client(),
                UserAgent:         "bench/1",
                MaxAttempts:       1,
                PerRequestTimeout: 2 * time.Second,
                MaxConcurrent:     maxConc,
            }
            if cached {
                cli.Cache = &cache.PageCache{Dir: b.TempDir()}
            }
            ctx := context.Background()
            b.ReportAllocs()
            b.ResetTimer()
            b.RunParallel(func(pb *testing.PB) {
                for pb.Next() {
                    if _, err := cli.GetPage(ctx, ts.URL); err != nil {
                        b.Errorf("get: %v", err)
                        return
                    }
                }
            })
        })
    }

    for _, c := range []int{1, 4, 8} {
        run("conc="+strconv.Itoa(c), c, false)
        run("conc="+strconv.Itoa(c)+"/cached", c, true)
    }
}
