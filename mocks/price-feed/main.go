// Command price-feed is a standalone mock of an external price feed. It
// serves the contract the aggregator's HTTP provider expects and exists so
// the server can be exercised locally with VOUCH_PRICE_FEEDS pointed at it.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

type quote struct {
	Price     uint64 `json:"price"`
	Available bool   `json:"available"`
}

var catalog = map[string]uint64{
	"demo-item": 1095,
	"widget-9":  1049,
}

func main() {
	addr := flag.String("addr", ":9091", "listen address")
	jitter := flag.Duration("jitter", 0, "max artificial latency per request")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /price/{item}", func(w http.ResponseWriter, r *http.Request) {
		if *jitter > 0 {
			time.Sleep(time.Duration(rand.Int63n(int64(*jitter))))
		}
		item := strings.TrimSpace(r.PathValue("item"))
		price, ok := catalog[item]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(quote{Price: price, Available: true})
	})

	log.Printf("mock price feed listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}
