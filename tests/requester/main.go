package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "order API base url")
	maxID := flag.Int("max-id", 100, "upper bound for requested order ids")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	for {
		var wg sync.WaitGroup
		for range rand.Intn(10) {
			wg.Go(func() { doRequest(client, *baseURL, *maxID) })
		}
		wg.Wait()
		time.Sleep(20 * time.Millisecond)
	}
}

func randomPath(maxID int) string {
	switch rand.Intn(10) {
	case 0:
		return "/api/orders?limit=20"
	case 1:
		return "/api/dashboard/stats"
	case 2:
		return "/api/orders/not-a-number"
	case 3, 4:
		return fmt.Sprintf("/api/orders/%d", rand.Intn(maxID)+1)
	default:
		// hot orders, served from cache
		return fmt.Sprintf("/api/orders/%d", rand.Intn(min(maxID, 5))+1)
	}
}

func doRequest(client *http.Client, baseURL string, maxID int) {
	url := baseURL + randomPath(maxID)
	resp, err := client.Get(url)
	if err != nil {
		fmt.Println("request failed:", err)
		return
	}
	fmt.Println("GET", url, "->", resp.Status)
	resp.Body.Close()
}
