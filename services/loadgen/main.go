package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// purchaseResponse espelha a resposta do serviço de compras
type purchaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Dispara N tentativas de compra concorrentes de usuários distintos e
// tabula as mensagens retornadas. Útil para validar o cenário clássico:
// estoque 3, 10 usuários -> 3 aceitos, 7 sem estoque.
func main() {
	target := getEnv("TARGET_URL", "http://localhost:8080")
	saleID := getEnv("SALE_ID", "sale-1")
	users, err := strconv.Atoi(getEnv("USERS", "10"))
	if err != nil || users <= 0 {
		log.Fatalf("invalid USERS value: %v", err)
	}

	client := resty.New().
		SetBaseURL(target).
		SetTimeout(10 * time.Second)

	var mu sync.Mutex
	tally := make(map[string]int)
	var accepted, denied, failed int

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			var out purchaseResponse
			resp, err := client.R().
				SetBody(map[string]string{
					"user_id": fmt.Sprintf("user-%d", i),
					"sale_id": saleID,
				}).
				SetResult(&out).
				Post("/api/purchases")

			mu.Lock()
			defer mu.Unlock()
			if err != nil || resp.IsError() {
				failed++
				tally["<request error>"]++
				return
			}
			if out.Success {
				accepted++
			} else {
				denied++
			}
			tally[out.Message]++
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("🏁 %d attempts against %s in %s\n", users, target, elapsed)
	fmt.Printf("   accepted=%d denied=%d errors=%d\n\n", accepted, denied, failed)

	messages := make([]string, 0, len(tally))
	for msg := range tally {
		messages = append(messages, msg)
	}
	sort.Strings(messages)
	for _, msg := range messages {
		fmt.Printf("%4d  %s\n", tally[msg], msg)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
