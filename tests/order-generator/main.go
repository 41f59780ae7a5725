package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/cart"
	"github.com/SergeyBogomolovv/storefront-orders/internal/checkout"
	"github.com/SergeyBogomolovv/storefront-orders/internal/storefront"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type menuItem struct {
	name  string
	price decimal.Decimal
}

var menu = []menuItem{
	{"Margherita", decimal.NewFromInt(250)},
	{"Pepperoni", decimal.NewFromInt(320)},
	{"Quattro Formaggi", decimal.RequireFromString("349.90")},
	{"Caesar Salad", decimal.RequireFromString("189.50")},
	{"Tiramisu", decimal.NewFromInt(150)},
	{"Cola", decimal.RequireFromString("79.99")},
}

var names = []string{"Ann", "Boris", "Clara", "Dmitry", "Eva", "Felix"}

func main() {
	mode := flag.String("mode", "http", "submission transport: http or kafka")
	url := flag.String("url", "http://localhost:8080", "order API base url")
	brokers := flag.String("brokers", "localhost:9092", "comma separated kafka brokers")
	topic := flag.String("topic", "orders", "kafka topic")
	redisAddr := flag.String("redis", "", "redis address for carts, in-memory when empty")
	shoppers := flag.Int("shoppers", 4, "number of concurrent shoppers")
	interval := flag.Duration("interval", 2*time.Second, "pause between checkouts of one shopper")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var submitter storefront.Submitter
	switch *mode {
	case "http":
		submitter = storefront.NewClient(*url, 5*time.Second)
	case "kafka":
		kafkaSubmitter := storefront.NewKafkaSubmitter(strings.Split(*brokers, ","), *topic, 100*time.Millisecond)
		defer kafkaSubmitter.Close()
		submitter = kafkaSubmitter
	default:
		logger.Error("unknown mode", slog.String("mode", *mode))
		os.Exit(1)
	}

	var store cart.Store = cart.NewMemoryStore()
	if *redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer client.Close()
		store = cart.NewRedisStore(client, time.Hour)
	}

	var wg sync.WaitGroup
	for i := range *shoppers {
		wg.Go(func() {
			shop(ctx, logger, fmt.Sprintf("shopper-%d", i), store, submitter, *interval)
		})
	}
	wg.Wait()
}

func shop(ctx context.Context, logger *slog.Logger, id string, store cart.Store, submitter storefront.Submitter, interval time.Duration) {
	logger = logger.With(slog.String("session", id))

	s, err := storefront.Open(ctx, id, store, submitter)
	if err != nil {
		logger.Error("failed to open session", slog.Any("error", err))
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := fillCart(ctx, s); err != nil {
				logger.Error("failed to fill cart", slog.Any("error", err))
				continue
			}
			total := s.Total()
			ack, err := s.Checkout(ctx, randomCustomer())
			if err != nil {
				logger.Error("checkout failed", slog.Any("error", err))
				continue
			}
			logger.Info("order submitted",
				slog.Int64("id", ack.ID),
				slog.String("message", ack.Message),
				slog.String("total", total.StringFixed(2)),
			)
		case <-ctx.Done():
			return
		}
	}
}

func fillCart(ctx context.Context, s *storefront.Session) error {
	for range rand.Intn(4) + 1 {
		item := menu[rand.Intn(len(menu))]
		if err := s.AddItem(ctx, item.name, item.price); err != nil {
			return err
		}
	}
	if rand.Intn(4) == 0 {
		lines := s.Lines()
		return s.AdjustQuantity(ctx, lines[0].Name, rand.Intn(3)+1)
	}
	return nil
}

func randomCustomer() checkout.Customer {
	n := rand.Intn(len(names))
	customer := checkout.Customer{
		Name:    names[n],
		Phone:   fmt.Sprintf("+7999%07d", n),
		Address: fmt.Sprintf("Street %d", rand.Intn(100)+1),
	}
	if rand.Intn(2) == 0 {
		customer.Email = strings.ToLower(names[n]) + "@example.com"
	}
	if rand.Intn(3) == 0 {
		customer.PaymentMethod = "card"
	}
	return customer
}
