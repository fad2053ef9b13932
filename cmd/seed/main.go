package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"libraryapi/internal/book"
	"libraryapi/internal/config"
	"libraryapi/internal/store"
)

func main() {
	count := flag.Int("count", 100, "number of books to generate")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx := context.Background()
	repo, closeStore, err := store.Open(ctx, store.Options{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DBDSN,
		SQLitePath:  cfg.SQLitePath,
		Timeout:     cfg.DBTimeout,
		AutoMigrate: cfg.AutoMigrate,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	service := book.NewService(repo)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	logger.Info("generating books", "count", *count)
	created, skipped := 0, 0
	for i := 0; i < *count; i++ {
		in := randomBook(rng, i, time.Now().Year())
		if _, err := service.Create(ctx, in); err != nil {
			if errors.Is(err, book.ErrConflict) {
				skipped++
				continue
			}
			log.Fatalf("Failed to insert book %d: %v", i+1, err)
		}
		created++
		if created%100 == 0 {
			logger.Info("progress", "created", created)
		}
	}

	total, err := service.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count books: %v", err)
	}
	logger.Info("seed complete", "created", created, "skipped_duplicates", skipped, "total", total)
}

var (
	words = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	firstNames = []string{"Ursula", "Isaac", "Octavia", "Frank", "Mary", "Jorge", "Toni", "Italo"}
	lastNames  = []string{"Le Guin", "Asimov", "Butler", "Herbert", "Shelley", "Borges", "Morrison", "Calvino"}
)

func randomBook(rng *rand.Rand, i, currentYear int) book.CreateInput {
	title := fmt.Sprintf("The %s of %s", pick(rng, words), pick(rng, words))
	author := pick(rng, firstNames) + " " + pick(rng, lastNames)
	isbn := isbn13(fmt.Sprintf("978%09d", (i*7919+rng.Intn(1000))%1_000_000_000))
	year := 1900 + rng.Intn(currentYear-1900+1)
	available := rng.Intn(4) != 0

	return book.CreateInput{
		Title:           &title,
		Author:          &author,
		ISBN:            &isbn,
		PublicationYear: &year,
		Available:       &available,
	}
}

// isbn13 appends the EAN-13 check digit to a 12 digit prefix.
func isbn13(prefix string) string {
	sum := 0
	for i, c := range prefix {
		d := int(c - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return prefix + strconv.Itoa((10-sum%10)%10)
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}
