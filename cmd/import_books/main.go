package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"booktrack/config"
	"booktrack/library"
)

// import_books creates every book of a JSON file in the logged in user's
// collection. The file holds an array of
// {"title","author","genre","description","totalPages"} objects.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: import_books <books.json>")
		os.Exit(2)
	}
	path := os.Args[1]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	manager, err := library.NewLibraryManager(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session store: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	st, err := manager.Status(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading session: %v\n", err)
		os.Exit(1)
	}
	if !st.LoggedIn {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'booktrack login' first.")
		os.Exit(1)
	}

	fmt.Printf("Importing books from %s...\n", path)
	results, err := manager.ImportBooksFromFile(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading import file: %v\n", err)
		os.Exit(1)
	}

	successCount := 0
	errorCount := 0
	for _, r := range results {
		fmt.Printf("Importing: %s by %s... ", r.Fields.Title, r.Fields.Author)
		if r.Err != nil {
			fmt.Printf("ERROR - %v\n", r.Err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %s)\n", r.Book.ID)
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	// Display summary of the whole collection
	if successCount > 0 {
		fmt.Println("\nYour books:")
		books, err := manager.GetAllBooks(ctx, nil)
		if err != nil {
			fmt.Printf("Error retrieving books: %v\n", err)
		} else {
			fmt.Printf("%-36s %-50s %-30s\n", "ID", "Title", "Author")
			fmt.Println(strings.Repeat("-", 118))
			for _, book := range books {
				fmt.Printf("%-36s %-50s %-30s\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30))
			}
		}
	}
	if errorCount > 0 {
		manager.Close()
		os.Exit(1)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
