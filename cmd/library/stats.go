package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
	"github.com/isitech/bibliotheque/internal/core/service"
	"github.com/isitech/bibliotheque/internal/infrastructure/memory"
	"github.com/isitech/bibliotheque/internal/pkg/config"
	"github.com/isitech/bibliotheque/pkg/logger"
)

func runStats(ctx context.Context, w io.Writer, cfg *config.Config) error {
	svc := service.NewLibraryService(cfg.Library.Name, memory.NewCatalog(), memory.NewRegistry(), logger.For("library"))
	if cfg.Library.Seed {
		if err := seedLibrary(ctx, svc); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return writeStats(w, svc.Stats(ctx))
}

// writeStats prints the console report, user types in alphabetical order.
func writeStats(w io.Writer, s domain.Stats) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== STATISTIQUES %s ===\n", strings.ToUpper(s.LibraryName))
	fmt.Fprintf(&b, "Total livres: %d\n", s.TotalBooks)
	fmt.Fprintf(&b, "Livres disponibles: %d\n", s.AvailableBooks)
	fmt.Fprintf(&b, "Livres empruntés: %d\n", s.BorrowedBooks)
	fmt.Fprintf(&b, "Total utilisateurs: %d\n", s.TotalUsers)
	b.WriteString("Utilisateurs par type:\n")

	types := make([]string, 0, len(s.UsersByType))
	for t := range s.UsersByType {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		fmt.Fprintf(&b, "  %s: %d\n", t, s.UsersByType[t])
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// seedLibrary loads the demonstration catalog.
func seedLibrary(ctx context.Context, svc ports.LibraryService) error {
	books := []ports.AddBookInput{
		{
			ID: "1", Title: "Java Facile", Author: "Auteur A", Pages: 300,
			Publisher: "Éditions Tech", PublishedOn: time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "2", Title: "Maths pour Tous", Author: "Auteur B", Pages: 200,
			Publisher: "Éditions Math", PublishedOn: time.Date(2019, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, in := range books {
		if _, err := svc.AddBook(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
