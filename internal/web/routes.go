package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/roach88/rollcall/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	attendanceHandler := handlers.NewAttendanceHandler(s.engine, s.clock)
	peopleHandler := handlers.NewPeopleHandler(s.engine, s.clock)
	cardsHandler := handlers.NewCardsHandler(s.engine, s.clock)
	ledgerHandler := handlers.NewLedgerHandler(s.engine)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Recognition events and session close
		r.Post("/attendance", attendanceHandler.Record)
		r.Post("/scans", attendanceHandler.Scan)
		r.Post("/sweeps", attendanceHandler.Sweep)
		r.Get("/sweeps", ledgerHandler.Sweeps)

		// Roster
		r.Get("/people", peopleHandler.List)
		r.Post("/people", peopleHandler.Create)
		r.Get("/people/{name}", peopleHandler.Get)
		r.Get("/people/{name}/history", ledgerHandler.History)
		r.Post("/people/{name}/drop", peopleHandler.Drop)
		r.Post("/people/{name}/reactivate", peopleHandler.Reactivate)
		r.Post("/people/{name}/reset", peopleHandler.Reset)

		// Cards
		r.Get("/cards", cardsHandler.List)
		r.Post("/cards", cardsHandler.Link)
		r.Get("/cards/{card}", cardsHandler.Resolve)
		r.Delete("/cards/{card}", cardsHandler.Unlink)

		// Ledger
		r.Get("/ledger/{date}", ledgerHandler.Day)
	})
}
