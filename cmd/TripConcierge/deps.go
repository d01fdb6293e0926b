package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/TripConcierge/internal/airport"
	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/flow"
	"github.com/BTreeMap/TripConcierge/internal/genai"
	"github.com/BTreeMap/TripConcierge/internal/models"
	"github.com/BTreeMap/TripConcierge/internal/offers"
	"github.com/BTreeMap/TripConcierge/internal/store"
)

// openCourses opens the course repository, seeding the demo course into an empty database.
func openCourses(ctx context.Context, cfg Config) (store.CourseRepository, error) {
	repo, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open course store: %w", err)
	}
	existing, err := repo.ListCourses(ctx)
	if err != nil {
		repo.Close()
		return nil, err
	}
	if len(existing) == 0 {
		slog.Info("Course store is empty, seeding the demo course")
		if err := repo.SaveCourse(ctx, course.MockCourse()); err != nil {
			repo.Close()
			return nil, err
		}
	}
	return repo, nil
}

// defaultCourse looks up the configured course, falling back to the demo course.
func defaultCourse(ctx context.Context, p course.Provider, id string) models.Course {
	c, err := p.Course(ctx, id)
	if err != nil {
		slog.Warn("Configured course unavailable, using the demo course", "courseID", id, "error", err)
		return course.MockCourse()
	}
	return c
}

// newLLM creates the OpenAI client, or returns nil when no key is configured.
func newLLM(cfg Config) (*genai.Client, error) {
	if cfg.OpenAIKey == "" {
		slog.Info("No OpenAI API key configured, free-form chat uses the fallback reply")
		return nil, nil
	}
	opts := []genai.Option{genai.WithAPIKey(cfg.OpenAIKey)}
	if cfg.OpenAIModel != "" {
		opts = append(opts, genai.WithModel(cfg.OpenAIModel))
	}
	client, err := genai.NewClient(opts...)
	if errors.Is(err, genai.ErrNoAPIKey) {
		return nil, nil
	}
	return client, err
}

// newResolver builds the departure resolver. An explicit lookup endpoint takes
// precedence over the language model.
func newResolver(cfg Config, llm *genai.Client) (*airport.Resolver, error) {
	var opts []airport.Option
	switch {
	case cfg.AirportLookupURL != "":
		slog.Debug("Using remote airport lookup", "url", cfg.AirportLookupURL)
		opts = append(opts, airport.WithLookup(airport.NewHTTPLookup(cfg.AirportLookupURL, nil)))
	case llm != nil:
		opts = append(opts, airport.WithLookup(llm))
	}
	return airport.NewResolver(opts...)
}

// sessionOptions collects the collaborators every session is created with.
func sessionOptions(cfg Config, resolver *airport.Resolver, llm *genai.Client, c models.Course) []flow.SessionOption {
	var synthOpts []offers.Option
	if cfg.HonorTravelDates {
		synthOpts = append(synthOpts, offers.WithExplicitTravelDates())
	}
	opts := []flow.SessionOption{
		flow.WithResolver(resolver),
		flow.WithSynthesizer(offers.NewSynthesizer(synthOpts...)),
		flow.WithPacer(flow.NewPacer(cfg.ThinkingDelay)),
		flow.WithCourse(c),
	}
	if llm != nil {
		opts = append(opts, flow.WithGenAI(llm))
	}
	return opts
}
