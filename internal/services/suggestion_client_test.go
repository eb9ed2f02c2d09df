package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/goalie-study/goalie-backend/internal/flows"
	"github.com/goalie-study/goalie-backend/internal/logger"
)

func TestSuggest_FakeModeReturnsExactFallback(t *testing.T) {
	client := NewSuggestionClientWith(logger.NewNop(), "http://unused", "mistral", true, time.Second)

	for _, dim := range []flows.Dimension{
		flows.DimensionSpecific,
		flows.DimensionMeasurable,
		flows.DimensionAchievable,
		flows.DimensionRelevant,
		flows.DimensionTimebound,
		flows.DimensionTasks,
		flows.DimensionSummary,
	} {
		got := client.Suggest(context.Background(), SuggestionRequest{
			Dimension: dim,
			GoalText:  "finish my thesis",
		})
		want := FallbackSuggestion(dim, "finish my thesis")
		assert.Equal(t, want, got, "dimension %s", dim)
		assert.NotEmpty(t, got)
	}
}

func TestSuggest_ResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "1. Outline the chapters\n2. Write daily"}`))
	}))
	defer srv.Close()

	client := NewSuggestionClientWith(logger.NewNop(), srv.URL, "mistral", false, time.Second)
	got := client.Suggest(context.Background(), SuggestionRequest{
		Dimension: flows.DimensionSpecific,
		GoalText:  "finish my thesis",
	})
	assert.Equal(t, "1. Outline the chapters<br>2. Write daily", got)
}

func TestSuggest_ChoicesFallbackShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"text": "Try a weekly target."}]}`))
	}))
	defer srv.Close()

	client := NewSuggestionClientWith(logger.NewNop(), srv.URL, "mistral", false, time.Second)
	got := client.Suggest(context.Background(), SuggestionRequest{
		Dimension: flows.DimensionMeasurable,
		GoalText:  "read more",
	})
	assert.Equal(t, "Try a weekly target.", got)
}

func TestSuggest_Non2xxFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewSuggestionClientWith(logger.NewNop(), srv.URL, "mistral", false, time.Second)
	got := client.Suggest(context.Background(), SuggestionRequest{
		Dimension: flows.DimensionTasks,
		GoalText:  "read more",
	})
	assert.Equal(t, FallbackSuggestion(flows.DimensionTasks, "read more"), got)
}

func TestSuggest_MalformedBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	client := NewSuggestionClientWith(logger.NewNop(), srv.URL, "mistral", false, time.Second)
	got := client.Suggest(context.Background(), SuggestionRequest{
		Dimension: flows.DimensionTimebound,
		GoalText:  "run a 5k",
	})
	assert.Equal(t, FallbackSuggestion(flows.DimensionTimebound, "run a 5k"), got)
}

func TestSuggest_EmptyResponseFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "   "}`))
	}))
	defer srv.Close()

	client := NewSuggestionClientWith(logger.NewNop(), srv.URL, "mistral", false, time.Second)
	got := client.Suggest(context.Background(), SuggestionRequest{
		Dimension: flows.DimensionRelevant,
		GoalText:  "learn piano",
	})
	assert.Equal(t, FallbackSuggestion(flows.DimensionRelevant, "learn piano"), got)
}

func TestSuggest_TimeoutFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"response": "too late"}`))
	}))
	defer srv.Close()

	client := NewSuggestionClientWith(logger.NewNop(), srv.URL, "mistral", false, 20*time.Millisecond)
	got := client.Suggest(context.Background(), SuggestionRequest{
		Dimension: flows.DimensionAchievable,
		GoalText:  "learn piano",
	})
	assert.Equal(t, FallbackSuggestion(flows.DimensionAchievable, "learn piano"), got)
}

func TestBuildPrompt_TasksIncludesExisting(t *testing.T) {
	prompt := buildPrompt(flows.DimensionTasks, "finish my thesis", []string{"Outline chapter one", "Email advisor"})
	assert.Contains(t, prompt, "finish my thesis")
	assert.Contains(t, prompt, "Outline chapter one")
	assert.Contains(t, prompt, "Email advisor")
}

func TestFallbackSuggestion_UnknownDimension(t *testing.T) {
	got := FallbackSuggestion(flows.Dimension("bogus"), "x")
	assert.True(t, strings.HasPrefix(got, "No fallback guidance"))
}
