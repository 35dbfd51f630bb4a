package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"tuneshift/internal/quota"
	"tuneshift/internal/services"
	"tuneshift/internal/shared"
	tu "tuneshift/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			source := &tu.MockSourceCatalog{}
			search := &tu.MockSearchCatalog{}
			writer := &tu.MockPlaylistWriter{}
			tokens := &tu.MockTokenProvider{}
			budget := quota.NewBudget(500)

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Source: source,
				Search: search,
				Writer: writer,
				Tokens: tokens,
				Budget: budget,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.source != services.SourceCatalog(source) {
				t.Error("expected source to be set")
			}
			if runner.search != services.SearchCatalog(search) {
				t.Error("expected search to be set")
			}
			if runner.budget != budget {
				t.Error("expected budget to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil budget uses configured daily limit", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Convert.DailyQuotaUnits = 321

			runner := NewRunner(RunnerOpts{Config: config})

			if runner.budget.Remaining() != 321 {
				t.Errorf("expected budget from config, got %d remaining", runner.budget.Remaining())
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

// newTestApp builds the CLI around a runner wired with mocks.
func newTestApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "tuneshift",
		Commands: runner.register(),
	}
}

func TestConvertRunCommand(t *testing.T) {
	tracks := []services.SourceTrack{
		{ID: "t0", Title: "Song Zero", Artist: "Artist Zero", Duration: 180},
		{ID: "t1", Title: "Song One", Artist: "Artist One", Duration: 200},
	}
	results := map[string][]services.Candidate{}
	for i, tr := range tracks {
		results[tr.Title+" "+tr.Artist] = []services.Candidate{{
			VideoID:      fmt.Sprintf("v%d", i),
			Title:        tr.Title,
			ChannelTitle: tr.Artist,
			Duration:     tr.Duration,
		}}
	}

	t.Run("match-only run writes a report", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output: output,
			Source: &tu.MockSourceCatalog{Tracks: tracks},
			Search: &tu.MockSearchCatalog{Results: results},
		})

		reportPath := filepath.Join(t.TempDir(), "matches.csv")
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{
			"tuneshift", "convert", "run", "--match-only", "--report", "csv", "--output", reportPath, "PL123",
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if !strings.Contains(output.String(), "Conversion Complete") {
			t.Errorf("expected summary header, got:\n%s", output.String())
		}
		if !strings.Contains(output.String(), "Matched: 2") {
			t.Errorf("expected 2 matches in summary, got:\n%s", output.String())
		}
		tu.AssertFileExists(t, reportPath)
	})

	t.Run("full run publishes and prints the playlist URL", func(t *testing.T) {
		output := &bytes.Buffer{}
		writer := &tu.MockPlaylistWriter{}
		runner := NewRunner(RunnerOpts{
			Output: output,
			Source: &tu.MockSourceCatalog{Tracks: tracks},
			Search: &tu.MockSearchCatalog{Results: results},
			Writer: writer,
			Tokens: &tu.MockTokenProvider{},
		})

		app := newTestApp(runner)
		err := app.Run(context.Background(), []string{
			"tuneshift", "convert", "run", "--title", "My Mix", "PL123",
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if len(writer.Inserted) != 2 {
			t.Errorf("expected 2 inserted tracks, got %d", len(writer.Inserted))
		}
		if len(writer.Created) != 1 || writer.Created[0].Title != "My Mix" {
			t.Errorf("expected playlist 'My Mix', got %+v", writer.Created)
		}
		if !strings.Contains(output.String(), "Playlist: https://") {
			t.Errorf("expected playlist URL in output, got:\n%s", output.String())
		}
	})

	t.Run("missing playlist argument fails", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Output: &bytes.Buffer{},
			Source: &tu.MockSourceCatalog{},
			Search: &tu.MockSearchCatalog{},
		})

		app := newTestApp(runner)
		err := app.Run(context.Background(), []string{"tuneshift", "convert", "run"})
		if err == nil {
			t.Fatal("expected error for missing argument")
		}
	})
}

func TestQuotaCommand(t *testing.T) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output, Budget: quota.NewBudget(5000)})

	app := newTestApp(runner)
	if err := app.Run(context.Background(), []string{"tuneshift", "quota"}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if !strings.Contains(output.String(), "Daily budget: 5000 units") {
		t.Errorf("expected budget line, got:\n%s", output.String())
	}
	if !strings.Contains(output.String(), "playlistItems.insert") {
		t.Errorf("expected cost table, got:\n%s", output.String())
	}
}
