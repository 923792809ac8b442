// test-model-outputs asks the same hospital questions through the agent
// with every configured model and reports how each run ended.
// It needs a seeded database (setup-db) and at least one provider key.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ekaya-inc/hospital-assistant/pkg/agent"
	"github.com/ekaya-inc/hospital-assistant/pkg/config"
	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/llm"
	"github.com/ekaya-inc/hospital-assistant/pkg/logging"
	"github.com/ekaya-inc/hospital-assistant/pkg/tools"
)

var sampleQuestions = []string{
	"What is the name and age of patient 1?",
	"Which doctors are cardiologists?",
	"List the appointments for patient 2.",
	"What medications were prescribed to patient 3?",
	"Tell me about patient 9999.",
}

type TestResult struct {
	Model    string
	Question string
	Outcome  string
	Answer   string
	Rounds   int
	Duration time.Duration
	Error    string
}

func main() {
	timeout := flag.Duration("timeout", 120*time.Second, "Timeout for each question")
	only := flag.String("model", "", "Test a single model id")
	flag.Parse()

	logger := logging.MustNewLogger("local", "warn")
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load("dev")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{URL: cfg.Database.ConnectionString()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "database: %s\n", logging.SanitizeError(err))
		os.Exit(1)
	}
	defer db.Close()

	executor := database.NewQueryExecutor(db, logger)
	factory := llm.NewClientFactory(cfg.AI, llm.DefaultCatalog(), logger)
	assistant := agent.New(factory, tools.NewRegistry(executor, logger), cfg.AI.MaxRounds, logger)

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("Agent Output Test")
	fmt.Printf("%d questions per model, max %d rounds\n", len(sampleQuestions), cfg.AI.MaxRounds)
	fmt.Println(strings.Repeat("=", 80))

	var results []TestResult
	for _, m := range assistant.Models() {
		if *only != "" && m.ID != *only {
			continue
		}
		fmt.Printf("\n%s\n", strings.Repeat("-", 80))
		fmt.Printf("Testing: %s (%s, %s)\n", m.Name, m.ID, m.Provider)
		fmt.Printf("%s\n", strings.Repeat("-", 80))

		for _, q := range sampleQuestions {
			r := testQuestion(ctx, assistant, m.ID, q, *timeout)
			results = append(results, r)
			printResult(r)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Printf("%s\n\n", strings.Repeat("=", 80))

	failed := 0
	for _, r := range results {
		status := "✓ " + r.Outcome
		if r.Error != "" {
			status = "✗ failed"
			failed++
		}
		fmt.Printf("%-12s %-28s %s\n", status, r.Model, truncateString(r.Question, 40))
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d runs failed.\n", failed, len(results))
		os.Exit(1)
	}
	fmt.Println("\nAll runs completed.")
}

func testQuestion(ctx context.Context, a *agent.Agent, modelID, question string, timeout time.Duration) TestResult {
	result := TestResult{Model: modelID, Question: question}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	ans, err := a.Ask(ctx, question, modelID)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Outcome = ans.Outcome.String()
	result.Answer = ans.Text
	result.Rounds = ans.Rounds
	return result
}

func printResult(r TestResult) {
	fmt.Printf("\nQ: %s\n", r.Question)
	if r.Error != "" {
		fmt.Printf("ERROR (%s): %s\n", r.Duration.Round(time.Millisecond), r.Error)
		return
	}
	fmt.Printf("A: %s\n", truncateString(r.Answer, 400))
	fmt.Printf("[%s, %d rounds, %s]\n", r.Outcome, r.Rounds, r.Duration.Round(time.Millisecond))
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
