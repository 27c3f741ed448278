// Package main - overheat-sim
// Headless balance runner: plays batches of sessions with scripted players
// at a fixed step and reports how long they survive.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/samwiegames/overheat/internal/autoplay"
	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/platform/config"
	"github.com/samwiegames/overheat/internal/platform/logger"
)

// balanceCheck is one expectation on the shipped tuning.
type balanceCheck struct {
	name  string
	check func(reports map[string]autoplay.Report) (bool, string)
}

var checks = []balanceCheck{
	{
		name: "idle player overheats within a minute",
		check: func(r map[string]autoplay.Report) (bool, string) {
			idle, ok := r["idle"]
			if !ok {
				return true, "skipped"
			}
			return idle.Survivors == 0 && idle.Max < 60, fmt.Sprintf("max %s", engine.FormatTime(idle.Max))
		},
	},
	{
		name: "expert outlives casual",
		check: func(r map[string]autoplay.Report) (bool, string) {
			casual, ok1 := r["casual"]
			expert, ok2 := r["expert"]
			if !ok1 || !ok2 {
				return true, "skipped"
			}
			return expert.Median > casual.Median, fmt.Sprintf("median %s vs %s",
				engine.FormatTime(expert.Median), engine.FormatTime(casual.Median))
		},
	},
}

func main() {
	tuningPath := flag.String("tuning", "", "YAML tuning file (defaults to the shipped balance)")
	profiles := flag.String("profiles", "idle,casual,expert", "Comma separated player profiles")
	runs := flag.Int("runs", 50, "Sessions per profile")
	dt := flag.Float64("dt", 1.0/60, "Fixed step in seconds")
	maxDuration := flag.Float64("max", 600, "Cut runs off at this many seconds")
	seed := flag.Int64("seed", 1, "Base RNG seed")
	jsonOut := flag.String("json", "", "Write the full reports to this file")
	verify := flag.Bool("check", false, "Exit non-zero when a balance check fails")
	verbose := flag.Bool("v", false, "Log every run")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	appLogger := logger.New(logger.Options{Level: level})

	tuning, err := config.LoadTuning(*tuningPath)
	if err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Println("OVERHEAT - balance simulator")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("%-8s %6s %7s %7s %7s %7s %7s %5s\n", "profile", "runs", "mean", "median", "p90", "min", "max", "alive")

	reports := make(map[string]autoplay.Report)
	for _, name := range strings.Split(*profiles, ",") {
		name = strings.TrimSpace(name)
		profile, ok := autoplay.Profiles[name]
		if !ok {
			appLogger.Error("unknown profile: " + name)
			os.Exit(1)
		}
		report, err := autoplay.Run(ctx, autoplay.Options{
			Tuning:      tuning,
			Profile:     profile,
			Runs:        *runs,
			Dt:          *dt,
			MaxDuration: *maxDuration,
			Seed:        *seed,
			Logger:      appLogger,
		})
		if err != nil {
			appLogger.Error(err.Error())
			os.Exit(1)
		}
		reports[name] = report
		fmt.Printf("%-8s %6d %7s %7s %7s %7s %7s %5d\n", name, len(report.Runs),
			engine.FormatTime(report.Mean), engine.FormatTime(report.Median), engine.FormatTime(report.P90),
			engine.FormatTime(report.Min), engine.FormatTime(report.Max), report.Survivors)
	}

	if *jsonOut != "" {
		data, _ := json.MarshalIndent(reports, "", "  ")
		if err := os.WriteFile(*jsonOut, data, 0o644); err != nil {
			appLogger.Error(err.Error())
		} else {
			fmt.Println("Reports saved to " + *jsonOut)
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	failed := 0
	for _, c := range checks {
		passed, detail := c.check(reports)
		mark := "PASS"
		if !passed {
			mark = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s (%s)\n", mark, c.name, detail)
	}
	if *verify && failed > 0 {
		os.Exit(1)
	}
}
