// Command checkcfg validates an alarm definitions file without starting the
// service. It prints one verdict per alarm and exits non-zero if any alarm
// was rejected.
//
// Usage:
//
//	go run ./cmd/checkcfg -file alarms.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/weather-alarm-service/internal/config"
)

func main() {
	file := flag.String("file", "alarms.yaml", "path to the alarm definitions file")
	flag.Parse()

	if code := run(*file); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	verdicts, err := config.ParseAlarmsFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Printf("=== Alarm Definitions: %s ===\n\n", path)

	rejected := 0
	for _, v := range verdicts {
		name := v.Name
		if name == "" {
			name = fmt.Sprintf("(alarm %d)", v.Index)
		}

		if v.Err != nil {
			rejected++
			fmt.Printf("  %-30s \033[31mREJECTED\033[0m  %v\n", name, v.Err)
			continue
		}

		fmt.Printf("  %-30s \033[32mOK\033[0m        %s, %d recipient(s), %d band(s)\n",
			name, v.Config.Schedule.Mode, len(v.Config.Recipients), len(v.Config.Bands))
		for _, w := range v.Warnings {
			fmt.Printf("  %-30s \033[33mwarning\033[0m   %s\n", "", w)
		}
	}

	fmt.Println()
	if rejected > 0 {
		fmt.Printf("%d of %d alarm(s) rejected.\n", rejected, len(verdicts))
		return 1
	}
	fmt.Printf("All %d alarm(s) validated.\n", len(verdicts))
	return 0
}
