package cmd

import (
	"os"

	"github.com/cocoreg/cocoreg/packages/core/runbook"
)

// loadFromArgs resolves the optional positional runbook argument (a file, a
// directory, or nothing for the current directory) and loads it. workDir
// anchors path-valued build/test arguments.
func loadFromArgs(args []string, workDir string) (*runbook.Runbook, error) {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	file, err := runbook.Locate(arg)
	if err != nil {
		return nil, err
	}
	return runbook.Load(file, workDir)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
