package main

import (
	"os"
	"runtime/debug"

	"github.com/mezonai/runtime/cmd"
	"github.com/mezonai/runtime/logx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("RUNTIME CRASHED: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
