package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"focusnarrator/internal/cli/scheme/colours"
	"focusnarrator/internal/narration/app"
)

func main() {
	a := app.New(nil)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		a.Cancel()
		a.Stop()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Narrator stopped"))
		os.Exit(0)
	}()

	if err := a.RootCommand().Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}
