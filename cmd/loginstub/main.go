package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tool "github.com/sandeepkv93/loginform/internal/tools/loginstub"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tool.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}
