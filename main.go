package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := commands.New(os.Stdout, os.Stderr)
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}

// exitCode 将错误分类映射为退出码:校验错误 2,其余 1。
func exitCode(err error) int {
	if api.IsValidation(err) {
		return 2
	}
	return 1
}
