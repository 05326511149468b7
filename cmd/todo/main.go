package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// main 是待办清单终端客户端的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Fatalf("todo 运行失败: %v", err)
	}
}
