package main

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// consume 逐条处理 msgs 中的消息，ctx 被取消或 msgs 被关闭时停止
// 返回的 channel 在处理循环退出后关闭
func consume(ctx context.Context, msgs <-chan amqp.Delivery, handle func(amqp.Delivery)) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				handle(msg)
			}
		}
	}()

	return done
}
