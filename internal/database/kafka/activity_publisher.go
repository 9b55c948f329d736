package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

// Publisher 将学习活动事件发布到消息队列。
type Publisher interface {
	Publish(ctx context.Context, event models.ActivityEvent) error
}

// ActivityPublisher 是基于 Kafka 的 Publisher 实现。
// 事件以学习者 ID 为 key，保证同一学习者的事件有序。
type ActivityPublisher struct {
	client *KafkaClient
	topic  string
	log    *logger.Logger
}

// NewActivityPublisher 创建一个新的 ActivityPublisher。
func NewActivityPublisher(client *KafkaClient, topic string, log *logger.Logger) *ActivityPublisher {
	return &ActivityPublisher{client: client, topic: topic, log: log}
}

// Publish 将事件序列化为 JSON 并写入 Kafka。
func (p *ActivityPublisher) Publish(ctx context.Context, event models.ActivityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化活动事件失败: %w", err)
	}

	err = p.client.Writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.LearnerID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("写入活动事件失败: %w", err)
	}
	p.log.Debug(fmt.Sprintf("已发布活动事件: %s", event.Type))
	return nil
}

// NopPublisher 在未配置 Kafka 时丢弃所有事件。
type NopPublisher struct{}

// Publish 直接丢弃事件。
func (NopPublisher) Publish(ctx context.Context, event models.ActivityEvent) error {
	return nil
}

var (
	_ Publisher = (*ActivityPublisher)(nil)
	_ Publisher = NopPublisher{}
)
