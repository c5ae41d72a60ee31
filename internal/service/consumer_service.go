package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns document lifecycle events into structured audit
// log entries.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.DocumentEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "failed to unmarshal document event", map[string]interface{}{
			"error": err.Error(),
		})
		// Ack invalid messages to prevent infinite redelivery.
		msg.Ack()
		return
	}

	cs.logger.Info("CONSUMER", "document event", map[string]interface{}{
		"event_type":  payload.EventType,
		"document_id": payload.DocumentId.String(),
		"title":       payload.Title,
		"chunk_count": payload.ChunkCount,
	})
	msg.Ack()
}
